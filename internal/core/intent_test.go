package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		message string
		want    Intent
	}{
		{"please generate a pdf report", IntentPDF},
		{"Write me a cover LETTER", IntentPDF},
		{"write a python function", IntentCode},
		{"help me debug this", IntentCode},
		{"what's the weather", IntentGeneral},
		{"tell me a joke", IntentGeneral},
		// pdf keywords are checked before code keywords
		{"generate a pdf with python code inside", IntentPDF},
		{"", IntentGeneral},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIntent(tt.message), "message: %q", tt.message)
	}
}

func TestExtractSearchTerms(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"What is the Eiffel Tower", "eiffel tower"},
		{"Tell me about quantum computing in simple terms", "quantum computing simple"},
		{"Where is Mount Everest located?", "mount everest located"},
		// nothing survives the filters: fall back to the first 30 characters
		{"is it me or", "is it me or"},
		{"why why why why why why why why why why why", "why why why why why why why wh"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractSearchTerms(tt.message), "message: %q", tt.message)
	}
}

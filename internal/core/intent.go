package core

import (
	"strings"
	"unicode"
)

// Intent is the coarse classification of a chat message used to decide
// auxiliary actions (PDF generation, code-oriented prompting).
type Intent string

const (
	IntentGeneral Intent = "general"
	IntentCode    Intent = "code"
	IntentPDF     Intent = "pdf"
)

// Keyword vocabularies for intent classification. PDF keywords are checked
// before code keywords; the first matching category wins, no scoring.
var (
	pdfKeywords = []string{
		"pdf", "document", "report", "resume", "invoice",
		"letter", "essay", "certificate", "brochure",
	}

	codeKeywords = []string{
		"code", "python", "javascript", "typescript", "java", "golang",
		"function", "program", "script", "algorithm", "debug", "compile",
		"sql", "html", "css", "regex", "api",
	}
)

// ClassifyIntent matches the message against fixed keyword vocabularies,
// case-insensitively. It is a pure function with no upstream calls.
func ClassifyIntent(message string) Intent {
	lower := strings.ToLower(message)

	for _, kw := range pdfKeywords {
		if strings.Contains(lower, kw) {
			return IntentPDF
		}
	}
	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			return IntentCode
		}
	}
	return IntentGeneral
}

var searchStopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "who": {}, "which": {}, "when": {}, "where": {}, "why": {},
	"how": {}, "do": {}, "does": {}, "did": {}, "can": {}, "could": {},
	"will": {}, "would": {}, "should": {}, "tell": {}, "me": {}, "about": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {},
	"and": {}, "or": {}, "please": {}, "show": {}, "give": {}, "find": {},
	"my": {}, "your": {}, "i": {}, "you": {}, "it": {}, "this": {}, "that": {},
}

// ExtractSearchTerms reduces a chat message to a short image-search query:
// stop words are dropped, tokens of 2 characters or fewer are dropped, and
// the first 3 surviving tokens are joined with spaces. This is a keyword
// heuristic, not a semantic extractor. If nothing survives, the first 30
// characters of the raw message are used as-is.
func ExtractSearchTerms(message string) string {
	tokens := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var kept []string
	for _, tok := range tokens {
		if _, stop := searchStopWords[tok]; stop {
			continue
		}
		if len(tok) <= 2 {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == 3 {
			break
		}
	}

	if len(kept) == 0 {
		fallback := message
		if len(fallback) > 30 {
			fallback = fallback[:30]
		}
		return fallback
	}
	return strings.Join(kept, " ")
}

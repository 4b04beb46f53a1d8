package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFBuild(t *testing.T) {
	svc := NewPDFService()

	out, err := svc.Build("Quarterly Report", "# Summary\n\nRevenue grew 12% year over year.\n\nCosts were flat.")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestPDFBuildWithoutTitle(t *testing.T) {
	svc := NewPDFService()

	out, err := svc.Build("", "Body only.")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

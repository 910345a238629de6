package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/models"
)

func writeMappingFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cusip_mapping.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const testMappings = `
[[mapping]]
cusip = "037833100"
symbol = "AAPL"
description = "Apple Inc"

[[mapping]]
cusip = "37833100"
symbol = "WRONG"
description = "Duplicate after zero padding, must be ignored"

[[mapping]]
cusip = "594918104"
symbol = "MSFT"
description = "Microsoft Corp"
`

func TestService_Resolve(t *testing.T) {
	svc, err := NewService(writeMappingFile(t, testMappings), arbor.NewLogger())
	require.NoError(t, err)

	m, ok := svc.Resolve("037833100")
	require.True(t, ok)
	assert.Equal(t, "AAPL", m.Symbol)
	assert.Equal(t, "Apple Inc", m.Description)

	// Short identifiers are zero-padded before lookup.
	m, ok = svc.Resolve("37833100")
	require.True(t, ok)
	assert.Equal(t, "AAPL", m.Symbol, "first occurrence in file order wins")

	_, ok = svc.Resolve("999999999")
	assert.False(t, ok)
}

func TestService_Apply(t *testing.T) {
	svc, err := NewService(writeMappingFile(t, testMappings), arbor.NewLogger())
	require.NoError(t, err)

	holdings := []models.HoldingRecord{
		{IssuerName: "APPLE INC", CUSIP: "37833100"},
		{IssuerName: "UNKNOWN CO", CUSIP: "111111111"},
		{IssuerName: "MICROSOFT CORP", CUSIP: "594918104"},
	}

	unresolved := svc.Apply(holdings)
	assert.Equal(t, 1, unresolved)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.Empty(t, holdings[1].Symbol, "unresolved holdings keep an empty symbol")
	assert.Equal(t, "MSFT", holdings[2].Symbol)
}

func TestNormalizeCUSIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"037833100", "037833100"},
		{"37833100", "037833100"},
		{" 123 ", "000000123"},
		{"", ""},
		{"0378331005", "0378331005"}, // over-long passes through
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCUSIP(tt.in), "NormalizeCUSIP(%q)", tt.in)
	}
}

// Package mapping resolves security identifiers (CUSIPs) to trading symbols
// using a mapping table loaded once per run.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/models"
)

// cusipWidth is the fixed identifier width; disclosed CUSIPs drop leading
// zeros and must be re-padded before lookup.
const cusipWidth = 9

// Mapping is one resolved identifier: the trading symbol and a display
// description for a CUSIP.
type Mapping struct {
	CUSIP       string `toml:"cusip"`
	Symbol      string `toml:"symbol"`
	Description string `toml:"description"`
}

// mappingFile is the TOML shape of the mapping table.
type mappingFile struct {
	Mappings []Mapping `toml:"mapping"`
}

// Service resolves CUSIPs against the preloaded mapping table.
type Service struct {
	byCUSIP map[string]Mapping
	logger  arbor.ILogger
}

// NewService loads the mapping table from a TOML file. Duplicate CUSIPs keep
// the first occurrence in file order, so the source ordering is significant.
func NewService(path string, logger arbor.ILogger) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	var file mappingFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}

	svc := &Service{
		byCUSIP: make(map[string]Mapping, len(file.Mappings)),
		logger:  logger,
	}

	duplicates := 0
	for _, m := range file.Mappings {
		cusip := NormalizeCUSIP(m.CUSIP)
		if cusip == "" || m.Symbol == "" {
			continue
		}
		if _, exists := svc.byCUSIP[cusip]; exists {
			duplicates++
			continue
		}
		m.CUSIP = cusip
		svc.byCUSIP[cusip] = m
	}

	logger.Info().
		Str("file", path).
		Int("mappings", len(svc.byCUSIP)).
		Int("duplicates", duplicates).
		Msg("Loaded identifier mapping table")

	return svc, nil
}

// Resolve looks up a CUSIP after normalization. An unresolved identifier is
// not an error: the holding keeps an empty symbol and processing continues.
func (s *Service) Resolve(cusip string) (Mapping, bool) {
	m, ok := s.byCUSIP[NormalizeCUSIP(cusip)]
	return m, ok
}

// Apply fills in the Symbol field of each holding record from the mapping
// table and returns the count of unresolved identifiers.
func (s *Service) Apply(holdings []models.HoldingRecord) int {
	unresolved := 0
	for i := range holdings {
		m, ok := s.Resolve(holdings[i].CUSIP)
		if !ok {
			unresolved++
			s.logger.Debug().
				Str("cusip", holdings[i].CUSIP).
				Str("issuer", holdings[i].IssuerName).
				Msg("Unresolved CUSIP, holding kept without symbol")
			continue
		}
		holdings[i].Symbol = m.Symbol
	}
	return unresolved
}

// NormalizeCUSIP upper-cases and zero-pads an identifier to the fixed
// 9-character width. Over-long identifiers pass through unchanged; they
// simply miss the table.
func NormalizeCUSIP(cusip string) string {
	cusip = strings.ToUpper(strings.TrimSpace(cusip))
	if cusip == "" || len(cusip) >= cusipWidth {
		return cusip
	}
	return strings.Repeat("0", cusipWidth-len(cusip)) + cusip
}

package edgar

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/tenax/internal/models"
)

// tableMarker denotes the start of the embedded 13F information table inside
// the raw filing text. It appears in the xmlns declaration of the opening
// element, so the marker line is the first line of the fragment.
const tableMarker = "edgar/document/thirteenf/informationtable"

// infoTableEntry mirrors one <infoTable> element. Unqualified tags match the
// varying namespace prefixes EDGAR filers use (ns1:, n1:, none).
type infoTableEntry struct {
	NameOfIssuer string `xml:"nameOfIssuer"`
	TitleOfClass string `xml:"titleOfClass"`
	CUSIP        string `xml:"cusip"`
	Value        string `xml:"value"`
	ShrsOrPrnAmt struct {
		SshPrnamt     string `xml:"sshPrnamt"`
		SshPrnamtType string `xml:"sshPrnamtType"`
	} `xml:"shrsOrPrnAmt"`
}

// ExtractHoldings isolates the information table embedded in a raw filing
// document and parses it into holding records.
//
// A document without the table marker yields no records and no error: the
// filing simply reports no holdings. An unclosed table truncates at end of
// document and parses as far as the entries are complete.
func ExtractHoldings(raw string) []models.HoldingRecord {
	fragment := extractFragment(raw)
	if fragment == "" {
		return nil
	}
	return parseFragment(fragment)
}

// extractFragment returns the line range from the table marker to the
// matching closing tag, inclusive. Missing marker returns empty; a missing
// closing tag returns everything from the marker to end of document.
func extractFragment(raw string) string {
	lines := strings.Split(raw, "\n")

	start := -1
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), tableMarker) {
			start = i
			break
		}
	}
	if start == -1 {
		return ""
	}

	end := len(lines) - 1
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "</") && strings.Contains(strings.ToLower(trimmed), "informationtable") {
			end = i
			break
		}
	}

	return strings.Join(lines[start:end+1], "\n")
}

// parseFragment decodes infoTable entries one element at a time, so a
// truncated fragment still yields every complete entry before the break.
func parseFragment(fragment string) []models.HoldingRecord {
	decoder := xml.NewDecoder(strings.NewReader(fragment))

	var records []models.HoldingRecord
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "infoTable" {
			continue
		}

		var entry infoTableEntry
		if err := decoder.DecodeElement(&entry, &start); err != nil {
			break
		}

		records = append(records, models.HoldingRecord{
			IssuerName:     strings.TrimSpace(entry.NameOfIssuer),
			TitleOfClass:   strings.TrimSpace(entry.TitleOfClass),
			CUSIP:          strings.TrimSpace(entry.CUSIP),
			ValueThousands: parseAmount(entry.Value),
			Shares:         parseAmount(entry.ShrsOrPrnAmt.SshPrnamt),
			ShareType:      strings.TrimSpace(entry.ShrsOrPrnAmt.SshPrnamtType),
		})
	}

	return records
}

var amountPattern = regexp.MustCompile(`[0-9,]+\.?[0-9]*`)

// parseAmount extracts the first numeric value from a disclosed field.
// Filers format amounts inconsistently (commas, stray annotations); a field
// with no number at all stays zero rather than failing the entry.
func parseAmount(s string) float64 {
	match := amountPattern.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

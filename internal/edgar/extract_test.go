package edgar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFiling = `<SEC-DOCUMENT>0000950123-24-000001.txt
<SEC-HEADER>
CONFORMED SUBMISSION TYPE: 13F-HR
</SEC-HEADER>
<DOCUMENT>
<TYPE>INFORMATION TABLE
<TEXT>
<XML>
<informationTable xmlns="http://www.sec.gov/edgar/document/thirteenf/informationtable">
  <infoTable>
    <nameOfIssuer>APPLE INC</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>037833100</cusip>
    <value>15,000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>100</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
  <infoTable>
    <nameOfIssuer>MICROSOFT CORP</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>594918104</cusip>
    <value>42000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>120</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
</informationTable>
</XML>
</TEXT>
</DOCUMENT>
</SEC-DOCUMENT>`

func TestExtractHoldings(t *testing.T) {
	records := ExtractHoldings(sampleFiling)
	require.Len(t, records, 2)

	assert.Equal(t, "APPLE INC", records[0].IssuerName)
	assert.Equal(t, "COM", records[0].TitleOfClass)
	assert.Equal(t, "037833100", records[0].CUSIP)
	assert.Equal(t, 15000.0, records[0].ValueThousands)
	assert.Equal(t, 100.0, records[0].Shares)
	assert.Equal(t, "SH", records[0].ShareType)

	assert.Equal(t, "MICROSOFT CORP", records[1].IssuerName)
	assert.Equal(t, 42000.0, records[1].ValueThousands)
}

func TestExtractHoldings_NamespacePrefix(t *testing.T) {
	doc := `<ns1:informationTable xmlns:ns1="http://www.sec.gov/edgar/document/thirteenf/informationtable">
  <ns1:infoTable>
    <ns1:nameOfIssuer>ACME CORP</ns1:nameOfIssuer>
    <ns1:titleOfClass>COM</ns1:titleOfClass>
    <ns1:cusip>000123456</ns1:cusip>
    <ns1:value>500</ns1:value>
    <ns1:shrsOrPrnAmt>
      <ns1:sshPrnamt>10000</ns1:sshPrnamt>
      <ns1:sshPrnamtType>SH</ns1:sshPrnamtType>
    </ns1:shrsOrPrnAmt>
  </ns1:infoTable>
</ns1:informationTable>`

	records := ExtractHoldings(doc)
	require.Len(t, records, 1)
	assert.Equal(t, "ACME CORP", records[0].IssuerName)
	assert.Equal(t, 500.0, records[0].ValueThousands)
	assert.Equal(t, 10000.0, records[0].Shares)
}

func TestExtractHoldings_NoMarker(t *testing.T) {
	doc := "<SEC-DOCUMENT>\nsome filing without an information table\n</SEC-DOCUMENT>"
	records := ExtractHoldings(doc)
	assert.Empty(t, records, "document without the table marker must yield no records, not an error")
}

func TestExtractHoldings_UnclosedTable(t *testing.T) {
	// Truncated mid-document: the closing informationTable tag never arrives.
	doc := `<informationTable xmlns="http://www.sec.gov/edgar/document/thirteenf/informationtable">
  <infoTable>
    <nameOfIssuer>APPLE INC</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>037833100</cusip>
    <value>15000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>100</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
  <infoTable>
    <nameOfIssuer>TRUNCATED CO`

	records := ExtractHoldings(doc)
	require.Len(t, records, 1, "complete entries before the truncation point are kept")
	assert.Equal(t, "APPLE INC", records[0].IssuerName)
}

func TestExtractHoldings_MissingFields(t *testing.T) {
	doc := `<informationTable xmlns="http://www.sec.gov/edgar/document/thirteenf/informationtable">
  <infoTable>
    <nameOfIssuer>SPARSE HOLDINGS</nameOfIssuer>
    <cusip>999999999</cusip>
  </infoTable>
</informationTable>`

	records := ExtractHoldings(doc)
	require.Len(t, records, 1, "entries with missing leaves are kept, not aborted")
	assert.Equal(t, "SPARSE HOLDINGS", records[0].IssuerName)
	assert.Empty(t, records[0].TitleOfClass)
	assert.Zero(t, records[0].ValueThousands)
	assert.Zero(t, records[0].Shares)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"15,000", 15000},
		{"100", 100},
		{" 42000 ", 42000},
		{"1,234.5", 1234.5},
		{"", 0},
		{"N/A", 0},
	}
	for _, tt := range tests {
		if got := parseAmount(tt.in); got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

package models

// HoldingRecord is one row of a filing's information table. Immutable once
// extracted; Symbol is filled in by the identifier resolver and stays empty
// when the CUSIP is unknown to the mapping table.
type HoldingRecord struct {
	IssuerName     string  `json:"issuer_name"`
	TitleOfClass   string  `json:"title_of_class"`
	CUSIP          string  `json:"cusip"`
	ValueThousands float64 `json:"value_thousands"`
	Shares         float64 `json:"shares"`
	ShareType      string  `json:"share_type"` // SH or PRN
	Symbol         string  `json:"symbol,omitempty"`
}

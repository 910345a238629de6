package models

import "time"

// FilingMeta identifies one filing in the remote index. The raw document is
// fetched separately and discarded after extraction.
type FilingMeta struct {
	CIK             string    `json:"cik"`
	CompanyName     string    `json:"company_name"`
	FormType        string    `json:"form_type"`
	FilingDate      time.Time `json:"filing_date"`
	AccessionNumber string    `json:"accession_number"`
}

// ReportingPeriod returns the calendar quarter-end the filing's holdings
// represent. A 13F is filed up to 45 days after quarter end, so the filing
// date always maps back to the previous quarter boundary.
func (f FilingMeta) ReportingPeriod() time.Time {
	d := f.FilingDate
	switch {
	case d.Month() < time.April:
		return time.Date(d.Year()-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	case d.Month() < time.July:
		return time.Date(d.Year(), time.March, 31, 0, 0, 0, 0, time.UTC)
	case d.Month() < time.October:
		return time.Date(d.Year(), time.June, 30, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(d.Year(), time.September, 30, 0, 0, 0, 0, time.UTC)
	}
}

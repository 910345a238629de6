package models

import (
	"fmt"
	"time"
)

// SummaryTable names one of the four persisted per-entity tables.
type SummaryTable string

const (
	TableShares      SummaryTable = "shares"
	TableValues      SummaryTable = "values"
	TableShareDeltas SummaryTable = "share_deltas"
	TableValueDeltas SummaryTable = "value_deltas"
)

// SummaryTables lists the four tables in their canonical order. Every
// summary write touches all four as one unit.
var SummaryTables = []SummaryTable{TableShares, TableValues, TableShareDeltas, TableValueDeltas}

// SummaryRow is one period's row in one summary table. Cells maps symbol to
// the cell value (shares, value, or delta depending on the table). Rows are
// pure derivations of snapshot input: rebuilding from identical snapshots
// reproduces identical rows, so they carry no write timestamp.
type SummaryRow struct {
	ID        string             `json:"id" badgerhold:"key"`
	CIK       string             `json:"cik"`
	Table     SummaryTable       `json:"table"`
	PeriodEnd time.Time          `json:"period_end"`
	Cells     map[string]float64 `json:"cells"`
	// TotalValue is set only on value-family rows (values, value_deltas).
	TotalValue *float64 `json:"total_value,omitempty"`
}

// SummaryRowID builds the storage key for a (entity, table, period) cell row.
func SummaryRowID(cik string, table SummaryTable, periodEnd time.Time) string {
	return fmt.Sprintf("%s|%s|%s", cik, table, periodEnd.Format("2006-01-02"))
}

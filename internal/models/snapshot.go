package models

import (
	"fmt"
	"time"
)

// PeriodSnapshot is the canonical view of one entity's portfolio at one
// reporting period: shares and resolved values per symbol. Snapshots are
// produced by the period aggregator and never mutated afterwards.
type PeriodSnapshot struct {
	ID        string             `json:"id" badgerhold:"key"`
	CIK       string             `json:"cik"`
	PeriodEnd time.Time          `json:"period_end"`
	Shares    map[string]float64 `json:"shares"`
	Values    map[string]float64 `json:"values"`
	// TotalValue is always the sum of Values, recomputed via ComputeTotal.
	TotalValue float64   `json:"total_value"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotID builds the storage key for an (entity, period) pair. One
// snapshot per pair; re-aggregating the same filing overwrites in place.
func SnapshotID(cik string, periodEnd time.Time) string {
	return fmt.Sprintf("%s|%s", cik, periodEnd.Format("2006-01-02"))
}

// ComputeTotal recomputes TotalValue as the sum of per-symbol values.
// Holdings with no resolvable price are simply absent from Values and
// contribute nothing.
func (s *PeriodSnapshot) ComputeTotal() {
	s.TotalValue = 0
	for _, v := range s.Values {
		s.TotalValue += v
	}
}

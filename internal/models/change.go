package models

import "time"

// ChangeRecord holds the period-over-period deltas for one entity at one
// reporting period. Derived from consecutive snapshots, never hand-edited.
type ChangeRecord struct {
	CIK         string             `json:"cik"`
	PeriodEnd   time.Time          `json:"period_end"`
	ShareDeltas map[string]float64 `json:"share_deltas"`
	ValueDeltas map[string]float64 `json:"value_deltas"`
	TotalDelta  float64            `json:"total_delta"`
}

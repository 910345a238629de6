package models

import (
	"testing"
	"time"
)

func TestFilingMeta_ReportingPeriod(t *testing.T) {
	tests := []struct {
		name   string
		filed  time.Time
		period time.Time
	}{
		{
			name:   "February filing reports prior year Q4",
			filed:  time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC),
			period: time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "March 31 still maps to prior year Q4",
			filed:  time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			period: time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "May filing reports Q1",
			filed:  time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
			period: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "August filing reports Q2",
			filed:  time.Date(2024, time.August, 14, 0, 0, 0, 0, time.UTC),
			period: time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "November filing reports Q3",
			filed:  time.Date(2024, time.November, 12, 0, 0, 0, 0, time.UTC),
			period: time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "December filing also reports Q3",
			filed:  time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
			period: time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := FilingMeta{FilingDate: tt.filed}
			if got := meta.ReportingPeriod(); !got.Equal(tt.period) {
				t.Errorf("ReportingPeriod() = %s, want %s", got.Format("2006-01-02"), tt.period.Format("2006-01-02"))
			}
		})
	}
}

func TestHistoryPolicy_Valid(t *testing.T) {
	for _, p := range []HistoryPolicy{PolicyLatestOnly, PolicyFullHistory, PolicySkip} {
		if !p.Valid() {
			t.Errorf("policy %q should be valid", p)
		}
	}
	if HistoryPolicy("everything").Valid() {
		t.Error("unknown policy should not be valid")
	}
}

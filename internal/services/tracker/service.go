// Package tracker maintains the persisted per-entity summary: shares and
// values per reporting period plus period-over-period deltas, including
// explicit closeouts of fully exited positions.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/models"
)

// ErrRebuildRequired is returned by Append when the persisted summary is
// more than one reporting period behind the fetched snapshot. Appending a
// single row would silently hide the missing quarters; the caller must
// rebuild from full snapshot history instead.
var ErrRebuildRequired = errors.New("persisted summary is more than one period behind, rebuild required")

// Service computes change records from period snapshots and persists the
// four summary tables.
type Service struct {
	storage interfaces.SummaryStorage
	logger  arbor.ILogger
}

// NewService creates a change tracking service.
func NewService(storage interfaces.SummaryStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// ComputeChanges derives one change record per snapshot from the
// chronologically ordered sequence. The first period has no predecessor and
// gets an all-zero record. Every later record is the element-wise difference
// over the union of symbols in either period, with a closeout post-pass: a
// symbol held in period t-1 and zero-or-absent in period t gets its deltas
// forced to exactly the negative of the prior period's shares and value.
// The union covers symbols missing entirely from the later period's columns,
// not just those present with zero.
func ComputeChanges(snapshots []*models.PeriodSnapshot) []models.ChangeRecord {
	sorted := make([]*models.PeriodSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PeriodEnd.Before(sorted[j].PeriodEnd)
	})

	changes := make([]models.ChangeRecord, 0, len(sorted))
	for i, snap := range sorted {
		if i == 0 {
			changes = append(changes, zeroChange(snap))
			continue
		}
		changes = append(changes, changeBetween(sorted[i-1], snap))
	}
	return changes
}

// zeroChange is the first-period record: zero deltas over the snapshot's own
// symbol columns, not the snapshot's values.
func zeroChange(snap *models.PeriodSnapshot) models.ChangeRecord {
	shareDeltas := make(map[string]float64, len(snap.Shares))
	for symbol := range snap.Shares {
		shareDeltas[symbol] = 0
	}
	valueDeltas := make(map[string]float64, len(snap.Values))
	for symbol := range snap.Values {
		valueDeltas[symbol] = 0
	}
	return models.ChangeRecord{
		CIK:         snap.CIK,
		PeriodEnd:   snap.PeriodEnd,
		ShareDeltas: shareDeltas,
		ValueDeltas: valueDeltas,
		TotalDelta:  0,
	}
}

func changeBetween(prev, cur *models.PeriodSnapshot) models.ChangeRecord {
	shareDeltas := make(map[string]float64)
	for symbol := range prev.Shares {
		shareDeltas[symbol] = cur.Shares[symbol] - prev.Shares[symbol]
	}
	for symbol := range cur.Shares {
		if _, done := shareDeltas[symbol]; !done {
			shareDeltas[symbol] = cur.Shares[symbol]
		}
	}

	valueDeltas := make(map[string]float64)
	for symbol := range prev.Values {
		valueDeltas[symbol] = cur.Values[symbol] - prev.Values[symbol]
	}
	for symbol := range cur.Values {
		if _, done := valueDeltas[symbol]; !done {
			valueDeltas[symbol] = cur.Values[symbol]
		}
	}

	// Closeout post-pass: exact negation guards against float accumulation
	// drift and covers symbols whose column vanished entirely in period t.
	for symbol, held := range prev.Shares {
		if held != 0 && cur.Shares[symbol] == 0 {
			shareDeltas[symbol] = -held
			valueDeltas[symbol] = -prev.Values[symbol]
		}
	}

	return models.ChangeRecord{
		CIK:         cur.CIK,
		PeriodEnd:   cur.PeriodEnd,
		ShareDeltas: shareDeltas,
		ValueDeltas: valueDeltas,
		TotalDelta:  cur.TotalValue - prev.TotalValue,
	}
}

// Rebuild recomputes the entity's entire summary from the full snapshot
// history and overwrites any persisted state, all four tables as one unit.
func (s *Service) Rebuild(ctx context.Context, cik string, snapshots []*models.PeriodSnapshot) error {
	if len(snapshots) == 0 {
		s.logger.Warn().Str("cik", cik).Msg("Rebuild with no snapshots, nothing to persist")
		return nil
	}

	sorted := make([]*models.PeriodSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PeriodEnd.Before(sorted[j].PeriodEnd)
	})

	changes := ComputeChanges(sorted)

	var rows []*models.SummaryRow
	for i, snap := range sorted {
		rows = append(rows, summaryRows(snap, changes[i])...)
	}

	if err := s.storage.Replace(ctx, cik, rows); err != nil {
		return fmt.Errorf("failed to replace summary for %s: %w", cik, err)
	}

	s.logger.Info().
		Str("cik", cik).
		Int("periods", len(sorted)).
		Msg("Rebuilt portfolio summary")
	return nil
}

// Append performs an incremental update: compare the latest fetched period
// against the last persisted period and append exactly one row to each of
// the four tables. Returns false without error when the fetched period is
// not newer than the persisted state (no-op). Returns
// interfaces.ErrNoBaseline when nothing is persisted yet, and
// ErrRebuildRequired when the fetched period is not the immediate successor
// of the persisted one; in both cases the caller must rebuild instead.
func (s *Service) Append(ctx context.Context, cik string, latest *models.PeriodSnapshot) (bool, error) {
	persistedLatest, err := s.storage.LatestPeriod(ctx, cik)
	if err != nil {
		return false, err
	}

	if !latest.PeriodEnd.After(persistedLatest) {
		s.logger.Info().
			Str("cik", cik).
			Str("period", latest.PeriodEnd.Format("2006-01-02")).
			Str("persisted", persistedLatest.Format("2006-01-02")).
			Msg("Latest period already persisted, skipping append")
		return false, nil
	}

	if prev := previousQuarterEnd(latest.PeriodEnd); !prev.Equal(persistedLatest) {
		s.logger.Warn().
			Str("cik", cik).
			Str("period", latest.PeriodEnd.Format("2006-01-02")).
			Str("persisted", persistedLatest.Format("2006-01-02")).
			Msg("Persisted summary is more than one period behind")
		return false, ErrRebuildRequired
	}

	sharesRow, err := s.storage.GetRow(ctx, cik, models.TableShares, persistedLatest)
	if err != nil {
		return false, fmt.Errorf("failed to load baseline shares row for %s: %w", cik, err)
	}
	valuesRow, err := s.storage.GetRow(ctx, cik, models.TableValues, persistedLatest)
	if err != nil {
		return false, fmt.Errorf("failed to load baseline values row for %s: %w", cik, err)
	}

	baseline := &models.PeriodSnapshot{
		CIK:       cik,
		PeriodEnd: persistedLatest,
		Shares:    sharesRow.Cells,
		Values:    valuesRow.Cells,
	}
	if valuesRow.TotalValue != nil {
		baseline.TotalValue = *valuesRow.TotalValue
	}

	change := changeBetween(baseline, latest)
	rows := summaryRows(latest, change)

	if err := s.storage.AppendPeriod(ctx, cik, rows); err != nil {
		return false, fmt.Errorf("failed to append summary period for %s: %w", cik, err)
	}

	s.logger.Info().
		Str("cik", cik).
		Str("period", latest.PeriodEnd.Format("2006-01-02")).
		Float64("total_delta", change.TotalDelta).
		Msg("Appended summary period")
	return true, nil
}

// summaryRows builds the four table rows for one period. Rows are derived
// purely from the snapshot and change record, so identical input always
// produces identical persisted rows.
func summaryRows(snap *models.PeriodSnapshot, change models.ChangeRecord) []*models.SummaryRow {
	total := snap.TotalValue
	totalDelta := change.TotalDelta
	return []*models.SummaryRow{
		{
			ID:        models.SummaryRowID(snap.CIK, models.TableShares, snap.PeriodEnd),
			CIK:       snap.CIK,
			Table:     models.TableShares,
			PeriodEnd: snap.PeriodEnd,
			Cells:     snap.Shares,
		},
		{
			ID:         models.SummaryRowID(snap.CIK, models.TableValues, snap.PeriodEnd),
			CIK:        snap.CIK,
			Table:      models.TableValues,
			PeriodEnd:  snap.PeriodEnd,
			Cells:      snap.Values,
			TotalValue: &total,
		},
		{
			ID:        models.SummaryRowID(snap.CIK, models.TableShareDeltas, snap.PeriodEnd),
			CIK:       snap.CIK,
			Table:     models.TableShareDeltas,
			PeriodEnd: snap.PeriodEnd,
			Cells:     change.ShareDeltas,
		},
		{
			ID:         models.SummaryRowID(snap.CIK, models.TableValueDeltas, snap.PeriodEnd),
			CIK:        snap.CIK,
			Table:      models.TableValueDeltas,
			PeriodEnd:  snap.PeriodEnd,
			Cells:      change.ValueDeltas,
			TotalValue: &totalDelta,
		},
	}
}

// previousQuarterEnd returns the calendar quarter end immediately before
// periodEnd.
func previousQuarterEnd(periodEnd time.Time) time.Time {
	switch periodEnd.Month() {
	case time.March:
		return time.Date(periodEnd.Year()-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	case time.June:
		return time.Date(periodEnd.Year(), time.March, 31, 0, 0, 0, 0, time.UTC)
	case time.September:
		return time.Date(periodEnd.Year(), time.June, 30, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(periodEnd.Year(), time.September, 30, 0, 0, 0, 0, time.UTC)
	}
}

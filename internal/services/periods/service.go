// Package periods aggregates a filing's holding records into a canonical
// reporting-period snapshot: per-symbol shares, per-symbol market value, and
// the portfolio total.
package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/models"
	"github.com/ternarybob/tenax/internal/services/pricing"
)

// Pricer resolves a symbol's price as of a reporting date.
type Pricer interface {
	PriceOn(ctx context.Context, symbol string, date time.Time, fallbackValue, fallbackShares float64) (models.PriceQuote, error)
}

// Service builds and stores period snapshots.
type Service struct {
	pricer  Pricer
	storage interfaces.SnapshotStorage
	logger  arbor.ILogger
}

// NewService creates a period aggregation service.
func NewService(pricer Pricer, storage interfaces.SnapshotStorage, logger arbor.ILogger) *Service {
	return &Service{
		pricer:  pricer,
		storage: storage,
		logger:  logger,
	}
}

// Aggregate groups a filing's holdings into a period snapshot and stores it.
// A filer may disclose the same symbol across multiple rows (share classes,
// sub-accounts); shares are summed, never overwritten. Holdings without a
// resolved symbol are excluded from the snapshot columns. A holding whose
// price cannot be resolved keeps its shares but contributes no value.
//
// Storage is keyed by (entity, period end), so re-aggregating the same
// filing reproduces the same snapshot in place.
func (s *Service) Aggregate(ctx context.Context, entity *models.TrackedEntity, filing models.FilingMeta, holdings []models.HoldingRecord) (*models.PeriodSnapshot, error) {
	periodEnd := filing.ReportingPeriod()

	shares := make(map[string]float64)
	disclosed := make(map[string]float64) // value in thousands, summed per symbol
	skipped := 0
	for _, h := range holdings {
		if h.Symbol == "" {
			skipped++
			continue
		}
		shares[h.Symbol] += h.Shares
		disclosed[h.Symbol] += h.ValueThousands
	}

	values := make(map[string]float64)
	unpriced := 0
	for symbol, count := range shares {
		quote, err := s.pricer.PriceOn(ctx, symbol, periodEnd, disclosed[symbol], count)
		if err != nil {
			if errors.Is(err, pricing.ErrPriceUnavailable) {
				unpriced++
				s.logger.Warn().
					Str("cik", entity.CIK).
					Str("symbol", symbol).
					Str("period", periodEnd.Format("2006-01-02")).
					Msg("Price unavailable, holding valued as null")
				continue
			}
			return nil, fmt.Errorf("failed to price %s for period %s: %w", symbol, periodEnd.Format("2006-01-02"), err)
		}
		values[symbol] = quote.Price * count
	}

	snapshot := &models.PeriodSnapshot{
		ID:        models.SnapshotID(entity.CIK, periodEnd),
		CIK:       entity.CIK,
		PeriodEnd: periodEnd,
		Shares:    shares,
		Values:    values,
		CreatedAt: time.Now(),
	}
	snapshot.ComputeTotal()

	if err := s.storage.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot for %s %s: %w", entity.CIK, periodEnd.Format("2006-01-02"), err)
	}

	s.logger.Info().
		Str("cik", entity.CIK).
		Str("period", periodEnd.Format("2006-01-02")).
		Int("symbols", len(shares)).
		Int("unresolved", skipped).
		Int("unpriced", unpriced).
		Float64("total_value", snapshot.TotalValue).
		Msg("Aggregated period snapshot")

	return snapshot, nil
}

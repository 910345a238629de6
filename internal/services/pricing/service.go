// Package pricing resolves market prices as of a reporting date, falling
// back to an implied price when a symbol has no market history at all.
package pricing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/marketdata"
	"github.com/ternarybob/tenax/internal/models"
)

// ErrPriceUnavailable is returned when a symbol has no market history and no
// implied price can be computed. The holding's value must then be treated as
// null, never zero: zero would falsely report a worthless position.
var ErrPriceUnavailable = errors.New("price unavailable")

// HistorySource supplies a symbol's full daily closing-price series.
type HistorySource interface {
	History(ctx context.Context, symbol string) (marketdata.Series, error)
}

// Service resolves prices against cached market history. Each symbol's
// series is fetched at most once per run; a not-found symbol is cached as an
// empty series so the remote source is not asked again.
type Service struct {
	source HistorySource
	logger arbor.ILogger

	mu    sync.Mutex
	cache map[string]marketdata.Series
}

// NewService creates a pricing service over the given history source.
func NewService(source HistorySource, logger arbor.ILogger) *Service {
	return &Service{
		source: source,
		logger: logger,
		cache:  make(map[string]marketdata.Series),
	}
}

// PriceOn returns the symbol's price as of date: the most recent close on or
// before it. When the symbol has no history at all as of that date, and the
// disclosed share count is positive, the price is implied from the filing
// itself (value is disclosed in thousands). Implied quotes are flagged so
// they are never mistaken for market data. With no history and no usable
// fallback the resolution fails with ErrPriceUnavailable.
func (s *Service) PriceOn(ctx context.Context, symbol string, date time.Time, fallbackValue, fallbackShares float64) (models.PriceQuote, error) {
	series, err := s.history(ctx, symbol)
	if err != nil {
		return models.PriceQuote{}, err
	}

	if px, ok := series.LastCloseOnOrBefore(date); ok {
		return models.PriceQuote{
			Symbol: symbol,
			Date:   date,
			Price:  px,
			Source: models.PriceObserved,
		}, nil
	}

	if fallbackShares > 0 {
		implied := fallbackValue * 1000 / fallbackShares
		s.logger.Debug().
			Str("symbol", symbol).
			Str("date", date.Format("2006-01-02")).
			Float64("price", implied).
			Msg("No market history, using implied price")
		return models.PriceQuote{
			Symbol: symbol,
			Date:   date,
			Price:  implied,
			Source: models.PriceImplied,
		}, nil
	}

	return models.PriceQuote{}, ErrPriceUnavailable
}

// history returns the cached series for symbol, fetching it on first use.
// An unknown symbol caches as an empty series.
func (s *Service) history(ctx context.Context, symbol string) (marketdata.Series, error) {
	s.mu.Lock()
	series, ok := s.cache[symbol]
	s.mu.Unlock()
	if ok {
		return series, nil
	}

	series, err := s.source.History(ctx, symbol)
	if err != nil {
		var notFound *marketdata.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		series = nil
	}

	s.mu.Lock()
	s.cache[symbol] = series
	s.mu.Unlock()
	return series, nil
}

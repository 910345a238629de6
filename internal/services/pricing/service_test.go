package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/marketdata"
	"github.com/ternarybob/tenax/internal/models"
)

// mockSource implements HistorySource for testing
type mockSource struct {
	series map[string]marketdata.Series
	calls  map[string]int
}

func newMockSource() *mockSource {
	return &mockSource{
		series: make(map[string]marketdata.Series),
		calls:  make(map[string]int),
	}
}

func (m *mockSource) History(ctx context.Context, symbol string) (marketdata.Series, error) {
	m.calls[symbol]++
	if s, ok := m.series[symbol]; ok {
		return s, nil
	}
	return nil, &marketdata.NotFoundError{Symbol: symbol}
}

func bar(date string, close float64) marketdata.EODBar {
	d, _ := time.Parse("2006-01-02", date)
	return marketdata.EODBar{DateStr: date, Date: d, Close: close}
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestPriceOn_Observed(t *testing.T) {
	source := newMockSource()
	source.series["AAPL"] = marketdata.Series{
		bar("2023-12-28", 193.15),
		bar("2023-12-29", 192.53),
		bar("2024-01-02", 185.64),
	}
	svc := NewService(source, arbor.NewLogger())

	// 2023-12-31 is a Sunday; the lookup falls back to the last trading day.
	quote, err := svc.PriceOn(context.Background(), "AAPL", date("2023-12-31"), 15000, 100)
	require.NoError(t, err)
	assert.Equal(t, 192.53, quote.Price)
	assert.Equal(t, models.PriceObserved, quote.Source)
	assert.False(t, quote.Implied())
}

func TestPriceOn_ImpliedWhenNoHistory(t *testing.T) {
	svc := NewService(newMockSource(), arbor.NewLogger())

	// Disclosed value 500 (thousands), 10,000 shares: implied price 50.00.
	quote, err := svc.PriceOn(context.Background(), "XYZ", date("2023-12-31"), 500, 10000)
	require.NoError(t, err)
	assert.Equal(t, 50.0, quote.Price)
	assert.Equal(t, models.PriceImplied, quote.Source)
	assert.True(t, quote.Implied())
}

func TestPriceOn_ObservedBeatsImplied(t *testing.T) {
	source := newMockSource()
	source.series["XYZ"] = marketdata.Series{bar("2024-02-01", 55.0)}
	svc := NewService(source, arbor.NewLogger())

	// History exists by the later period: the implied fallback must not be
	// re-derived once real data is available.
	quote, err := svc.PriceOn(context.Background(), "XYZ", date("2024-03-31"), 600, 10000)
	require.NoError(t, err)
	assert.Equal(t, 55.0, quote.Price)
	assert.Equal(t, models.PriceObserved, quote.Source)
}

func TestPriceOn_UnavailableWithoutShares(t *testing.T) {
	svc := NewService(newMockSource(), arbor.NewLogger())

	_, err := svc.PriceOn(context.Background(), "XYZ", date("2023-12-31"), 500, 0)
	assert.ErrorIs(t, err, ErrPriceUnavailable)

	_, err = svc.PriceOn(context.Background(), "XYZ", date("2023-12-31"), 500, -5)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestPriceOn_HistoryFetchedOnce(t *testing.T) {
	source := newMockSource()
	source.series["AAPL"] = marketdata.Series{bar("2023-12-29", 192.53)}
	svc := NewService(source, arbor.NewLogger())

	for i := 0; i < 3; i++ {
		_, err := svc.PriceOn(context.Background(), "AAPL", date("2023-12-31"), 0, 0)
		require.NoError(t, err)
	}
	// Unknown symbols are negative-cached too.
	for i := 0; i < 3; i++ {
		svc.PriceOn(context.Background(), "ZZZ", date("2023-12-31"), 100, 10)
	}

	assert.Equal(t, 1, source.calls["AAPL"])
	assert.Equal(t, 1, source.calls["ZZZ"])
}

func TestPriceOn_TransientErrorPropagates(t *testing.T) {
	failing := &failingSource{err: errors.New("connection reset")}
	svc := NewService(failing, arbor.NewLogger())

	_, err := svc.PriceOn(context.Background(), "AAPL", date("2023-12-31"), 100, 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPriceUnavailable)
}

type failingSource struct {
	err error
}

func (f *failingSource) History(ctx context.Context, symbol string) (marketdata.Series, error) {
	return nil, f.err
}

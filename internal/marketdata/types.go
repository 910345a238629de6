// Package marketdata provides a client for the EODHD end-of-day price API.
// The pricing service is its only consumer; it needs one thing from the
// remote source: a symbol's full daily closing-price history.
package marketdata

import (
	"fmt"
	"time"
)

// EODBar is one day of price history.
type EODBar struct {
	DateStr string  `json:"date"`
	Date    time.Time `json:"-"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Close   float64 `json:"close"`
	Volume  int64   `json:"volume"`
}

// Series is a symbol's daily history in ascending date order.
type Series []EODBar

// LastCloseOnOrBefore returns the most recent close on or before date.
func (s Series) LastCloseOnOrBefore(date time.Time) (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Date.After(date) {
			return s[i].Close, true
		}
	}
	return 0, false
}

// APIError represents an error from the market data API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// NotFoundError indicates the symbol is unknown to the market data source.
type NotFoundError struct {
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("market data not found for symbol %s", e.Symbol)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("market data rate limit exceeded, retry after %v", e.RetryAfter)
}

package models

import "time"

// PriceSource distinguishes real market history from prices back-computed
// out of the filing itself.
type PriceSource string

const (
	// PriceObserved is a closing price taken from market history.
	PriceObserved PriceSource = "observed"
	// PriceImplied is value*1000/shares, used only when a symbol has no
	// market history at all as of the lookup date. Implied prices are not
	// market data and must never displace an observed close.
	PriceImplied PriceSource = "implied"
)

// PriceQuote is the resolved price of a symbol as of a reporting date.
type PriceQuote struct {
	Symbol string      `json:"symbol"`
	Date   time.Time   `json:"date"`
	Price  float64     `json:"price"`
	Source PriceSource `json:"source"`
}

// Implied reports whether the quote was back-computed rather than observed.
func (q PriceQuote) Implied() bool {
	return q.Source == PriceImplied
}

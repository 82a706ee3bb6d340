package sim

import (
	"fmt"
	"sort"
)

// Portfolio is one instrument's trading account: cash, shares, and the
// pending order book. Order slice position is execution priority within a
// day. Cash can only go negative through the daily expense fee — order
// sizing always clamps to available cash.
type Portfolio struct {
	Cash         float64
	Shares       float64
	Orders       []*Order
	InitialValue float64
	History      []float64

	// Spread is the total bid/ask spread as a percentage (1 = 1%), fixed
	// for the portfolio's lifetime. ExpenseRatio is the annual management
	// fee percentage deducted daily.
	Spread       float64
	ExpenseRatio float64
}

// NewPortfolio creates a portfolio holding only cash.
func NewPortfolio(initialCash float64) *Portfolio {
	return &Portfolio{
		Cash:         initialCash,
		InitialValue: initialCash,
	}
}

// TotalValue returns the mark-to-market value of the portfolio at price.
func (p *Portfolio) TotalValue(price float64) float64 {
	return p.Cash + p.Shares*price
}

// Place appends an order to the pending book.
func (p *Portfolio) Place(o *Order) {
	p.Orders = append(p.Orders, o)
}

// Assignment describes how one instrument is traded inside a multi-fund
// portfolio: its strategy plus the fixed trading costs.
type Assignment struct {
	Strategy     Strategy
	Spread       float64
	ExpenseRatio float64
}

// MultiFund aggregates one sub-portfolio per traded instrument. The symbol
// set is fixed at construction and the initial cash is split evenly across
// instruments. History is the primary simulation output: one percent return
// versus InitialCash per simulated day.
type MultiFund struct {
	InitialCash float64
	Symbols     []string
	History     []float64

	subs       map[string]*Portfolio
	strategies map[string]Strategy
}

// NewMultiFund builds a multi-fund portfolio from per-symbol assignments.
// Symbols are ordered lexicographically so that per-day iteration is
// deterministic regardless of map construction order.
func NewMultiFund(assignments map[string]Assignment, initialCash float64) (*MultiFund, error) {
	if len(assignments) == 0 {
		return nil, fmt.Errorf("multi-fund portfolio needs at least one instrument")
	}

	symbols := make([]string, 0, len(assignments))
	for sym := range assignments {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	mf := &MultiFund{
		InitialCash: initialCash,
		Symbols:     symbols,
		subs:        make(map[string]*Portfolio, len(assignments)),
		strategies:  make(map[string]Strategy, len(assignments)),
	}

	subCash := initialCash / float64(len(symbols))
	for _, sym := range symbols {
		a := assignments[sym]
		pf := NewPortfolio(subCash)
		pf.Spread = a.Spread
		pf.ExpenseRatio = a.ExpenseRatio
		mf.subs[sym] = pf
		mf.strategies[sym] = a.Strategy
	}
	return mf, nil
}

// Sub returns the sub-portfolio for a symbol, or nil if the symbol is not
// part of this multi-fund.
func (mf *MultiFund) Sub(symbol string) *Portfolio {
	return mf.subs[symbol]
}

// TotalValue sums the mark-to-market value of all sub-portfolios at the
// given per-symbol prices.
func (mf *MultiFund) TotalValue(prices map[string]float64) float64 {
	tv := 0.0
	for sym, pf := range mf.subs {
		tv += pf.TotalValue(prices[sym])
	}
	return tv
}

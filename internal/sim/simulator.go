package sim

import (
	"fmt"
	"time"

	"marketsim/internal/series"
)

// Run drives the day-by-day simulation of a multi-fund portfolio over
// pre-aligned price series. Every series must share an identical date index
// (alignment is the caller's job; the sweep engine intersects and
// forward-fills before calling Run).
//
// For each day, per sub-portfolio: execute pending orders, invoke the
// assigned strategy, then deduct the daily expense fee
// value*(expense_ratio/100)/365. The fee is applied unconditionally, even
// when it drives cash negative. After all sub-portfolios update, the
// aggregate percent return versus the fund's initial cash is appended to
// the history.
//
// Returns the daily history and the date index used.
func Run(data map[string]series.Series, mf *MultiFund) ([]float64, []time.Time, error) {
	if len(mf.Symbols) == 0 {
		return nil, nil, fmt.Errorf("multi-fund portfolio has no instruments")
	}

	index := data[mf.Symbols[0]].Dates
	for _, sym := range mf.Symbols {
		s, ok := data[sym]
		if !ok {
			return nil, nil, fmt.Errorf("no price series for %s", sym)
		}
		if s.Len() != len(index) {
			return nil, nil, fmt.Errorf("price series for %s is not aligned: %d days, index has %d",
				sym, s.Len(), len(index))
		}
	}

	mf.History = mf.History[:0]
	prices := make(map[string]float64, len(mf.Symbols))

	for day, date := range index {
		for _, sym := range mf.Symbols {
			prices[sym] = data[sym].Closes[day]
		}

		for _, sym := range mf.Symbols {
			pf := mf.subs[sym]
			price := prices[sym]

			ExecuteOrders(price, pf, day)
			mf.strategies[sym].Evaluate(pf, date, price, day)

			fee := pf.TotalValue(price) * (pf.ExpenseRatio / 100.0) / 365.0
			pf.Cash -= fee
		}

		tv := mf.TotalValue(prices)
		pct := (tv - mf.InitialCash) / mf.InitialCash * 100.0
		mf.History = append(mf.History, pct)
	}

	return mf.History, index, nil
}

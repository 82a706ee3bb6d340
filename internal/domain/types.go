// Package domain defines the shared data types passed between the store,
// series, and simulation layers.
package domain

import "time"

// Bar is a single daily OHLCV observation for one symbol. Date is the
// trading day at midnight UTC; intraday resolution is not modelled.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Day truncates t to its trading-day identity (midnight UTC). All calendar
// arithmetic in the simulator operates on Day-normalised times so that two
// observations of the same date always compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

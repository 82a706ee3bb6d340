// Package sim implements the core backtest machinery: the order and
// portfolio model, the daily order-execution engine, and the multi-fund
// day-by-day simulation driver.
package sim

import "time"

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Kind is the order type.
type Kind string

const (
	Market       Kind = "market"
	Limit        Kind = "limit"
	Stop         Kind = "stop"
	TrailingStop Kind = "trailing_stop"
)

// Order is a standing instruction attached to one portfolio. The price field
// matching Kind must be set (LimitPrice for Limit, StopPrice for Stop,
// TrailPercent for TrailingStop); the others are ignored. A nil Quantity
// means "all available cash" for buys and "all held shares" for sells.
//
// Orders never partially fill across days: on the day their condition is met
// they execute in full (clamped to cash/shares) and are removed, otherwise
// they persist unchanged.
type Order struct {
	Side         Side
	Kind         Kind
	LimitPrice   float64
	StopPrice    float64
	TrailPercent float64
	Quantity     *float64

	// PlacementDay is the simulation-day index the order was created on.
	PlacementDay int

	// HighestPrice tracks the highest effective price seen since placement.
	// Used by trailing stops; zero until first evaluation (HighestSeen).
	HighestPrice float64
	HighestSeen  bool

	// LowestPrice mirrors HighestPrice for possible buy-side trailing
	// orders. Tracked but not consulted by any built-in kind today.
	LowestPrice float64
	LowestSeen  bool
}

// NewOrder creates an order stamped with its placement day.
func NewOrder(side Side, kind Kind, day int) *Order {
	return &Order{Side: side, Kind: kind, PlacementDay: day}
}

// Qty returns a pointer to v, for building orders with an explicit quantity.
func Qty(v float64) *float64 { return &v }

// Strategy is the per-day trading callback assigned to one sub-portfolio.
// Evaluate runs once per simulated day, strictly after that day's
// ExecuteOrders pass, so orders enqueued "today" are first evaluated
// "tomorrow". Implementations keep whatever working state they need as
// struct fields; a fresh value is constructed for every simulation run.
type Strategy interface {
	Name() string
	Evaluate(pf *Portfolio, date time.Time, price float64, day int)
}

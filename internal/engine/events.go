package engine

import "clobd/internal/common"

// Reporter receives observability callbacks out of the matching engine;
// it doesn't know or care whether the sink is a wire connection, a log,
// or both.
type Reporter interface {
	// OrderPlaced fires once per successful Place call, after any
	// immediate crossing has settled, carrying the order's final state.
	OrderPlaced(order *common.Order)
	// Filled fires once per match between a taker and a resting maker.
	Filled(taker, maker *common.Order, quantity common.Quantity, price common.Price)
}

type noopReporter struct{}

func (noopReporter) OrderPlaced(*common.Order)                                           {}
func (noopReporter) Filled(*common.Order, *common.Order, common.Quantity, common.Price) {}

package engine

import "clobd/internal/common"

// matchMarketBid sweeps the ask ladder best-first with no price ceiling
// until quantity is exhausted or liquidity runs out, then refunds
// whatever numeraire could not be spent. Unlike a limit BID, a market
// order never rests and never receives the dust-FILLED treatment — any
// nonzero residual is refunded and the order is PARTIAL.
func (b *Book) matchMarketBid(order *common.Order) error {
	residual := order.ResidualQuantity

	for residual > 0 {
		bestAsk, ok := b.asks.Best()
		if !ok {
			break
		}
		filled, _ := b.consumeAskLevel(common.Price(bestAsk), residual, order)
		if filled == 0 {
			break // dust or no progress possible; stop the sweep
		}
		residual -= filled
	}

	order.ResidualQuantity = residual
	if residual == 0 {
		order.Status = common.Filled
	} else {
		order.Status = common.Partial
		if err := b.driver.PushNumeraire(order.Trader, residual); err != nil {
			return err
		}
	}
	return nil
}

// matchMarketAsk mirrors matchMarketBid on the ask side: sweep the bid
// ladder best-first with no price floor, refunding unfilled index at
// the end.
func (b *Book) matchMarketAsk(order *common.Order) error {
	residual := order.ResidualQuantity

	for residual > 0 {
		bestBid, ok := b.bids.Best()
		if !ok {
			break
		}
		// consumeBidLevel only returns with residual unchanged once the
		// level's queue is fully drained (filled or dust-evicted), so
		// the ladder always advances even on a zero-progress call.
		residual = b.consumeBidLevel(common.Price(bestBid), residual, order)
	}

	order.ResidualQuantity = residual
	if residual == 0 {
		order.Status = common.Filled
	} else {
		order.Status = common.Partial
		if err := b.driver.PushIndex(order.Trader, residual); err != nil {
			return err
		}
	}
	return nil
}

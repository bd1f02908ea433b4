package engine

import "clobd/internal/common"

// matchLimitBid walks the ask ladder from its best price upward while it
// remains at or below the bid's limit, consuming resting asks in FIFO
// order at each level.
//
// Each ladder query (Best/Next) re-resolves its key against the tree
// rather than holding a cursor, so — per the design note in
// internal/ladder — removing an exhausted level mid-walk can never
// invalidate the next lookup; there is no cursor to invalidate.
func (b *Book) matchLimitBid(order *common.Order) error {
	limit, _ := order.LimitPrice()
	residual := order.ResidualQuantity

	for residual > 0 {
		bestAsk, ok := b.asks.Best()
		askPrice := common.Price(bestAsk)
		if !ok || askPrice > limit {
			break
		}

		filled, stop := b.consumeAskLevel(askPrice, residual, order)
		residual -= filled
		if stop {
			break
		}
	}

	order.ResidualQuantity = residual
	switch {
	case limit != 0 && uint64(residual)/uint64(limit) == 0:
		order.Status = common.Filled
	case residual < order.OriginalQuantity:
		order.Status = common.Partial
	default:
		order.Status = common.Open
	}

	if order.Status != common.Filled {
		lvl := b.levelFor(limit)
		lvl.Bids.Enqueue(uint64(order.ID))
		lvl.BidDepth += residual
		b.bids.Insert(uint64(limit))
	}
	return nil
}

// consumeAskLevel consumes as much of residual numeraire as possible
// against the resting asks at askPrice, returning the numeraire spent
// and whether the bid-side crossing loop must stop (a partial fill of
// the level's head — the taker cannot consume any more at this level
// once that happens).
func (b *Book) consumeAskLevel(askPrice common.Price, residual common.Quantity, taker *common.Order) (spent common.Quantity, stop bool) {
	lvl := b.levelFor(askPrice)
	maxIndexBuyable := residual / common.Quantity(askPrice)
	if maxIndexBuyable == 0 {
		return 0, true
	}

	var indexAccrued common.Quantity
	for maxIndexBuyable > 0 {
		headID, err := lvl.Asks.Peek()
		if err != nil {
			break // level exhausted
		}
		head, _ := b.reg.Get(common.OrderID(headID))
		if head.Status == common.Cancelled {
			lvl.Asks.Dequeue()
			continue
		}

		askResidual := head.ResidualQuantity
		if maxIndexBuyable >= askResidual {
			nSpent := askResidual * common.Quantity(askPrice)
			spent += nSpent
			maxIndexBuyable -= askResidual
			indexAccrued += askResidual
			lvl.AskDepth -= askResidual
			head.ResidualQuantity = 0
			head.Status = common.Filled
			_ = b.driver.PushNumeraire(head.Trader, nSpent)
			lvl.Asks.Dequeue()
			b.reporter.Filled(taker, head, askResidual, askPrice)
		} else {
			nSpent := maxIndexBuyable * common.Quantity(askPrice)
			spent += nSpent
			indexAccrued += maxIndexBuyable
			lvl.AskDepth -= maxIndexBuyable
			head.ResidualQuantity -= maxIndexBuyable
			head.Status = common.Partial
			_ = b.driver.PushNumeraire(head.Trader, nSpent)
			b.reporter.Filled(taker, head, maxIndexBuyable, askPrice)
			maxIndexBuyable = 0
			stop = true
		}
	}

	if indexAccrued > 0 {
		_ = b.driver.PushIndex(taker.Trader, indexAccrued)
	}
	if lvl.AskDepth == 0 {
		b.asks.Remove(uint64(askPrice))
	}
	b.dropLevelIfEmpty(askPrice)
	return spent, stop
}

// matchLimitAsk walks the bid ladder from its best price downward while
// it remains at or above the ask's limit. Unlike the BID side,
// settlement here credits both counterparties per fill rather than once
// per level, and the loop must additionally evict dust bids it cannot
// make progress against.
func (b *Book) matchLimitAsk(order *common.Order) error {
	limit, _ := order.LimitPrice()
	residual := order.ResidualQuantity

	for residual > 0 {
		bestBid, ok := b.bids.Best()
		bidPrice := common.Price(bestBid)
		if !ok || bidPrice < limit {
			break
		}
		residual = b.consumeBidLevel(bidPrice, residual, order)
	}

	order.ResidualQuantity = residual
	switch {
	case residual == 0:
		order.Status = common.Filled
	case residual < order.OriginalQuantity:
		order.Status = common.Partial
	default:
		order.Status = common.Open
	}

	if order.Status != common.Filled {
		lvl := b.levelFor(limit)
		lvl.Asks.Enqueue(uint64(order.ID))
		lvl.AskDepth += residual
		b.asks.Insert(uint64(limit))
	}
	return nil
}

// consumeBidLevel consumes as much of residual index as possible against
// the resting bids at bidPrice, returning the index still unfilled.
func (b *Book) consumeBidLevel(bidPrice common.Price, residual common.Quantity, taker *common.Order) common.Quantity {
	lvl := b.levelFor(bidPrice)

	for residual > 0 {
		headID, err := lvl.Bids.Peek()
		if err != nil {
			break // level exhausted
		}
		head, _ := b.reg.Get(common.OrderID(headID))
		if head.Status == common.Cancelled {
			lvl.Bids.Dequeue()
			continue
		}

		maxIndexSellable := head.ResidualQuantity / common.Quantity(bidPrice)
		if maxIndexSellable == 0 {
			// Dust bid: the ask-side taker can never make progress
			// against it. Evict, keeping its leftover residual (the
			// dust) out of book depth without refunding it, same as
			// the FILLED-with-dust rule at BID placement time.
			lvl.BidDepth -= head.ResidualQuantity
			head.Status = common.Filled
			lvl.Bids.Dequeue()
			continue
		}

		indexToFill := min(maxIndexSellable, residual)
		nReceived := indexToFill * common.Quantity(bidPrice)

		residual -= indexToFill
		head.ResidualQuantity -= nReceived
		lvl.BidDepth -= nReceived
		_ = b.driver.PushNumeraire(taker.Trader, nReceived)
		_ = b.driver.PushIndex(head.Trader, indexToFill)
		b.reporter.Filled(taker, head, indexToFill, bidPrice)

		if head.ResidualQuantity/common.Quantity(bidPrice) == 0 {
			if head.ResidualQuantity > 0 {
				lvl.BidDepth -= head.ResidualQuantity
			}
			head.Status = common.Filled
			lvl.Bids.Dequeue()
		} else {
			head.Status = common.Partial
		}
	}

	if lvl.BidDepth == 0 {
		b.bids.Remove(uint64(bidPrice))
	}
	b.dropLevelIfEmpty(bidPrice)
	return residual
}

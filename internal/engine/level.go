package engine

import (
	"clobd/internal/common"
	"clobd/internal/queue"
)

// Level is the aggregated state resting at one price: total open depth on
// each side, and the FIFO queue enforcing time priority among orders on
// that side. A single Level is shared by both sides at that price — a
// price can carry bids and asks simultaneously only in the instant
// before the crossing loop clears one of them, since best bid always
// stays below best ask once an operation completes.
type Level struct {
	Price    common.Price
	BidDepth common.Quantity
	AskDepth common.Quantity
	Bids     *queue.Queue
	Asks     *queue.Queue
}

func newLevel(price common.Price) *Level {
	return &Level{Price: price, Bids: queue.New(), Asks: queue.New()}
}

// Empty reports whether the level carries no depth on either side, in
// which case it must not be present in either ladder.
func (l *Level) Empty() bool {
	return l.BidDepth == 0 && l.AskDepth == 0
}

// Package engine is the matching engine and book: the ordered price
// ladders, the crossing algorithm for limit and market orders on both
// sides, cancellation, and the read-only introspection API. It holds
// the numeraire/index asymmetric-quantity matching core, built on the
// queue/ladder/registry/settlement packages.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"clobd/internal/common"
	"clobd/internal/ladder"
	"clobd/internal/registry"
	"clobd/internal/settlement"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidQuantity        = errors.New("engine: invalid quantity")
	ErrInvalidPrice           = errors.New("engine: invalid price")
	ErrInsufficientLiquidity  = errors.New("engine: insufficient liquidity")
	ErrUnauthorized           = errors.New("engine: unauthorized")
	ErrOrderFilled            = errors.New("engine: order already filled")
	ErrOrderCancelled         = errors.New("engine: order already cancelled")
	ErrMarketOrderUnsupported = errors.New("engine: market orders cannot be cancelled")
	ErrOrderNotFound          = errors.New("engine: order not found")
)

// PlaceRequest describes an incoming order. Price is ignored for Market
// kind.
type PlaceRequest struct {
	Kind     common.Kind
	Side     common.Side
	Price    common.Price
	Quantity common.Quantity
}

// Book is one trading pair's order book: two price ladders, the levels
// they index, the order registry, and the settlement driver that moves
// tokens for fills, custody, and refunds. All exported methods take
// Book's lock, a single-threaded-cooperative matching model — the lock
// is what lets a concurrent transport (internal/server) call in from
// multiple goroutines without the matching algorithm itself needing to
// be partition-aware.
type Book struct {
	mu sync.Mutex

	driver *settlement.Driver
	bids   *ladder.Ladder // descending: best bid first
	asks   *ladder.Ladder // ascending: best ask first
	levels map[common.Price]*Level
	reg    *registry.Registry

	reporter Reporter
	epoch    uint64
	log      zerolog.Logger
}

// New returns an empty book settling fills against ledger for the given
// numeraire/index asset pair.
func New(ledger settlement.Ledger, numeraire, index common.AssetID) *Book {
	return &Book{
		driver:   settlement.NewDriver(ledger, numeraire, index),
		bids:     ladder.NewDescending(),
		asks:     ladder.NewAscending(),
		levels:   make(map[common.Price]*Level),
		reg:      registry.New(),
		reporter: noopReporter{},
		log:      log.Logger,
	}
}

// SetReporter installs the observability sink; omitted calls keep the
// no-op default.
func (b *Book) SetReporter(r Reporter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reporter = r
}

func (b *Book) levelFor(price common.Price) *Level {
	lvl, ok := b.levels[price]
	if !ok {
		lvl = newLevel(price)
		b.levels[price] = lvl
	}
	return lvl
}

func (b *Book) dropLevelIfEmpty(price common.Price) {
	lvl, ok := b.levels[price]
	if ok && lvl.Empty() {
		delete(b.levels, price)
	}
}

// Place admits a new order, taking custody of the posted asset, crossing
// it against resting liquidity, and resting any non-terminal residual.
func (b *Book) Place(req PlaceRequest, trader string) (common.OrderID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if req.Quantity == 0 {
		return 0, ErrInvalidQuantity
	}
	if req.Kind == common.Limit && req.Price == 0 {
		return 0, ErrInvalidPrice
	}

	if req.Kind == common.Market {
		var empty bool
		if req.Side == common.Bid {
			_, ok := b.asks.Best()
			empty = !ok
		} else {
			_, ok := b.bids.Best()
			empty = !ok
		}
		if empty {
			return 0, ErrInsufficientLiquidity
		}
	}

	pullAmount := req.Quantity
	var custodyErr error
	if req.Side == common.Bid {
		custodyErr = b.driver.PullNumeraire(trader, pullAmount)
	} else {
		custodyErr = b.driver.PullIndex(trader, pullAmount)
	}
	if custodyErr != nil {
		b.log.Error().Err(custodyErr).Str("trader", trader).Msg("custody pull failed, order rejected")
		return 0, fmt.Errorf("engine: taking custody: %w", custodyErr)
	}

	b.epoch++
	order := &common.Order{
		Trader:           trader,
		Side:             req.Side,
		Kind:             req.Kind,
		OriginalQuantity: req.Quantity,
		ResidualQuantity: req.Quantity,
		Status:           common.Open,
		Epoch:            b.epoch,
	}
	if req.Kind == common.Limit {
		p := req.Price
		order.Price = &p
	}
	id := b.reg.Insert(order)

	var err error
	switch {
	case req.Kind == common.Limit && req.Side == common.Bid:
		err = b.matchLimitBid(order)
	case req.Kind == common.Limit && req.Side == common.Ask:
		err = b.matchLimitAsk(order)
	case req.Kind == common.Market && req.Side == common.Bid:
		err = b.matchMarketBid(order)
	default:
		err = b.matchMarketAsk(order)
	}
	if err != nil {
		return id, err
	}

	b.log.Debug().
		Uint64("id", uint64(id)).
		Str("trader", trader).
		Str("side", order.Side.String()).
		Str("status", order.Status.String()).
		Msg("order placed")
	b.reporter.OrderPlaced(order)

	return id, nil
}

// Cancel marks id CANCELLED, refunds its residual, and evicts it from
// its level's FIFO queue and depth. A second cancel of the same id
// returns ErrOrderCancelled.
func (b *Book) Cancel(id common.OrderID, caller string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.reg.Get(id)
	if !ok {
		return ErrOrderNotFound
	}
	if order.Trader != caller {
		return ErrUnauthorized
	}
	if order.Kind == common.Market {
		return ErrMarketOrderUnsupported
	}
	switch order.Status {
	case common.Filled:
		return ErrOrderFilled
	case common.Cancelled:
		return ErrOrderCancelled
	}

	residual := order.ResidualQuantity
	order.ResidualQuantity = 0
	order.Status = common.Cancelled

	price, _ := order.LimitPrice()
	lvl := b.levels[price]
	if order.Side == common.Bid {
		lvl.BidDepth -= residual
		lvl.Bids.Remove(uint64(id))
		if err := b.driver.PushNumeraire(order.Trader, residual); err != nil {
			return err
		}
		if lvl.BidDepth == 0 {
			b.bids.Remove(uint64(price))
		}
	} else {
		lvl.AskDepth -= residual
		lvl.Asks.Remove(uint64(id))
		if err := b.driver.PushIndex(order.Trader, residual); err != nil {
			return err
		}
		if lvl.AskDepth == 0 {
			b.asks.Remove(uint64(price))
		}
	}
	b.dropLevelIfEmpty(price)

	b.log.Debug().Uint64("id", uint64(id)).Str("trader", caller).Msg("order cancelled")
	return nil
}

// Depth returns the resting bid and ask depth at price.
func (b *Book) Depth(price common.Price) (bid, ask common.Quantity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.levels[price]
	if !ok {
		return 0, 0
	}
	return lvl.BidDepth, lvl.AskDepth
}

// BidsAt returns the order ids resting on the bid side of price, in
// FIFO order.
func (b *Book) BidsAt(price common.Price) []common.OrderID {
	return b.idsAt(price, common.Bid)
}

// AsksAt returns the order ids resting on the ask side of price, in
// FIFO order.
func (b *Book) AsksAt(price common.Price) []common.OrderID {
	return b.idsAt(price, common.Ask)
}

func (b *Book) idsAt(price common.Price, side common.Side) []common.OrderID {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.levels[price]
	if !ok {
		return nil
	}
	q := lvl.Bids
	if side == common.Ask {
		q = lvl.Asks
	}
	raw := q.ToList()
	out := make([]common.OrderID, len(raw))
	for i, id := range raw {
		out[i] = common.OrderID(id)
	}
	return out
}

// BestBid returns the highest resting bid price, if any.
func (b *Book) BestBid() (common.Price, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.bids.Best()
	return common.Price(p), ok
}

// BestAsk returns the lowest resting ask price, if any.
func (b *Book) BestAsk() (common.Price, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.asks.Best()
	return common.Price(p), ok
}

// AllBidPrices returns every price with resting bid depth, descending.
func (b *Book) AllBidPrices() []common.Price {
	return pricesOf(b.bids, &b.mu)
}

// AllAskPrices returns every price with resting ask depth, ascending.
func (b *Book) AllAskPrices() []common.Price {
	return pricesOf(b.asks, &b.mu)
}

func pricesOf(l *ladder.Ladder, mu *sync.Mutex) []common.Price {
	mu.Lock()
	defer mu.Unlock()
	raw := l.Prices()
	out := make([]common.Price, len(raw))
	for i, p := range raw {
		out[i] = common.Price(p)
	}
	return out
}

// GetOrder returns the registry record for id, including terminal
// (filled or cancelled) orders, which are retained for the engine's
// lifetime.
func (b *Book) GetOrder(id common.OrderID) (*common.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reg.Get(id)
}

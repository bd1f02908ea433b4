package common

import "fmt"

// Order is the engine's record of one placement. Price is nil for market
// orders: a market order carries no meaningful limit price, so rather
// than reuse an in-band sentinel the field is simply absent.
type Order struct {
	ID               OrderID
	Epoch            uint64 // monotonic placement stamp, observability only
	Trader           string
	Side             Side
	Kind             Kind
	Price            *Price // nil for MARKET orders
	OriginalQuantity Quantity
	ResidualQuantity Quantity
	Status           Status
}

// LimitPrice returns the order's price and whether it has one (false for
// market orders).
func (o *Order) LimitPrice() (Price, bool) {
	if o.Price == nil {
		return 0, false
	}
	return *o.Price, true
}

func (o *Order) String() string {
	price := "none"
	if o.Price != nil {
		price = fmt.Sprintf("%d", *o.Price)
	}
	return fmt.Sprintf(
		"Order{id=%d trader=%s side=%s kind=%s price=%s qty=%d/%d status=%s epoch=%d}",
		o.ID, o.Trader, o.Side, o.Kind, price, o.ResidualQuantity, o.OriginalQuantity, o.Status, o.Epoch,
	)
}

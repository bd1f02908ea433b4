// Package registry is the order-id authority: it assigns monotonic ids
// and retains every order record for the engine's lifetime, including
// filled and cancelled ones, so that introspection queries and cancel's
// authorization check never need to consult the ladder or queues.
package registry

import "clobd/internal/common"

// Registry maps order ids to their records and to the trader that owns
// them. The trader map is redundant with Order.Trader but is kept so
// authorization checks don't need to load the full record.
type Registry struct {
	nextID  uint64
	orders  map[common.OrderID]*common.Order
	traders map[common.OrderID]string
}

// New returns an empty registry. The first id it assigns is 1; 0 is
// never issued.
func New() *Registry {
	return &Registry{
		nextID:  1,
		orders:  make(map[common.OrderID]*common.Order),
		traders: make(map[common.OrderID]string),
	}
}

// Insert assigns the next id to order, stores it, and returns the
// assigned id. The caller must not have set order.ID beforehand; it is
// overwritten.
func (r *Registry) Insert(order *common.Order) common.OrderID {
	id := common.OrderID(r.nextID)
	r.nextID++
	order.ID = id
	r.orders[id] = order
	r.traders[id] = order.Trader
	return id
}

// Get returns the order record for id, if any.
func (r *Registry) Get(id common.OrderID) (*common.Order, bool) {
	o, ok := r.orders[id]
	return o, ok
}

// TraderOf returns the trader that placed id, if any. This never needs
// the full order record.
func (r *Registry) TraderOf(id common.OrderID) (string, bool) {
	t, ok := r.traders[id]
	return t, ok
}

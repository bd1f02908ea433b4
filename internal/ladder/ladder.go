// Package ladder is the ordered price structure behind each side of the
// book. It wraps github.com/tidwall/btree, using a direction-specific
// comparator per instance instead of negating bid keys to reuse a single
// ascending tree.
package ladder

import "github.com/tidwall/btree"

// Ladder is an ordered set of prices with O(log N) membership,
// min/max, and "next in this ladder's own traversal order" queries.
type Ladder struct {
	tree *btree.BTreeG[uint64]
}

// NewAscending returns a ladder that iterates from its lowest price
// upward — the shape needed for the ask side.
func NewAscending() *Ladder {
	return &Ladder{tree: btree.NewBTreeG(func(a, b uint64) bool { return a < b })}
}

// NewDescending returns a ladder that iterates from its highest price
// downward — the shape needed for the bid side.
func NewDescending() *Ladder {
	return &Ladder{tree: btree.NewBTreeG(func(a, b uint64) bool { return a > b })}
}

// Insert adds price to the ladder. It is a no-op if already present.
func (l *Ladder) Insert(price uint64) {
	l.tree.Set(price)
}

// Remove drops price from the ladder. It is a no-op if absent.
func (l *Ladder) Remove(price uint64) {
	l.tree.Delete(price)
}

// Contains reports whether price is currently in the ladder.
func (l *Ladder) Contains(price uint64) bool {
	_, ok := l.tree.Get(price)
	return ok
}

// Best returns the first price in this ladder's traversal order — the
// max price for a descending (bid) ladder, the min for an ascending
// (ask) one — and false if the ladder is empty.
func (l *Ladder) Best() (uint64, bool) {
	return l.tree.Min()
}

// Next returns the price immediately after `price` in this ladder's own
// traversal order, or false if there is none. `price` need not be in the
// ladder, so Next may be called before or after `price` is removed: it
// re-queries "next of" by key rather than holding a cursor into the tree,
// which sidesteps any pointer invalidation the underlying structure's
// mutation might cause.
func (l *Ladder) Next(price uint64) (uint64, bool) {
	var next uint64
	found := false
	l.tree.Ascend(price, func(item uint64) bool {
		if item == price {
			return true // keep walking past the pivot itself
		}
		next = item
		found = true
		return false
	})
	return next, found
}

// Len returns the number of distinct prices currently in the ladder.
func (l *Ladder) Len() int {
	return l.tree.Len()
}

// Prices returns every price in the ladder, in its traversal order.
func (l *Ladder) Prices() []uint64 {
	out := make([]uint64, 0, l.tree.Len())
	l.tree.Scan(func(item uint64) bool {
		out = append(out, item)
		return true
	})
	return out
}

package registry

import (
	"testing"

	"clobd/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	r := New()
	o1 := &common.Order{Trader: "alice"}
	o2 := &common.Order{Trader: "bob"}

	id1 := r.Insert(o1)
	id2 := r.Insert(o2)

	assert.Equal(t, common.OrderID(1), id1)
	assert.Equal(t, common.OrderID(2), id2)
	assert.Equal(t, id1, o1.ID)
}

func TestGetAndTraderOf(t *testing.T) {
	r := New()
	o := &common.Order{Trader: "carol"}
	id := r.Insert(o)

	got, ok := r.Get(id)
	assert.True(t, ok)
	assert.Same(t, o, got)

	trader, ok := r.TraderOf(id)
	assert.True(t, ok)
	assert.Equal(t, "carol", trader)

	_, ok = r.Get(common.OrderID(999))
	assert.False(t, ok)
}

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	q := New()
	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	assert.Equal(t, 3, q.Size())
	id, err := q.Peek()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	for _, want := range []uint64{1, 2, 3} {
		got, err := q.Dequeue()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.True(t, q.IsEmpty())
}

func TestEmptyQueueErrors(t *testing.T) {
	q := New()
	_, err := q.Peek()
	assert.ErrorIs(t, err, ErrEmptyQueue)
	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestRemoveArbitraryPosition(t *testing.T) {
	q := New()
	q.Enqueue(10)
	q.Enqueue(20)
	q.Enqueue(30)

	assert.True(t, q.Remove(20))
	assert.False(t, q.Remove(20)) // already removed
	assert.Equal(t, []uint64{10, 30}, q.ToList())

	// Removing the head still leaves FIFO order intact.
	assert.True(t, q.Remove(10))
	id, err := q.Peek()
	assert.NoError(t, err)
	assert.Equal(t, uint64(30), id)
}

func TestRemoveTailUpdatesTail(t *testing.T) {
	q := New()
	q.Enqueue(1)
	q.Enqueue(2)
	assert.True(t, q.Remove(2))
	q.Enqueue(3)
	assert.Equal(t, []uint64{1, 3}, q.ToList())
}

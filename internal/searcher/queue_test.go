package searcher

import (
	"math/rand"
	"testing"

	"github.com/hupe1980/ngtgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue(t *testing.T) {
	t.Run("MinHeap", func(t *testing.T) {
		pq := NewPriorityQueue(false)
		pq.PushItem(PriorityQueueItem{Node: 1, Distance: 10})
		pq.PushItem(PriorityQueueItem{Node: 2, Distance: 5})
		pq.PushItem(PriorityQueueItem{Node: 3, Distance: 20})
		require.Equal(t, 3, pq.Len())

		top, ok := pq.TopItem()
		require.True(t, ok)
		assert.Equal(t, float32(5), top.Distance)

		var order []float32
		for pq.Len() > 0 {
			item, _ := pq.PopItem()
			order = append(order, item.Distance)
		}
		assert.Equal(t, []float32{5, 10, 20}, order)

		_, ok = pq.PopItem()
		assert.False(t, ok)
	})

	t.Run("MaxHeap", func(t *testing.T) {
		pq := NewPriorityQueue(true)
		pq.PushItem(PriorityQueueItem{Node: 1, Distance: 10})
		pq.PushItem(PriorityQueueItem{Node: 2, Distance: 5})
		pq.PushItem(PriorityQueueItem{Node: 3, Distance: 20})

		top, ok := pq.TopItem()
		require.True(t, ok)
		assert.Equal(t, model.ObjectID(3), top.Node)
	})

	t.Run("TiesByID", func(t *testing.T) {
		pq := NewPriorityQueue(false)
		pq.PushItem(PriorityQueueItem{Node: 9, Distance: 1})
		pq.PushItem(PriorityQueueItem{Node: 4, Distance: 1})
		pq.PushItem(PriorityQueueItem{Node: 7, Distance: 1})

		var ids []model.ObjectID
		for _, item := range pq.Drain(nil) {
			ids = append(ids, item.Node)
		}
		assert.Equal(t, []model.ObjectID{4, 7, 9}, ids)
	})
}

func TestPushItemBounded(t *testing.T) {
	pq := NewPriorityQueue(true)
	r := rand.New(rand.NewSource(1))

	for i := 1; i <= 200; i++ {
		pq.PushItemBounded(PriorityQueueItem{Node: model.ObjectID(i), Distance: r.Float32()}, 10)
	}
	require.Equal(t, 10, pq.Len())

	drained := pq.Drain(nil)
	for i := 1; i < len(drained); i++ {
		assert.GreaterOrEqual(t, drained[i-1].Distance, drained[i].Distance)
	}

	t.Run("EqualDistanceKeepsSmallerID", func(t *testing.T) {
		pq := NewPriorityQueue(true)
		pq.PushItemBounded(PriorityQueueItem{Node: 5, Distance: 1}, 1)
		assert.True(t, pq.PushItemBounded(PriorityQueueItem{Node: 2, Distance: 1}, 1))
		assert.False(t, pq.PushItemBounded(PriorityQueueItem{Node: 8, Distance: 1}, 1))

		top, _ := pq.TopItem()
		assert.Equal(t, model.ObjectID(2), top.Node)
	})

	t.Run("ZeroCapacity", func(t *testing.T) {
		pq := NewPriorityQueue(true)
		assert.False(t, pq.PushItemBounded(PriorityQueueItem{Node: 1}, 0))
		assert.Equal(t, 0, pq.Len())
	})
}

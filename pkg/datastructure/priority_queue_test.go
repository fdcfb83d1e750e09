package datastructure

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func generateRandomInteger(min int, max int) int {

	return min + rand.Intn(max-min)
}

func TestPriorityQueue(t *testing.T) {
	pq := NewMinHeap[string]()
	if pq == nil {
		t.Errorf("PriorityQueue is nil")
	}

	for i := 0; i < 10000; i++ {
		item := PriorityQueueNode[string]{Rank: float64(generateRandomInteger(0, 10000)), Item: fmt.Sprintf("item-%d", i)}
		pq.Insert(item)
	}

	prevItem, err := pq.ExtractMin()
	assert.Nil(t, err)

	for i := 1; i < 10000; i++ {
		item, err := pq.ExtractMin()
		assert.Nil(t, err)

		if prevItem.Rank > item.Rank {
			t.Errorf("PriorityQueue is not sorted")
		}
		prevItem = item
	}

	_, err = pq.ExtractMin()
	assert.Equal(t, ErrEmptyHeap, err)
}

func TestPriorityQueueDecreaseKey(t *testing.T) {
	pq := NewMinHeap[string]()
	pq.Insert(PriorityQueueNode[string]{Rank: 10, Item: "a"})
	pq.Insert(PriorityQueueNode[string]{Rank: 20, Item: "b"})
	pq.Insert(PriorityQueueNode[string]{Rank: 30, Item: "c"})

	err := pq.DecreaseKey(PriorityQueueNode[string]{Rank: 5, Item: "c"})
	assert.Nil(t, err)

	min, err := pq.GetMin()
	assert.Nil(t, err)
	assert.Equal(t, "c", min.Item)
	assert.Equal(t, 5.0, min.Rank)

	err = pq.DecreaseKey(PriorityQueueNode[string]{Rank: 100, Item: "a"})
	assert.Equal(t, ErrRankNotSmaller, err)

	err = pq.DecreaseKey(PriorityQueueNode[string]{Rank: 1, Item: "missing"})
	assert.Equal(t, ErrItemNotFoundPq, err)

	assert.True(t, pq.Contains("a"))
	extracted, _ := pq.ExtractMin()
	assert.Equal(t, "c", extracted.Item)
	assert.False(t, pq.Contains("c"))
	assert.Equal(t, 2, pq.Size())
}

package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub(t *testing.T) {
	var h Hub[int]
	var a, b []int
	cancelA := h.Subscribe(func(v int) { a = append(a, v) })
	h.Subscribe(func(v int) { b = append(b, v) })
	assert.Equal(t, 2, h.Len())

	h.Publish(1)
	cancelA()
	cancelA()
	h.Publish(2)
	assert.Equal(t, []int{1}, a)
	assert.Equal(t, []int{1, 2}, b)

	h.Reset()
	h.Publish(3)
	assert.Equal(t, []int{1, 2}, b)
	assert.Zero(t, h.Len())
}

func TestSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	var h Hub[string]
	var cancel func()
	calls := 0
	cancel = h.Subscribe(func(string) {
		calls++
		cancel()
	})
	h.Publish("x")
	h.Publish("y")
	assert.Equal(t, 1, calls)
}

func TestPublishFromCallbackIsQueuedInOrder(t *testing.T) {
	var h Hub[int]
	var seen []int
	depth, maxDepth := 0, 0
	h.Subscribe(func(v int) {
		depth++
		maxDepth = max(maxDepth, depth)
		seen = append(seen, v)
		if v == 1 {
			h.Publish(2)
			h.Publish(3)
		}
		depth--
	})
	h.Publish(1)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 1, maxDepth)
}

func TestEnqueueOrderIsDeliveryOrder(t *testing.T) {
	var h Hub[int]
	var seen []int
	h.Subscribe(func(v int) { seen = append(seen, v) })
	h.Enqueue(1)
	h.Enqueue(2)
	assert.Empty(t, seen)
	h.Drain()
	h.Drain()
	assert.Equal(t, []int{1, 2}, seen)
}

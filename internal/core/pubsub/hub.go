package pubsub

import "sync"

// Hub 同步广播，按入队顺序投递；回调不持锁。
// 已有 goroutine 在投递时，新值只入队，由它按顺序送出（回调里再 Publish 也不会嵌套）
type Hub[T any] struct {
	mu       sync.Mutex
	subs     map[int]func(T)
	nextID   int
	queue    []T
	draining bool
}

func (h *Hub[T]) Subscribe(fn func(T)) (cancel func()) {
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[int]func(T))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *Hub[T]) Publish(v T) {
	h.Enqueue(v)
	h.Drain()
}

// Enqueue 只排队不回调；调用方可以在自己的锁内调用，以锁的顺序定投递顺序
func (h *Hub[T]) Enqueue(v T) {
	h.mu.Lock()
	h.queue = append(h.queue, v)
	h.mu.Unlock()
}

// Drain 送出队列里的值；别的 goroutine 正在送时直接返回
func (h *Hub[T]) Drain() {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		return
	}
	h.draining = true
	for len(h.queue) > 0 {
		v := h.queue[0]
		var zero T
		h.queue[0] = zero
		h.queue = h.queue[1:]
		fns := make([]func(T), 0, len(h.subs))
		for _, fn := range h.subs {
			fns = append(fns, fn)
		}
		h.mu.Unlock()
		for _, fn := range fns {
			fn(v)
		}
		h.mu.Lock()
	}
	h.queue = nil
	h.draining = false
	h.mu.Unlock()
}

func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Reset 丢弃全部订阅者
func (h *Hub[T]) Reset() {
	h.mu.Lock()
	h.subs = nil
	h.mu.Unlock()
}

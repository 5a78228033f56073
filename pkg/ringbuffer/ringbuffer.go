// Package ringbuffer provides a fixed-capacity, append-only buffer that
// silently drops its oldest element on overflow.
package ringbuffer

import "sync"

// RingBuffer holds at most Cap() items in insertion order.
// It is safe for concurrent use.
type RingBuffer[T any] struct {
	mu    sync.Mutex
	items []T
	head  int // index of the oldest item
	count int
}

// New creates a ring buffer with the given capacity.
// A capacity below 1 is clamped to 1.
func New[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{
		items: make([]T, capacity),
	}
}

// Push appends item, evicting the oldest item once the buffer is full.
func (b *RingBuffer[T]) Push(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.items)
	if b.count < capacity {
		b.items[(b.head+b.count)%capacity] = item
		b.count++
		return
	}

	// Full: overwrite the oldest slot and advance head
	b.items[b.head] = item
	b.head = (b.head + 1) % capacity
}

// ToList returns a copy of the current items, oldest first.
func (b *RingBuffer[T]) ToList() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Last returns the most recently pushed item.
func (b *RingBuffer[T]) Last() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	if b.count == 0 {
		return zero, false
	}
	return b.items[(b.head+b.count-1)%len(b.items)], true
}

// Len returns the number of items currently held.
func (b *RingBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the fixed capacity.
func (b *RingBuffer[T]) Cap() int {
	return len(b.items)
}

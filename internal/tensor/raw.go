package tensor

import (
	"sync"
	"sync/atomic"
)

// buffer is a reference-counted backing store. Several tensors may hold the
// same buffer after ShareData; the allocation is dropped once the last
// holder releases it.
type buffer[T DType] struct {
	data     []T
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newBuffer creates a new zeroed buffer with refCount = 1.
func newBuffer[T DType](size int) *buffer[T] {
	buf := &buffer[T]{
		data: make([]T, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for ShareData).
func (b *buffer[T]) addRef() {
	b.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (b *buffer[T]) release() {
	if b.refCount.Add(-1) == 0 {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.data = nil
	}
}

// refs returns the current number of holders.
func (b *buffer[T]) refs() int {
	return int(b.refCount.Load())
}

// capacity returns how many elements fit without reallocation.
func (b *buffer[T]) capacity() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

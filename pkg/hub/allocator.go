package hub

import (
	"errors"
	"fmt"
	"sync"
)

// Allocator errors.
var (
	// ErrOutOfMemory indicates the allocation would exceed the heap limit.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidSize indicates a non-positive allocation size.
	ErrInvalidSize = errors.New("invalid allocation size")
)

// DefaultHeapLimit is the default HeapAllocator budget (16 KB).
const DefaultHeapLimit = 16 * 1024

// HeapAllocator is a bounded Allocator modelling the hub heap. It is safe
// for concurrent use since transports release buffers from their own
// goroutines.
type HeapAllocator struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewHeapAllocator creates an allocator with the given byte budget.
// A non-positive limit selects DefaultHeapLimit.
func NewHeapAllocator(limit int) *HeapAllocator {
	if limit <= 0 {
		limit = DefaultHeapLimit
	}
	return &HeapAllocator{limit: limit}
}

// Alloc returns a zeroed buffer of exactly size bytes.
func (a *HeapAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.used+size > a.limit {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, a.used, a.limit)
	}
	a.used += size
	return make([]byte, size), nil
}

// Free returns buf to the budget.
func (a *HeapAllocator) Free(buf []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.used -= len(buf)
	if a.used < 0 {
		a.used = 0
	}
}

// InUse returns the number of bytes currently allocated.
func (a *HeapAllocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Limit returns the allocator's byte budget.
func (a *HeapAllocator) Limit() int {
	return a.limit
}

// Compile-time interface satisfaction check.
var _ Allocator = (*HeapAllocator)(nil)

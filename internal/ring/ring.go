// Package ring implements the fixed-capacity slot engine behind the handoff queue.
//
// Buffer is deliberately unconditional: Write and Read never check for room or
// for a live element. The queue layer establishes legality through the live
// count before calling them. What Buffer does enforce are its invariants: a
// slot is never overwritten while live, never read while empty, and the live
// count never leaves [0, capacity]. Breaking any of these is a synchronization
// bug in the caller and panics.
//
// Ownership of the cursors:
//   - head is touched only by the (serialized) producer side
//   - tail is touched only by the (serialized) consumer side
//   - count is the single cross-goroutine publication point
package ring

import (
	"fmt"
	"math/bits"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/randomizedcoder/handoff/internal/errs"
)

// maxStorageBytes caps a single slot array.
const maxStorageBytes = 1 << 40

// slot holds one element and whether it is live (written and not yet read).
type slot[T any] struct {
	val  T
	live bool
}

// Buffer is a power-of-two circular array of slots with a shared live count.
type Buffer[T any] struct {
	_     cpu.CacheLinePad
	count atomic.Int64 // Written by both sides; publishes slot contents

	_    cpu.CacheLinePad
	head uint64 // Producer side only

	_    cpu.CacheLinePad
	tail uint64 // Consumer side only

	_     cpu.CacheLinePad
	mask  uint64
	size  int64
	slots []slot[T]
}

// New allocates a Buffer with exactly capacity slots.
//
// capacity must be a power of two and at least 1; it is never rounded.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 || bits.OnesCount(uint(capacity)) != 1 {
		return nil, errs.WrapInvalid(errs.ErrInvalidCapacity, "ring", "New",
			fmt.Sprintf("capacity %d is not a positive power of two", capacity))
	}

	var zero T
	if unsafe.Sizeof(zero) == 0 {
		return nil, errs.WrapInvalid(errs.ErrUnsupportedElementType, "ring", "New",
			fmt.Sprintf("element type %T has zero size", zero))
	}

	slots, err := allocate[T](capacity)
	if err != nil {
		return nil, err
	}

	return &Buffer[T]{
		mask:  uint64(capacity - 1),
		size:  int64(capacity),
		slots: slots,
	}, nil
}

func allocate[T any](capacity int) (slots []slot[T], err error) {
	per := uint64(unsafe.Sizeof(slot[T]{}))
	if uint64(capacity) > maxStorageBytes/per {
		return nil, errs.WrapFatal(errs.ErrAllocationFailure, "ring", "New",
			fmt.Sprintf("%d slots of %d bytes exceed storage limit", capacity, per))
	}

	// makeslice reports an impossible length as a runtime panic.
	defer func() {
		if r := recover(); r != nil {
			slots = nil
			err = errs.WrapFatal(errs.ErrAllocationFailure, "ring", "New", fmt.Sprint(r))
		}
	}()

	return make([]slot[T], capacity), nil
}

// Write stores v at head and advances head.
//
// The caller must have established count < capacity.
func (b *Buffer[T]) Write(v T) {
	s := &b.slots[b.head]
	if s.live {
		panic(fmt.Sprintf("ring: write would overwrite live slot %d", b.head))
	}
	s.val = v
	s.live = true
	b.head = (b.head + 1) & b.mask
}

// Read removes and returns the value at tail and advances tail.
//
// The caller must have established count > 0.
func (b *Buffer[T]) Read() T {
	var zero T
	s := &b.slots[b.tail]
	if !s.live {
		panic(fmt.Sprintf("ring: read of empty slot %d", b.tail))
	}
	v := s.val
	s.val = zero // Clear for GC
	s.live = false
	b.tail = (b.tail + 1) & b.mask
	return v
}

// Add applies delta to the live count and returns the new count.
func (b *Buffer[T]) Add(delta int64) int64 {
	n := b.count.Add(delta)
	if n < 0 || n > b.size {
		panic(fmt.Sprintf("ring: live count %d outside [0, %d]", n, b.size))
	}
	return n
}

// Count returns the number of live elements.
func (b *Buffer[T]) Count() int64 {
	return b.count.Load()
}

// Cap returns the fixed number of slots.
func (b *Buffer[T]) Cap() int64 {
	return b.size
}

// Full reports whether every slot is live.
func (b *Buffer[T]) Full() bool {
	return b.count.Load() == b.size
}

// Empty reports whether no slot is live.
func (b *Buffer[T]) Empty() bool {
	return b.count.Load() == 0
}

// Drain reads every live element in FIFO order, passing each to fn, and
// returns how many were drained. fn may be nil.
//
// Not safe to call concurrently with Write or Read.
func (b *Buffer[T]) Drain(fn func(T)) int {
	n := 0
	for b.count.Load() > 0 {
		v := b.Read()
		b.Add(-1)
		n++
		if fn != nil {
			fn(v)
		}
	}
	return n
}

// Release drops the slot storage. The Buffer must not be used afterwards.
func (b *Buffer[T]) Release() {
	b.slots = nil
}

// Released reports whether Release has been called.
func (b *Buffer[T]) Released() bool {
	return b.slots == nil
}

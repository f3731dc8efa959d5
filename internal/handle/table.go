// Package handle maps opaque integer handles to Go-owned values.
//
// Foreign callers only ever see the handle; the value stays reachable from the table until it is
// closed, and a handle can be closed at most once.
package handle

import "sync"

// Handle is an opaque, non-zero reference into a Table. Zero is never issued.
type Handle uintptr

// Table owns values between Open and Close.
type Table[T any] struct {
	mu    sync.Mutex
	next  Handle
	slots map[Handle]*T
}

// Open takes ownership of v and returns its handle.
func (t *Table[T]) Open(v *T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slots == nil {
		t.slots = make(map[Handle]*T)
	}
	// Handles are never reused, so a stale handle cannot alias a newer value.
	t.next++
	if t.next == 0 {
		t.next++
	}
	h := t.next
	t.slots[h] = v
	return h
}

// Get returns the value behind h without transferring ownership.
func (t *Table[T]) Get(h Handle) (*T, bool) {
	if h == 0 {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.slots[h]
	return v, ok
}

// Close releases h and hands the value back. Unknown or already closed handles report false.
func (t *Table[T]) Close(h Handle) (*T, bool) {
	if h == 0 {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.slots[h]
	if !ok {
		return nil, false
	}
	delete(t.slots, h)
	return v, true
}

// Len reports the number of open handles.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

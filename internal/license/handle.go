package license

import (
	"context"
	"sync/atomic"
)

// Handle is a counted reference to a shared Store. Clones point at the same
// store; nothing reachable through a Handle can modify it.
type Handle struct {
	store    *Store
	refs     *atomic.Int64
	released atomic.Bool
}

// Share wraps s in its first Handle.
func Share(s *Store) *Handle {
	h := &Handle{store: s, refs: new(atomic.Int64)}
	h.refs.Store(1)
	return h
}

// Clone returns a new reference to the same store.
func (h *Handle) Clone() *Handle {
	h.refs.Add(1)
	return &Handle{store: h.store, refs: h.refs}
}

// Release drops this reference. Calling it more than once is a no-op.
func (h *Handle) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.refs.Add(-1)
	}
}

// Refs is the number of live references to the store.
func (h *Handle) Refs() int64 { return h.refs.Load() }

func (h *Handle) Len() int { return h.store.Len() }

func (h *Handle) Identify(ctx context.Context, td *TextData) (Match, error) {
	return h.store.Identify(ctx, td)
}

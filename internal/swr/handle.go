package swr

import (
	"context"
	"sync"
)

// Handle is one observer of a key, such as a page showing a list. Its key is
// derived from the observer's own state (page, search, filter); changing the
// key fetches the new one. Closing the handle cancels its context so that
// responses arriving afterwards are not applied.
type Handle struct {
	f      *Fetcher
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	key    string
	closed bool
}

// Use starts observing key and fetches it. An empty key observes nothing
// until SetKey is called.
func (f *Fetcher) Use(ctx context.Context, key string) *Handle {
	hctx, cancel := context.WithCancel(ctx)
	h := &Handle{f: f, ctx: hctx, cancel: cancel, key: key}
	f.start(hctx, key)
	return h
}

// Key returns the observed key.
func (h *Handle) Key() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key
}

// SetKey switches to key, fetching it if it differs from the current one.
func (h *Handle) SetKey(key string) {
	h.mu.Lock()
	if h.closed || key == h.key {
		h.mu.Unlock()
		return
	}
	h.key = key
	h.mu.Unlock()

	h.f.start(h.ctx, key)
}

// State returns the state of the observed key.
func (h *Handle) State() State {
	return h.f.State(h.Key())
}

// Revalidate re-fetches the observed key.
func (h *Handle) Revalidate() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	key := h.key
	h.mu.Unlock()

	h.f.start(h.ctx, key)
}

// Wait blocks until the observed key settles.
func (h *Handle) Wait(ctx context.Context) (State, error) {
	return h.f.Wait(ctx, h.Key())
}

// Changes streams the state of the observed key each time it changes. The
// channel is closed when the handle is closed.
func (h *Handle) Changes() <-chan State {
	in := h.f.Subscribe()
	out := make(chan State, 1)
	go func() {
		defer close(out)
		defer h.f.Unsubscribe(in)
		for {
			select {
			case <-h.ctx.Done():
				return
			case c, ok := <-in:
				if !ok {
					return
				}
				if c.Key != h.Key() {
					continue
				}
				// Keep only the latest state for a slow reader.
				select {
				case <-out:
				default:
				}
				out <- c.State
			}
		}
	}()
	return out
}

// Close stops observing. In-flight responses for this handle are dropped.
func (h *Handle) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
}

// Package swr implements the resource fetcher: a stale-while-revalidate cache
// keyed by fetch key (API path plus query string).
//
// Each key holds a State. A fetch marks the key loading while keeping the
// last resolved data visible. Requests for a key are stamped with a
// per-key sequence number and only the most recently issued live one may
// commit, so a slow stale response never overwrites fresher data. A request
// whose observer went away is withdrawn and the newest remaining request
// takes its place. Failures are recorded in State.Err; the fetcher never
// returns them to the caller.
package swr

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/waynex/admin/internal/events"
	"github.com/waynex/admin/internal/logging"
	"github.com/waynex/admin/internal/metrics"
)

// DefaultTTL is how long an idle key stays cached.
const DefaultTTL = 10 * time.Minute

// ErrNoData is returned by Decode when the state holds no data yet.
var ErrNoData = errors.New("no data")

// Getter performs the authenticated read for a key. *client.Client
// satisfies it.
type Getter interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
}

// State is the fetch state of one key.
type State struct {
	Data      json.RawMessage
	IsLoading bool
	Err       error
	UpdatedAt time.Time // time of the last successful fetch
}

// HasData reports whether a response has been resolved for the key.
func (s State) HasData() bool {
	return s.Data != nil
}

// Change is published whenever the state of a key changes.
type Change struct {
	Key   string
	State State
}

type entry struct {
	state    State
	seq      uint64              // latest issued request
	inflight map[uint64]*request // issued, not yet committed or dropped
	settled  chan struct{}       // closed when no live request remains
}

// request is one issued fetch. A finished request is held until every newer
// live request has finished or been withdrawn.
type request struct {
	ctx  context.Context
	done bool
	data json.RawMessage
	err  error
}

// live reports whether the request may still commit.
func (r *request) live() bool {
	return r.done || r.ctx.Err() == nil
}

// Options configures a Fetcher.
type Options struct {
	TTL time.Duration
}

// Fetcher owns the fetch state of every key.
type Fetcher struct {
	getter Getter

	mu      sync.Mutex
	entries *cache.Cache // key -> *entry

	events *events.Broadcaster[Change]
	wg     sync.WaitGroup
}

// New creates a fetcher reading through getter.
func New(getter Getter, opts Options) *Fetcher {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Fetcher{
		getter: getter,
		// No janitor: expired keys are purged whenever a lookup misses.
		entries: cache.New(opts.TTL, 0),
		events:  events.NewBroadcaster[Change](),
	}
}

// lookupLocked returns the entry for key and refreshes its idle timer.
// Must be called with f.mu held.
func (f *Fetcher) lookupLocked(key string, create bool) *entry {
	if v, ok := f.entries.Get(key); ok {
		e := v.(*entry)
		f.entries.SetDefault(key, e)
		return e
	}
	f.purgeLocked()
	if !create {
		return nil
	}

	e := &entry{
		inflight: make(map[uint64]*request),
		settled:  make(chan struct{}),
	}
	close(e.settled)
	f.entries.SetDefault(key, e)
	metrics.SetCacheEntries(f.entries.ItemCount())
	return e
}

// purgeLocked drops expired keys and updates the cache gauge. Must be called
// with f.mu held.
func (f *Fetcher) purgeLocked() {
	f.entries.DeleteExpired()
	metrics.SetCacheEntries(f.entries.ItemCount())
}

// start issues a request for key on behalf of ctx. An empty key is skipped.
func (f *Fetcher) start(ctx context.Context, key string) {
	if key == "" {
		return
	}

	f.mu.Lock()
	e := f.lookupLocked(key, true)
	e.seq++
	seq := e.seq
	e.inflight[seq] = &request{ctx: ctx}
	if !e.state.IsLoading {
		e.settled = make(chan struct{})
	}
	e.state.IsLoading = true
	st := e.state
	f.wg.Add(1)
	f.mu.Unlock()

	f.events.Publish(Change{Key: key, State: st})
	go f.run(ctx, key, e, seq)
}

func (f *Fetcher) run(ctx context.Context, key string, e *entry, seq uint64) {
	defer f.wg.Done()

	data, err := f.getter.Get(ctx, key)

	f.mu.Lock()
	r, ok := e.inflight[seq]
	if !ok {
		f.mu.Unlock()
		metrics.RecordFetch(metrics.FetchStale)
		logging.Debug("discarding superseded response",
			logging.String("key", key),
			logging.Uint64("seq", seq),
		)
		return
	}
	if ctx.Err() != nil {
		// The observer went away; withdraw the request.
		delete(e.inflight, seq)
		metrics.RecordFetch(metrics.FetchCancelled)
	} else {
		r.done, r.data, r.err = true, data, err
	}

	changed := f.resolveLocked(key, e)

	// Re-add an entry that expired while its request was in flight.
	if _, ok := f.entries.Get(key); !ok {
		f.entries.SetDefault(key, e)
		metrics.SetCacheEntries(f.entries.ItemCount())
	}
	st := e.state
	f.mu.Unlock()

	if changed {
		f.events.Publish(Change{Key: key, State: st})
	}
}

// resolveLocked commits the newest live request of e if it has finished,
// drops everything older, and settles the key once no live request is left.
// It reports whether the state changed. Must be called with f.mu held.
func (f *Fetcher) resolveLocked(key string, e *entry) bool {
	var (
		top    uint64
		winner *request
	)
	for seq, r := range e.inflight {
		if r.live() && seq > top {
			top, winner = seq, r
		}
	}

	changed := false
	if winner != nil && winner.done {
		if winner.err != nil {
			e.state.Err = winner.err
			metrics.RecordFetch(metrics.FetchError)
		} else {
			e.state.Data = winner.data
			e.state.Err = nil
			e.state.UpdatedAt = time.Now()
			metrics.RecordFetch(metrics.FetchSuccess)
		}
		for seq, r := range e.inflight {
			if seq >= top {
				continue
			}
			if r.done {
				metrics.RecordFetch(metrics.FetchStale)
				logging.Debug("discarding superseded response",
					logging.String("key", key),
					logging.Uint64("seq", seq),
				)
			}
			delete(e.inflight, seq)
		}
		delete(e.inflight, top)
		changed = true
	}

	pending := false
	for _, r := range e.inflight {
		if r.live() && !r.done {
			pending = true
			break
		}
	}
	if !pending && e.state.IsLoading {
		e.state.IsLoading = false
		close(e.settled)
		changed = true
	}
	return changed
}

// State returns the current state of key. Unknown or empty keys return the
// zero State.
func (f *Fetcher) State(key string) State {
	if key == "" {
		return State{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.lookupLocked(key, false); e != nil {
		return e.state
	}
	return State{}
}

// Revalidate re-fetches key unconditionally.
func (f *Fetcher) Revalidate(ctx context.Context, key string) {
	f.start(ctx, key)
}

// RevalidatePath re-fetches every cached key for path: the bare path, the path
// with a query string, and sub-resources below it. It returns the keys that
// were re-fetched.
func (f *Fetcher) RevalidatePath(ctx context.Context, path string) []string {
	f.mu.Lock()
	f.purgeLocked()
	var keys []string
	for key := range f.entries.Items() {
		if matchesPath(key, path) {
			keys = append(keys, key)
		}
	}
	f.mu.Unlock()

	sort.Strings(keys)
	for _, key := range keys {
		f.start(ctx, key)
	}
	return keys
}

func matchesPath(key, path string) bool {
	if !strings.HasPrefix(key, path) {
		return false
	}
	rest := key[len(path):]
	return rest == "" || rest[0] == '?' || rest[0] == '/'
}

// Wait blocks until key has no request in flight and returns its state. If
// ctx ends first the current state is returned with ctx's error.
func (f *Fetcher) Wait(ctx context.Context, key string) (State, error) {
	for {
		f.mu.Lock()
		e := f.lookupLocked(key, false)
		if e == nil || !e.state.IsLoading {
			var st State
			if e != nil {
				st = e.state
			}
			f.mu.Unlock()
			return st, nil
		}
		settled := e.settled
		f.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return f.State(key), ctx.Err()
		}
	}
}

// Fetch issues a request for key and waits for the key to settle.
func (f *Fetcher) Fetch(ctx context.Context, key string) State {
	f.start(ctx, key)
	st, _ := f.Wait(ctx, key)
	return st
}

// Preload fetches keys concurrently and returns their settled states. The
// only error is ctx's.
func (f *Fetcher) Preload(ctx context.Context, keys ...string) (map[string]State, error) {
	var mu sync.Mutex
	states := make(map[string]State, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			f.start(ctx, key)
			st, err := f.Wait(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			states[key] = st
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return states, err
	}
	return states, nil
}

// Subscribe returns a channel of state changes for all keys.
func (f *Fetcher) Subscribe() chan Change {
	return f.events.Subscribe()
}

// Unsubscribe stops delivery to ch and closes it.
func (f *Fetcher) Unsubscribe(ch chan Change) {
	f.events.Unsubscribe(ch)
}

// WaitIdle blocks until every request goroutine has returned.
func (f *Fetcher) WaitIdle() {
	f.wg.Wait()
}

// Decode unmarshals the state's data into a T.
func Decode[T any](s State) (T, error) {
	var v T
	if s.Data == nil {
		return v, ErrNoData
	}
	err := json.Unmarshal(s.Data, &v)
	return v, err
}

// Package session holds the signed-in administrator: a single persisted slot
// mirrored in memory, with change notifications for the UI.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/waynex/admin/internal/events"
	"github.com/waynex/admin/internal/logging"
	"github.com/waynex/admin/internal/metrics"
)

// Change types.
const (
	ChangeSet    = "set"
	ChangeClear  = "clear"
	ChangeReload = "reload"
)

var (
	// ErrNoSession is returned by callers that require a signed-in user.
	ErrNoSession = errors.New("not signed in")

	// ErrNotWatchable is returned by Watch when the slot is not file-backed.
	ErrNotWatchable = errors.New("session slot cannot be watched")
)

// Session is the signed-in user. The JSON layout is the persisted format.
type Session struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Authenticated reports whether s identifies a user.
func (s *Session) Authenticated() bool {
	return s != nil && s.Email != ""
}

// DisplayName returns the first name, or "Admin" when unknown.
func (s *Session) DisplayName() string {
	if s == nil || s.FirstName == "" {
		return "Admin"
	}
	return s.FirstName
}

// Change is published whenever the session changes. Session is nil after a clear.
type Change struct {
	Type    string
	Session *Session
}

// Store is the process-wide session holder. It is passed explicitly to the
// components that need it.
type Store struct {
	slot Slot

	mu      sync.RWMutex
	current *Session

	events *events.Broadcaster[Change]
}

// NewStore creates a store and loads any persisted session from slot.
func NewStore(slot Slot) *Store {
	s := &Store{
		slot:   slot,
		events: events.NewBroadcaster[Change](),
	}
	s.current = s.read()
	return s
}

// read loads the slot. Unreadable or malformed content counts as no session.
func (s *Store) read() *Session {
	data, err := s.slot.Load()
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			logging.Warn("failed to load session", logging.Err(err))
		}
		return nil
	}
	var sess *Session
	if err := json.Unmarshal(data, &sess); err != nil {
		logging.Warn("ignoring malformed session slot", logging.Err(err))
		return nil
	}
	// A null or email-less record is no session.
	if sess == nil || sess.Email == "" {
		return nil
	}
	return sess
}

// Get returns a copy of the current session, or nil.
func (s *Store) Get() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Email returns the current session email, or "".
func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Email
}

// Set persists sess and updates the mirror. If the slot write fails the
// mirror keeps its previous value.
func (s *Store) Set(sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	if err := s.slot.Save(data); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save session: %w", err)
	}
	s.current = &sess
	s.mu.Unlock()

	metrics.RecordSessionChange(ChangeSet)
	cp := sess
	s.events.Publish(Change{Type: ChangeSet, Session: &cp})
	return nil
}

// Clear removes the persisted session.
func (s *Store) Clear() error {
	s.mu.Lock()
	if err := s.slot.Remove(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("remove session: %w", err)
	}
	s.current = nil
	s.mu.Unlock()

	metrics.RecordSessionChange(ChangeClear)
	s.events.Publish(Change{Type: ChangeClear})
	return nil
}

// Reload re-reads the slot and publishes a change if the session differs
// from the mirror.
func (s *Store) Reload() {
	next := s.read()

	s.mu.Lock()
	if sameSession(s.current, next) {
		s.mu.Unlock()
		return
	}
	s.current = next
	s.mu.Unlock()

	metrics.RecordSessionChange(ChangeReload)
	var cp *Session
	if next != nil {
		v := *next
		cp = &v
	}
	s.events.Publish(Change{Type: ChangeReload, Session: cp})
}

// Subscribe returns a channel of session changes.
func (s *Store) Subscribe() chan Change {
	return s.events.Subscribe()
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Store) Unsubscribe(ch chan Change) {
	s.events.Unsubscribe(ch)
}

// Watch reloads the session whenever another process rewrites or removes the
// slot file. It returns once the watch is established; watching stops when
// ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	fs, ok := s.slot.(interface{ Path() string })
	if !ok {
		return ErrNotWatchable
	}
	path := filepath.Clean(fs.Path())

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The slot is replaced by rename, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watch session dir: %w", err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
					ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					s.Reload()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Warn("session watcher error", logging.Err(err))
			}
		}
	}()
	return nil
}

func sameSession(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

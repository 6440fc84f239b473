package client

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// Entry is what the storefront persists locally so a returning visitor can
// resume their draft: the draft id plus whatever proof of ownership applies.
type Entry struct {
	DraftID         uuid.UUID
	OwnerKind       enums.OwnerKind
	AccountID       *uuid.UUID
	GuestCredential string
	StoredAt        time.Time
}

// Store is the persistence surface behind the guard. The browser build
// backs this with localStorage; tests and CLIs use MemoryStore.
type Store interface {
	Get() (Entry, bool)
	Put(Entry)
	Delete()
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	entry *Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored entry, if any.
func (m *MemoryStore) Get() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry == nil {
		return Entry{}, false
	}
	return *m.entry, true
}

// Put stores the entry.
func (m *MemoryStore) Put(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = &entry
}

// Delete clears the store.
func (m *MemoryStore) Delete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
}

// Session describes who the current browser session is: nil AccountID for
// anonymous visitors.
type Session struct {
	AccountID *uuid.UUID
}

// EventKind tags guard notifications.
type EventKind string

const (
	EventSaved       EventKind = "saved"
	EventInvalidated EventKind = "invalidated"
)

// Event is broadcast to watchers whenever the cache changes, mirroring the
// storage events other browser tabs observe.
type Event struct {
	Kind  EventKind
	Entry Entry
}

// Guard wraps a Store and enforces the ownership rules a cached draft
// pointer must satisfy before the client may act on it.
type Guard struct {
	mu       sync.Mutex
	store    Store
	watchers []chan Event
}

// NewGuard wraps the store.
func NewGuard(store Store) *Guard {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Guard{store: store}
}

// Load returns the cached entry if it is still plausible for this session.
// An account-owned entry is only valid for that same account; any mismatch
// invalidates the cache rather than letting the client present stale
// ownership to the server.
func (g *Guard) Load(session Session) (*Entry, bool) {
	entry, ok := g.store.Get()
	if !ok {
		return nil, false
	}

	if entry.OwnerKind == enums.OwnerKindAccount {
		if entry.AccountID == nil || session.AccountID == nil || *entry.AccountID != *session.AccountID {
			g.invalidate(entry)
			return nil, false
		}
	}
	if entry.OwnerKind == enums.OwnerKindGuest && entry.GuestCredential == "" {
		g.invalidate(entry)
		return nil, false
	}

	return &entry, true
}

// Reconcile compares the cached entry against the server's view of the
// draft. When the server reports a different owner the cache is dropped;
// a claim by this very session upgrades the entry instead.
func (g *Guard) Reconcile(session Session, serverOwnerKind enums.OwnerKind, serverAccountID *uuid.UUID) (*Entry, bool) {
	entry, ok := g.store.Get()
	if !ok {
		return nil, false
	}

	if serverOwnerKind == enums.OwnerKindAccount {
		if session.AccountID == nil || serverAccountID == nil || *serverAccountID != *session.AccountID {
			g.invalidate(entry)
			return nil, false
		}
		if entry.OwnerKind == enums.OwnerKindGuest {
			// this session claimed the draft; drop the dead credential
			entry.OwnerKind = enums.OwnerKindAccount
			entry.AccountID = serverAccountID
			entry.GuestCredential = ""
			g.Save(entry)
		}
		return &entry, true
	}

	if entry.OwnerKind == enums.OwnerKindAccount {
		// server still thinks the draft is guest-owned; the cache is ahead
		// of reality and cannot be trusted
		g.invalidate(entry)
		return nil, false
	}
	return &entry, true
}

// Save stores the entry and notifies watchers.
func (g *Guard) Save(entry Entry) {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now()
	}
	g.store.Put(entry)
	g.broadcast(Event{Kind: EventSaved, Entry: entry})
}

// Invalidate drops the cached entry and notifies watchers.
func (g *Guard) Invalidate() {
	entry, ok := g.store.Get()
	if !ok {
		return
	}
	g.invalidate(entry)
}

// Watch returns a channel receiving cache change events. The channel is
// buffered; slow watchers miss events rather than blocking the guard.
func (g *Guard) Watch() <-chan Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan Event, 8)
	g.watchers = append(g.watchers, ch)
	return ch
}

func (g *Guard) invalidate(entry Entry) {
	g.store.Delete()
	g.broadcast(Event{Kind: EventInvalidated, Entry: entry})
}

func (g *Guard) broadcast(event Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}

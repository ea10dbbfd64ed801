package likesstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/stylecast/internal/domain/likes"
)

// MemoryStore is an in-process implementation of the liked-items document
// store for tests/dev. Every write fans the user's full ordered snapshot out
// to that user's subscribers, mirroring the remote store's push behavior.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]likes.LikedItem
	subs map[string]map[string]*memorySubscription
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]likes.LikedItem),
		subs: make(map[string]map[string]*memorySubscription),
	}
}

// Set upserts the document keyed by item ID and notifies subscribers.
func (s *MemoryStore) Set(_ context.Context, userID string, item likes.LikedItem) error {
	s.mu.Lock()
	if s.docs[userID] == nil {
		s.docs[userID] = make(map[string]likes.LikedItem)
	}
	s.docs[userID][item.ID] = item
	s.notifyLocked(userID)
	s.mu.Unlock()
	return nil
}

// Delete removes the document; a missing ID is a no-op but still notifies,
// matching a store that acknowledges the write regardless.
func (s *MemoryStore) Delete(_ context.Context, userID, itemID string) error {
	s.mu.Lock()
	delete(s.docs[userID], itemID)
	s.notifyLocked(userID)
	s.mu.Unlock()
	return nil
}

// Get reports the document and its existence.
func (s *MemoryStore) Get(_ context.Context, userID, itemID string) (likes.LikedItem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.docs[userID][itemID]
	return item, ok, nil
}

// Subscribe registers a snapshot listener for the user. The current snapshot
// is delivered immediately.
func (s *MemoryStore) Subscribe(_ context.Context, userID string) (likes.Subscription, error) {
	sub := &memorySubscription{
		ch:     make(chan likes.Event, 8),
		store:  s,
		userID: userID,
		id:     uuid.NewString(),
	}
	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[string]*memorySubscription)
	}
	s.subs[userID][sub.id] = sub
	sub.deliver(likes.Event{Items: s.snapshotLocked(userID)})
	s.mu.Unlock()
	return sub, nil
}

// notifyLocked pushes the user's snapshot to every live subscriber.
// Caller holds s.mu.
func (s *MemoryStore) notifyLocked(userID string) {
	if len(s.subs[userID]) == 0 {
		return
	}
	snapshot := s.snapshotLocked(userID)
	for _, sub := range s.subs[userID] {
		sub.deliver(likes.Event{Items: snapshot})
	}
}

// snapshotLocked builds the ordered snapshot: LikedAt descending, ID as a
// deterministic tie-break. Caller holds s.mu.
func (s *MemoryStore) snapshotLocked(userID string) []likes.LikedItem {
	items := make([]likes.LikedItem, 0, len(s.docs[userID]))
	for _, item := range s.docs[userID] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].LikedAt.Equal(items[j].LikedAt) {
			return items[i].LikedAt.After(items[j].LikedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (s *MemoryStore) unsubscribe(userID, subID string) {
	s.mu.Lock()
	delete(s.subs[userID], subID)
	s.mu.Unlock()
}

type memorySubscription struct {
	store  *MemoryStore
	userID string
	id     string

	sendMu sync.Mutex
	ch     chan likes.Event
	closed bool
}

func (m *memorySubscription) Events() <-chan likes.Event { return m.ch }

// Close unregisters the listener. Idempotent; once Close returns no further
// events are delivered.
func (m *memorySubscription) Close() {
	m.store.unsubscribe(m.userID, m.id)
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
}

// deliver never blocks the store: when the listener lags, the oldest buffered
// snapshot is dropped, since each event carries the full set the newest wins.
func (m *memorySubscription) deliver(ev likes.Event) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	if m.closed {
		return
	}
	for {
		select {
		case m.ch <- ev:
			return
		default:
			select {
			case <-m.ch:
			default:
			}
		}
	}
}

var _ likes.DocumentStore = (*MemoryStore)(nil)

package likes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/stylecast/pkg/errors"
)

func TestLikeAssignsIDAndTimestamp(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	err := s.Like(context.Background(), "u1", LikedItem{Name: "Cardigan", Price: "39,000", ImageRef: "men_cold_1"})
	require.NoError(t, err)

	saved := store.saved["u1"]["Cardigan"]
	require.Equal(t, "Cardigan", saved.ID)
	require.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), saved.LikedAt)
}

func TestLikeTwiceOverwritesSameDocument(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	require.NoError(t, s.Like(context.Background(), "u1", LikedItem{ID: "Coat", Price: "10"}))
	require.NoError(t, s.Like(context.Background(), "u1", LikedItem{ID: "Coat", Price: "20"}))

	require.Len(t, store.saved["u1"], 1)
	require.Equal(t, "20", store.saved["u1"]["Coat"].Price)
}

func TestLikeRequiresUser(t *testing.T) {
	s := newTestSync(newStubStore())
	err := s.Like(context.Background(), "  ", LikedItem{ID: "Coat"})
	require.True(t, apperrors.IsCode(err, "not_authenticated"))
}

func TestUnlikeAbsentIDIsNoOp(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	require.NoError(t, s.Unlike(context.Background(), "u1", "never-liked"))
	require.Empty(t, store.saved["u1"])
}

func TestIsLikedFoldsAbsenceIntoFalse(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	liked, err := s.IsLiked(context.Background(), "u1", "Coat")
	require.NoError(t, err)
	require.False(t, liked)

	require.NoError(t, s.Like(context.Background(), "u1", LikedItem{ID: "Coat"}))
	liked, err = s.IsLiked(context.Background(), "u1", "Coat")
	require.NoError(t, err)
	require.True(t, liked)
}

func TestGetDistinguishesAbsence(t *testing.T) {
	s := newTestSync(newStubStore())
	_, err := s.Get(context.Background(), "u1", "Coat")
	require.True(t, apperrors.IsCode(err, "document_absent"))
}

func TestStoreFailureSurfacesAsRemoteUnavailable(t *testing.T) {
	store := newStubStore()
	store.err = errors.New("permission denied")
	s := newTestSync(store)

	require.True(t, apperrors.IsCode(s.Like(context.Background(), "u1", LikedItem{ID: "Coat"}), "remote_unavailable"))
	require.True(t, apperrors.IsCode(s.Unlike(context.Background(), "u1", "Coat"), "remote_unavailable"))
	_, err := s.IsLiked(context.Background(), "u1", "Coat")
	require.True(t, apperrors.IsCode(err, "remote_unavailable"))
}

func TestStartReplacesMirrorWholesaleOnPush(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	events, err := s.Start(context.Background(), "u1")
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	sub := store.lastSub
	sub.push(Event{Items: []LikedItem{{ID: "Coat"}, {ID: "Cardigan"}}})
	ev := waitEvent(t, events)
	require.Len(t, ev.Items, 2)
	require.Equal(t, []LikedItem{{ID: "Coat"}, {ID: "Cardigan"}}, s.Items())

	// The next push replaces, never merges.
	sub.push(Event{Items: []LikedItem{{ID: "Scarf"}}})
	ev = waitEvent(t, events)
	require.Equal(t, []LikedItem{{ID: "Scarf"}}, ev.Items)
	require.Equal(t, []LikedItem{{ID: "Scarf"}}, s.Items())
}

func TestStartEmptySnapshotYieldsEmptySet(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	events, err := s.Start(context.Background(), "u1")
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	store.lastSub.push(Event{Items: []LikedItem{}})
	ev := waitEvent(t, events)
	require.NoError(t, ev.Err)
	require.Empty(t, ev.Items)
}

func TestRestartTearsDownPreviousSubscription(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	first, err := s.Start(context.Background(), "u1")
	require.NoError(t, err)
	firstSub := store.lastSub

	second, err := s.Start(context.Background(), "u1")
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	require.True(t, firstSub.isClosed())
	require.False(t, firstSub.push(Event{Items: []LikedItem{{ID: "stale"}}}))

	// The first session's stream ended; the second still delivers.
	_, open := <-first
	require.False(t, open)
	store.lastSub.push(Event{Items: []LikedItem{{ID: "fresh"}}})
	require.Equal(t, "fresh", waitEvent(t, second).Items[0].ID)
}

func TestStopIsIdempotentAndEndsStream(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	s.Stop() // never started

	events, err := s.Start(context.Background(), "u1")
	require.NoError(t, err)
	s.Stop()
	s.Stop()

	_, open := <-events
	require.False(t, open)
	require.False(t, store.lastSub.push(Event{Items: []LikedItem{{ID: "late"}}}))
}

func TestSubscriptionErrorIsTerminal(t *testing.T) {
	store := newStubStore()
	s := newTestSync(store)

	events, err := s.Start(context.Background(), "u1")
	require.NoError(t, err)

	store.lastSub.push(Event{Err: errors.New("listen dropped")})
	ev := waitEvent(t, events)
	require.True(t, apperrors.IsCode(ev.Err, "remote_unavailable"))

	_, open := <-events
	require.False(t, open)
}

func TestStartRequiresUser(t *testing.T) {
	s := newTestSync(newStubStore())
	_, err := s.Start(context.Background(), "")
	require.True(t, apperrors.IsCode(err, "not_authenticated"))
}

func TestListReadsOneSnapshot(t *testing.T) {
	store := newStubStore()
	store.initial = []LikedItem{{ID: "Coat"}}
	s := newTestSync(store)

	items, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, []LikedItem{{ID: "Coat"}}, items)
	require.True(t, store.lastSub.isClosed())
}

func newTestSync(store DocumentStore) *Sync {
	return NewSync(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

type stubStore struct {
	mu      sync.Mutex
	saved   map[string]map[string]LikedItem
	err     error
	initial []LikedItem
	lastSub *stubSubscription
}

func newStubStore() *stubStore {
	return &stubStore{saved: make(map[string]map[string]LikedItem)}
}

func (s *stubStore) Set(_ context.Context, userID string, item LikedItem) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved[userID] == nil {
		s.saved[userID] = make(map[string]LikedItem)
	}
	s.saved[userID][item.ID] = item
	return nil
}

func (s *stubStore) Delete(_ context.Context, userID, itemID string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved[userID], itemID)
	return nil
}

func (s *stubStore) Get(_ context.Context, userID, itemID string) (LikedItem, bool, error) {
	if s.err != nil {
		return LikedItem{}, false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.saved[userID][itemID]
	return item, ok, nil
}

func (s *stubStore) Subscribe(_ context.Context, userID string) (Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	sub := &stubSubscription{ch: make(chan Event, 8)}
	s.mu.Lock()
	s.lastSub = sub
	s.mu.Unlock()
	if s.initial != nil {
		sub.push(Event{Items: s.initial})
	}
	return sub, nil
}

type stubSubscription struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *stubSubscription) Events() <-chan Event { return s.ch }

func (s *stubSubscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *stubSubscription) push(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ch <- ev
	return true
}

func (s *stubSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

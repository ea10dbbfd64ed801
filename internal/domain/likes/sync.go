package likes

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/yanqian/stylecast/pkg/errors"
	"github.com/yanqian/stylecast/pkg/util"
)

// Sync keeps one user's liked set consistent between a local mirror and the
// remote document store. At most one live subscription exists per Sync at any
// time: starting a new one tears the previous one down first. Write operations
// are not optimistic: the mirror changes only when the store pushes the next
// snapshot.
type Sync struct {
	store  DocumentStore
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	sub   Subscription
	items []LikedItem
	done  chan struct{}
}

// NewSync builds a sync session bound to store.
func NewSync(store DocumentStore, logger *slog.Logger) *Sync {
	return &Sync{
		store:  store,
		logger: logger.With("component", "likes.sync"),
		now:    util.NowUTC,
	}
}

// Start subscribes to the user's liked set and returns the event stream for
// this session. Any previous subscription is stopped first; its stream is
// closed before the new subscription is established, so no stale push can be
// observed after Start returns. Snapshots replace the local mirror wholesale;
// a terminal store error ends the stream and requires another Start to retry.
func (s *Sync) Start(ctx context.Context, userID string) (<-chan Event, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Wrap("not_authenticated", "no authenticated user", nil)
	}
	s.Stop()

	sub, err := s.store.Subscribe(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap("remote_unavailable", "failed to subscribe to liked items", err)
	}

	out := make(chan Event, 1)
	done := make(chan struct{})
	s.mu.Lock()
	s.sub = sub
	s.done = done
	s.mu.Unlock()

	go s.forward(sub, out, done)
	s.logger.Info("liked items subscription started", "userId", userID)
	return out, nil
}

// Stop releases the live subscription, if any. Idempotent. When Stop returns,
// the session's event stream is closed and no further events are delivered.
func (s *Sync) Stop() {
	s.mu.Lock()
	sub := s.sub
	done := s.done
	s.sub = nil
	s.done = nil
	s.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Close()
	<-done
	s.logger.Info("liked items subscription stopped")
}

// forward applies snapshots to the mirror and relays events to the session
// owner. Delivery keeps store order; when the owner lags, the buffered stale
// snapshot is dropped in favour of the newer one (each push is a full
// snapshot, so last-applied wins).
func (s *Sync) forward(sub Subscription, out chan Event, done chan struct{}) {
	defer close(out)
	defer close(done)

	for ev := range sub.Events() {
		if ev.Err != nil {
			relay(out, Event{Err: apperrors.Wrap("remote_unavailable", "liked items subscription failed", ev.Err)})
			return
		}

		s.mu.Lock()
		if s.done != done {
			// Torn down while a push was in flight; drop it.
			s.mu.Unlock()
			return
		}
		s.items = ev.Items
		s.mu.Unlock()

		relay(out, ev)
	}
}

// relay sends without ever blocking the forward loop: the channel is owned by
// a single sender, so draining the one-slot buffer before sending cannot race.
func relay(out chan Event, ev Event) {
	select {
	case out <- ev:
	default:
		select {
		case <-out:
		default:
		}
		out <- ev
	}
}

// Items returns a copy of the current local mirror.
func (s *Sync) Items() []LikedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]LikedItem, len(s.items))
	copy(items, s.items)
	return items
}

// Like writes the item keyed by its ID, deriving the ID from the display name
// when absent. Liking an already-liked item overwrites the same document.
func (s *Sync) Like(ctx context.Context, userID string, item LikedItem) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Wrap("not_authenticated", "no authenticated user", nil)
	}
	if strings.TrimSpace(item.ID) == "" {
		item.ID = strings.TrimSpace(item.Name)
	}
	if item.ID == "" {
		return apperrors.Wrap("invalid_input", "liked item needs a name", nil)
	}
	if item.LikedAt.IsZero() {
		item.LikedAt = s.now()
	}
	if err := s.store.Set(ctx, userID, item); err != nil {
		return apperrors.Wrap("remote_unavailable", "failed to save liked item", err)
	}
	return nil
}

// Unlike deletes the document. A missing ID is a successful no-op.
func (s *Sync) Unlike(ctx context.Context, userID, itemID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Wrap("not_authenticated", "no authenticated user", nil)
	}
	if err := s.store.Delete(ctx, userID, itemID); err != nil {
		return apperrors.Wrap("remote_unavailable", "failed to remove liked item", err)
	}
	return nil
}

// IsLiked is a point-in-time existence check, independent of any subscription.
// Absence folds into false rather than an error.
func (s *Sync) IsLiked(ctx context.Context, userID, itemID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, apperrors.Wrap("not_authenticated", "no authenticated user", nil)
	}
	_, exists, err := s.store.Get(ctx, userID, itemID)
	if err != nil {
		return false, apperrors.Wrap("remote_unavailable", "failed to check liked item", err)
	}
	return exists, nil
}

// Get fetches a single liked document, distinguishing absence from denial.
func (s *Sync) Get(ctx context.Context, userID, itemID string) (LikedItem, error) {
	if strings.TrimSpace(userID) == "" {
		return LikedItem{}, apperrors.Wrap("not_authenticated", "no authenticated user", nil)
	}
	item, exists, err := s.store.Get(ctx, userID, itemID)
	if err != nil {
		return LikedItem{}, apperrors.Wrap("remote_unavailable", "failed to load liked item", err)
	}
	if !exists {
		return LikedItem{}, apperrors.Wrap("document_absent", "liked item not found", nil)
	}
	return item, nil
}

// List reads one snapshot through a short-lived subscription, leaving the
// session's live subscription (if any) untouched.
func (s *Sync) List(ctx context.Context, userID string) ([]LikedItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Wrap("not_authenticated", "no authenticated user", nil)
	}
	sub, err := s.store.Subscribe(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap("remote_unavailable", "failed to load liked items", err)
	}
	defer sub.Close()

	select {
	case ev, ok := <-sub.Events():
		if !ok {
			return []LikedItem{}, nil
		}
		if ev.Err != nil {
			return nil, apperrors.Wrap("remote_unavailable", "failed to load liked items", ev.Err)
		}
		return ev.Items, nil
	case <-ctx.Done():
		return nil, apperrors.Wrap("remote_unavailable", "failed to load liked items", ctx.Err())
	}
}

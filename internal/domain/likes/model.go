package likes

import (
	"context"
	"time"
)

// LikedItem is a user's saved outfit piece. The document ID derives from the
// item's display name, and the existence of the remote document is the liked
// flag; there is no separate boolean anywhere.
type LikedItem struct {
	ID       string    `json:"id"`
	ImageRef string    `json:"imageUrl"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	LikedAt  time.Time `json:"likedAt"`
}

// Event is one delivery from a subscription: a full ordered snapshot, or a
// terminal error after which the stream ends.
type Event struct {
	Items []LikedItem
	Err   error
}

// Subscription is a live snapshot stream for one user. Events carries full
// snapshots ordered by LikedAt descending; the store closes the channel after
// Close returns or after a terminal error, and guarantees no delivery once
// Close has returned.
type Subscription interface {
	Events() <-chan Event
	Close()
}

// DocumentStore is the persistence boundary for liked items: one per-user
// sub-collection keyed by item ID. Set overwrites (double-like is idempotent),
// Delete of an absent ID is a no-op, Get reports existence explicitly.
type DocumentStore interface {
	Set(ctx context.Context, userID string, item LikedItem) error
	Delete(ctx context.Context, userID, itemID string) error
	Get(ctx context.Context, userID, itemID string) (LikedItem, bool, error)
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

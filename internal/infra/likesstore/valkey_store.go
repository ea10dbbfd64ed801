package likesstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/stylecast/internal/domain/likes"
)

// ValkeyStore persists liked items in a Valkey-compatible database. Documents
// live as JSON strings, a per-user sorted set scored by LikedAt keeps the
// ordering, and a per-user pub/sub channel drives snapshot pushes.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "likes"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Set(ctx context.Context, userID string, item likes.LikedItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.docKey(userID, item.ID)).Value(string(payload)).Build()).Error(); err != nil {
		return err
	}
	score := float64(item.LikedAt.UnixMilli())
	if err := s.client.Do(ctx, s.client.B().Zadd().Key(s.indexKey(userID)).ScoreMember().ScoreMember(score, item.ID).Build()).Error(); err != nil {
		return err
	}
	return s.publish(ctx, userID)
}

func (s *ValkeyStore) Delete(ctx context.Context, userID, itemID string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.docKey(userID, itemID)).Build()).Error(); err != nil {
		return err
	}
	if err := s.client.Do(ctx, s.client.B().Zrem().Key(s.indexKey(userID)).Member(itemID).Build()).Error(); err != nil {
		return err
	}
	return s.publish(ctx, userID)
}

func (s *ValkeyStore) Get(ctx context.Context, userID, itemID string) (likes.LikedItem, bool, error) {
	result := s.client.Do(ctx, s.client.B().Get().Key(s.docKey(userID, itemID)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return likes.LikedItem{}, false, nil
		}
		return likes.LikedItem{}, false, err
	}
	var item likes.LikedItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return likes.LikedItem{}, false, err
	}
	return item, true, nil
}

// Subscribe delivers the current snapshot, then re-reads and pushes the full
// set on every store notification until Close.
func (s *ValkeyStore) Subscribe(ctx context.Context, userID string) (likes.Subscription, error) {
	initial, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &valkeySubscription{
		ch:     make(chan likes.Event, 8),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		sub.deliver(likes.Event{Items: initial})

		cmd := s.client.B().Subscribe().Channel(s.eventChannel(userID)).Build()
		err := s.client.Receive(subCtx, cmd, func(_ valkey.PubSubMessage) {
			items, snapErr := s.snapshot(subCtx, userID)
			if snapErr != nil {
				if subCtx.Err() == nil {
					sub.deliver(likes.Event{Err: snapErr})
				}
				return
			}
			sub.deliver(likes.Event{Items: items})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			sub.deliver(likes.Event{Err: err})
		}
		sub.markClosed()
	}()

	return sub, nil
}

// snapshot reads the full ordered set: index walked newest-first, documents
// fetched in one MGET. Index entries whose document vanished mid-read are
// skipped.
func (s *ValkeyStore) snapshot(ctx context.Context, userID string) ([]likes.LikedItem, error) {
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.indexKey(userID)).Start(0).Stop(-1).Build())
	ids, err := resp.AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return []likes.LikedItem{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []likes.LikedItem{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.docKey(userID, id))
	}
	values, err := s.client.Do(ctx, s.client.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, err
	}

	items := make([]likes.LikedItem, 0, len(values))
	for _, value := range values {
		payload, err := value.ToString()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				continue
			}
			return nil, err
		}
		var item likes.LikedItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *ValkeyStore) publish(ctx context.Context, userID string) error {
	return s.client.Do(ctx, s.client.B().Publish().Channel(s.eventChannel(userID)).Message("sync").Build()).Error()
}

func (s *ValkeyStore) docKey(userID, itemID string) string {
	return fmt.Sprintf("%s:%s:item:%s", s.prefix, userID, itemID)
}

func (s *ValkeyStore) indexKey(userID string) string {
	return fmt.Sprintf("%s:%s:index", s.prefix, userID)
}

func (s *ValkeyStore) eventChannel(userID string) string {
	return fmt.Sprintf("%s:%s:events", s.prefix, userID)
}

type valkeySubscription struct {
	cancel context.CancelFunc
	done   chan struct{}

	sendMu sync.Mutex
	ch     chan likes.Event
	closed bool
}

func (v *valkeySubscription) Events() <-chan likes.Event { return v.ch }

// Close cancels the listener and waits for it to finish, so no event can be
// delivered after Close returns. Idempotent.
func (v *valkeySubscription) Close() {
	v.cancel()
	<-v.done
}

func (v *valkeySubscription) markClosed() {
	v.sendMu.Lock()
	defer v.sendMu.Unlock()
	if !v.closed {
		v.closed = true
		close(v.ch)
	}
}

// deliver never blocks the listener loop: the oldest buffered snapshot is
// dropped when the consumer lags, since every event carries the full set.
func (v *valkeySubscription) deliver(ev likes.Event) {
	v.sendMu.Lock()
	defer v.sendMu.Unlock()
	if v.closed {
		return
	}
	for {
		select {
		case v.ch <- ev:
			return
		default:
			select {
			case <-v.ch:
			default:
			}
		}
	}
}

var _ likes.DocumentStore = (*ValkeyStore)(nil)

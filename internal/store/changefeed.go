package store

import (
	"sync"

	"locallink/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 32

// ChangeFeed fans committed post mutations out to subscribers. Delivery is
// best effort: a subscriber that stops draining its channel loses events and
// is expected to reload the snapshot. The table remains the source of truth.
type ChangeFeed struct {
	logger *logrus.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]chan types.ChangeEvent
}

func NewChangeFeed(logger *logrus.Logger) *ChangeFeed {
	return &ChangeFeed{
		logger: logger,
		subs:   make(map[uuid.UUID]chan types.ChangeEvent),
	}
}

// Subscribe registers a consumer. The returned func releases the
// subscription and closes the channel; it must be called exactly once.
func (f *ChangeFeed) Subscribe() (<-chan types.ChangeEvent, func()) {
	id := uuid.New()
	ch := make(chan types.ChangeEvent, subscriberBuffer)

	f.mu.Lock()
	f.subs[id] = ch
	f.mu.Unlock()

	unsubscribe := func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}

	return ch, unsubscribe
}

func (f *ChangeFeed) Publish(event types.ChangeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for id, ch := range f.subs {
		select {
		case ch <- event:
		default:
			f.logger.WithFields(logrus.Fields{
				"subscriber": id.String(),
				"kind":       event.Kind,
				"post_id":    event.Post.ID,
			}).Warn("change feed subscriber too slow, event dropped")
		}
	}
}

func (f *ChangeFeed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

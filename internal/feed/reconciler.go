package feed

import (
	"context"
	"sync"

	"locallink/pkg/types"

	"github.com/sirupsen/logrus"
)

// Notifier is the urgent-alert side effect. Implementations are best
// effort; errors are swallowed by the reconciler.
type Notifier interface {
	UrgentPost(post *types.Post) error
}

// Reconciler applies change-feed events to a client-local ordered view of
// the post set. It is the only writer of that view; everything else reads
// snapshots. Inserts go to the front; authoritative ordering is the sort
// pipeline's job, the reconciler only guarantees no id is lost or
// duplicated.
type Reconciler struct {
	logger   *logrus.Logger
	notifier Notifier

	mu    sync.RWMutex
	order []string
	byID  map[string]*types.Post
}

func NewReconciler(logger *logrus.Logger, notifier Notifier) *Reconciler {
	return &Reconciler{
		logger:   logger,
		notifier: notifier,
		byID:     make(map[string]*types.Post),
	}
}

// Load replaces the view with a full snapshot, typically the initial list
// call or a reload after the feed reconnected.
func (r *Reconciler) Load(posts []*types.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = r.order[:0]
	r.byID = make(map[string]*types.Post, len(posts))

	for _, post := range posts {
		if _, ok := r.byID[post.ID]; ok {
			continue
		}
		r.order = append(r.order, post.ID)
		r.byID[post.ID] = post
	}
}

// Run consumes events until the channel closes or the context ends.
func (r *Reconciler) Run(ctx context.Context, events <-chan types.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			r.Apply(event)
		}
	}
}

func (r *Reconciler) Apply(event types.ChangeEvent) {
	switch event.Kind {
	case types.EventInsert:
		r.insert(event.Post)
	case types.EventUpdate:
		r.update(event.Post)
	case types.EventDelete:
		r.delete(event.Post.ID)
	default:
		r.logger.WithField("kind", event.Kind).Warn("unknown change event kind")
	}
}

func (r *Reconciler) insert(post types.Post) {
	r.mu.Lock()

	if _, ok := r.byID[post.ID]; ok {
		// Duplicate insert, treat as update.
		r.byID[post.ID] = &post
		r.mu.Unlock()
		return
	}

	r.order = append([]string{post.ID}, r.order...)
	r.byID[post.ID] = &post
	r.mu.Unlock()

	if post.Urgency == types.UrgencyUrgent && r.notifier != nil {
		if err := r.notifier.UrgentPost(&post); err != nil {
			// Alerts are best effort; a platform that refuses to play a
			// sound must not turn into a feed error.
			r.logger.WithError(err).Debug("urgent alert failed")
		}
	}
}

func (r *Reconciler) update(post types.Post) {
	r.mu.Lock()

	if _, ok := r.byID[post.ID]; !ok {
		// Update for an id we never saw: the insert was missed, recover it.
		r.mu.Unlock()
		r.insert(post)
		return
	}

	r.byID[post.ID] = &post
	r.mu.Unlock()
}

func (r *Reconciler) delete(postID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[postID]; !ok {
		return
	}

	delete(r.byID, postID)
	for i, id := range r.order {
		if id == postID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns the current view in insertion order. The slice is the
// caller's to keep; the posts are shared and must be treated as read-only.
func (r *Reconciler) Snapshot() []*types.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]*types.Post, 0, len(r.order))
	for _, id := range r.order {
		posts = append(posts, r.byID[id])
	}
	return posts
}

// Len reports how many posts the view holds.
func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

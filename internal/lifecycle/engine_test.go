package lifecycle_test

import (
	"context"
	"testing"

	"locallink/internal/lifecycle"
	"locallink/internal/store"
	"locallink/internal/utils"
	"locallink/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeStore applies the same compare-and-set semantics as the SQL
// repository, against an in-memory map.
type fakeStore struct {
	posts   map[string]*types.Post
	reports []*types.PostReport
}

func newFakeStore(posts ...*types.Post) *fakeStore {
	f := &fakeStore{posts: map[string]*types.Post{}}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakeStore) Post(_ context.Context, postID string) (*types.Post, error) {
	post, ok := f.posts[postID]
	if !ok {
		return nil, types.ErrPostNotFound
	}
	copied := *post
	return &copied, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, postID string, t store.StatusTransition) (*types.Post, error) {
	post, ok := f.posts[postID]
	if !ok {
		return nil, types.ErrPostNotFound
	}
	if post.Status != t.From {
		return nil, types.ErrConflict
	}

	post.Status = t.To
	if t.SetClaimant {
		post.ClaimantDevice = t.Claimant
	}

	copied := *post
	return &copied, nil
}

func (f *fakeStore) CreateReport(_ context.Context, report *types.PostReport) error {
	f.reports = append(f.reports, report)
	return nil
}

func newEngine(posts ...*types.Post) (*lifecycle.Engine, *fakeStore) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	fake := newFakeStore(posts...)
	return lifecycle.NewEngine(logger, fake, fake), fake
}

func openPost(id, creatorDevice string) *types.Post {
	post := &types.Post{
		ID:       id,
		Type:     types.PostTypeNeed,
		Urgency:  types.UrgencyNormal,
		Category: "Water",
		Item:     "Drinking Water",
		Location: "Main St",
		Contact:  "+1 555 0100",
		Status:   types.PostStatusOpen,
	}
	if creatorDevice != "" {
		post.DeviceID = utils.StringPtr(creatorDevice)
	}
	return post
}

func TestEngine_Claim(t *testing.T) {
	t.Parallel()

	t.Run("helper claims an open post", func(t *testing.T) {
		t.Parallel()

		engine, fake := newEngine(openPost("p1", "creator"))

		post, err := engine.Claim(context.Background(), "p1", "helper")
		require.NoError(t, err)
		require.Equal(t, types.PostStatusInProgress, post.Status)
		require.Equal(t, "helper", *post.ClaimantDevice)
		require.Equal(t, types.PostStatusInProgress, fake.posts["p1"].Status)
	})

	t.Run("creator cannot claim own post", func(t *testing.T) {
		t.Parallel()

		engine, fake := newEngine(openPost("p1", "creator"))

		_, err := engine.Claim(context.Background(), "p1", "creator")
		require.ErrorIs(t, err, types.ErrConflict)
		require.Equal(t, types.PostStatusOpen, fake.posts["p1"].Status)
	})

	t.Run("second claim loses the race", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(openPost("p1", "creator"))

		_, err := engine.Claim(context.Background(), "p1", "helper-a")
		require.NoError(t, err)

		_, err = engine.Claim(context.Background(), "p1", "helper-b")
		require.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("unknown post", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine()

		_, err := engine.Claim(context.Background(), "nope", "helper")
		require.ErrorIs(t, err, types.ErrPostNotFound)
	})
}

func TestEngine_MarkDone(t *testing.T) {
	t.Parallel()

	claimed := func() (*lifecycle.Engine, *fakeStore) {
		engine, fake := newEngine(openPost("p1", "creator"))
		_, err := engine.Claim(context.Background(), "p1", "helper")
		if err != nil {
			panic(err)
		}
		return engine, fake
	}

	t.Run("claimant marks done with attestation", func(t *testing.T) {
		t.Parallel()

		engine, _ := claimed()

		post, err := engine.MarkDone(context.Background(), "p1", "helper", true)
		require.NoError(t, err)
		require.Equal(t, types.PostStatusPendingConfirmation, post.Status)
	})

	t.Run("attestation is mandatory", func(t *testing.T) {
		t.Parallel()

		engine, fake := claimed()

		_, err := engine.MarkDone(context.Background(), "p1", "helper", false)
		require.ErrorIs(t, err, types.ErrValidation)
		require.Equal(t, types.PostStatusInProgress, fake.posts["p1"].Status)
	})

	t.Run("non-claimant is rejected", func(t *testing.T) {
		t.Parallel()

		engine, _ := claimed()

		_, err := engine.MarkDone(context.Background(), "p1", "bystander", true)
		require.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("open post cannot be marked done", func(t *testing.T) {
		t.Parallel()

		engine, _ := newEngine(openPost("p1", "creator"))

		_, err := engine.MarkDone(context.Background(), "p1", "helper", true)
		require.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestEngine_Confirm(t *testing.T) {
	t.Parallel()

	pending := func() (*lifecycle.Engine, *fakeStore) {
		engine, fake := newEngine(openPost("p1", "creator"))
		if _, err := engine.Claim(context.Background(), "p1", "helper"); err != nil {
			panic(err)
		}
		if _, err := engine.MarkDone(context.Background(), "p1", "helper", true); err != nil {
			panic(err)
		}
		return engine, fake
	}

	t.Run("creator confirms received", func(t *testing.T) {
		t.Parallel()

		engine, _ := pending()

		post, err := engine.Confirm(context.Background(), "p1", "creator", true)
		require.NoError(t, err)
		require.Equal(t, types.PostStatusFulfilled, post.Status)
	})

	t.Run("creator denies, post reopens and claim is discarded", func(t *testing.T) {
		t.Parallel()

		engine, _ := pending()

		post, err := engine.Confirm(context.Background(), "p1", "creator", false)
		require.NoError(t, err)
		require.Equal(t, types.PostStatusOpen, post.Status)
		require.Nil(t, post.ClaimantDevice)
	})

	t.Run("non-creator cannot confirm", func(t *testing.T) {
		t.Parallel()

		engine, fake := pending()

		_, err := engine.Confirm(context.Background(), "p1", "helper", true)
		require.ErrorIs(t, err, types.ErrConflict)
		require.Equal(t, types.PostStatusPendingConfirmation, fake.posts["p1"].Status)
	})

	t.Run("legacy post without device id accepts any device", func(t *testing.T) {
		t.Parallel()

		legacy := openPost("p1", "")
		legacy.Status = types.PostStatusPendingConfirmation
		engine, _ := newEngine(legacy)

		post, err := engine.Confirm(context.Background(), "p1", "whoever", true)
		require.NoError(t, err)
		require.Equal(t, types.PostStatusFulfilled, post.Status)
	})

	t.Run("fulfilled post is terminal", func(t *testing.T) {
		t.Parallel()

		engine, _ := pending()

		_, err := engine.Confirm(context.Background(), "p1", "creator", true)
		require.NoError(t, err)

		_, err = engine.Confirm(context.Background(), "p1", "creator", false)
		require.ErrorIs(t, err, types.ErrConflict)

		_, err = engine.Claim(context.Background(), "p1", "helper-b")
		require.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestEngine_Report(t *testing.T) {
	t.Parallel()

	t.Run("open post is reportable", func(t *testing.T) {
		t.Parallel()

		engine, fake := newEngine(openPost("p1", "creator"))

		require.NoError(t, engine.Report(context.Background(), "p1", "watcher"))
		require.Len(t, fake.reports, 1)
		require.Equal(t, "p1", fake.reports[0].PostID)
		require.Equal(t, "watcher", fake.reports[0].DeviceID)

		// No state change.
		require.Equal(t, types.PostStatusOpen, fake.posts["p1"].Status)
	})

	t.Run("pending and fulfilled posts are not reportable", func(t *testing.T) {
		t.Parallel()

		pendingPost := openPost("p1", "creator")
		pendingPost.Status = types.PostStatusPendingConfirmation
		fulfilledPost := openPost("p2", "creator")
		fulfilledPost.Status = types.PostStatusFulfilled

		engine, fake := newEngine(pendingPost, fulfilledPost)

		require.ErrorIs(t, engine.Report(context.Background(), "p1", "watcher"), types.ErrConflict)
		require.ErrorIs(t, engine.Report(context.Background(), "p2", "watcher"), types.ErrConflict)
		require.Empty(t, fake.reports)
	})
}

// Full round trip: claim, mark done, denial reopens, then any helper may
// claim again, including the original one.
func TestEngine_ReopenedPostIsClaimableAgain(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(openPost("p1", "creator"))
	ctx := context.Background()

	_, err := engine.Claim(ctx, "p1", "helper")
	require.NoError(t, err)

	_, err = engine.MarkDone(ctx, "p1", "helper", true)
	require.NoError(t, err)

	post, err := engine.Confirm(ctx, "p1", "creator", false)
	require.NoError(t, err)
	require.Equal(t, types.PostStatusOpen, post.Status)

	post, err = engine.Claim(ctx, "p1", "helper")
	require.NoError(t, err)
	require.Equal(t, types.PostStatusInProgress, post.Status)
	require.Equal(t, "helper", *post.ClaimantDevice)
}

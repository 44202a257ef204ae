package lifecycle

import (
	"context"
	"fmt"

	"locallink/internal/store"
	"locallink/pkg/types"

	"github.com/sirupsen/logrus"
)

// PostStore is the slice of the repository the engine mutates through.
type PostStore interface {
	Post(ctx context.Context, postID string) (*types.Post, error)
	TransitionStatus(ctx context.Context, postID string, t store.StatusTransition) (*types.Post, error)
}

type ReportStore interface {
	CreateReport(ctx context.Context, report *types.PostReport) error
}

// Engine validates and applies post lifecycle transitions:
//
//	OPEN -> IN_PROGRESS -> PENDING_CONFIRMATION -> FULFILLED
//	                                            -> OPEN
//
// Ownership is enforced here, against the device id the transport layer
// authenticated, never in the presentation layer alone. The device id is a
// weak bearer credential: anyone holding it is the owner.
type Engine struct {
	logger  *logrus.Logger
	posts   PostStore
	reports ReportStore
}

func NewEngine(logger *logrus.Logger, posts PostStore, reports ReportStore) *Engine {
	return &Engine{logger: logger, posts: posts, reports: reports}
}

// Claim moves an OPEN post to IN_PROGRESS on behalf of a helper. The
// creator cannot claim their own post. The claiming device is recorded so
// MarkDone can be restricted to it. Two racing claims resolve by
// compare-and-set: exactly one wins, the other gets ErrConflict.
func (e *Engine) Claim(ctx context.Context, postID, deviceID string) (*types.Post, error) {

	post, err := e.posts.Post(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.Status != types.PostStatusOpen {
		return nil, fmt.Errorf("post %s is not open: %w", postID, types.ErrConflict)
	}

	if post.DeviceID != nil && *post.DeviceID == deviceID {
		return nil, fmt.Errorf("creator cannot claim own post: %w", types.ErrConflict)
	}

	updated, err := e.posts.TransitionStatus(ctx, postID, store.StatusTransition{
		From:        types.PostStatusOpen,
		To:          types.PostStatusInProgress,
		SetClaimant: true,
		Claimant:    &deviceID,
	})
	if err != nil {
		return nil, err
	}

	e.logTransition(updated, deviceID, "claim")

	return updated, nil
}

// MarkDone moves an IN_PROGRESS post to PENDING_CONFIRMATION. Only the
// claiming device may trigger it, and only with an explicit attestation
// that help was rendered; the transition is never applied silently.
func (e *Engine) MarkDone(ctx context.Context, postID, deviceID string, attested bool) (*types.Post, error) {

	if !attested {
		return nil, fmt.Errorf("mark done requires the helper's attestation: %w", types.ErrValidation)
	}

	post, err := e.posts.Post(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.Status != types.PostStatusInProgress {
		return nil, fmt.Errorf("post %s is not in progress: %w", postID, types.ErrConflict)
	}

	// Posts claimed before claimant tracking carry no claimant; any device
	// but the creator may finish those.
	if post.ClaimantDevice != nil && !post.IsClaimedBy(deviceID) {
		return nil, fmt.Errorf("only the claiming device may mark done: %w", types.ErrConflict)
	}
	if post.ClaimantDevice == nil && post.DeviceID != nil && *post.DeviceID == deviceID {
		return nil, fmt.Errorf("creator cannot mark own post done: %w", types.ErrConflict)
	}

	updated, err := e.posts.TransitionStatus(ctx, postID, store.StatusTransition{
		From: types.PostStatusInProgress,
		To:   types.PostStatusPendingConfirmation,
	})
	if err != nil {
		return nil, err
	}

	e.logTransition(updated, deviceID, "mark_done")

	return updated, nil
}

// Confirm resolves a PENDING_CONFIRMATION post. Only the creator may
// confirm; posts without a device id (predating device tagging) accept any
// device. received=true closes the post permanently, received=false
// reopens it and discards the claim.
func (e *Engine) Confirm(ctx context.Context, postID, deviceID string, received bool) (*types.Post, error) {

	post, err := e.posts.Post(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.Status != types.PostStatusPendingConfirmation {
		return nil, fmt.Errorf("post %s is not awaiting confirmation: %w", postID, types.ErrConflict)
	}

	if !post.IsOwnedBy(deviceID) {
		return nil, fmt.Errorf("only the creator may confirm: %w", types.ErrConflict)
	}

	transition := store.StatusTransition{
		From: types.PostStatusPendingConfirmation,
		To:   types.PostStatusFulfilled,
	}
	action := "confirm"
	if !received {
		transition.To = types.PostStatusOpen
		transition.SetClaimant = true // Claimant nil: the prior claim is discarded.
		action = "reopen"
	}

	updated, err := e.posts.TransitionStatus(ctx, postID, transition)
	if err != nil {
		return nil, err
	}

	e.logTransition(updated, deviceID, action)

	return updated, nil
}

// Report flags a post as spam/fake. No state change: the flag is recorded
// and forwarded downstream. Fulfilled and pending posts are not reportable.
func (e *Engine) Report(ctx context.Context, postID, deviceID string) error {

	post, err := e.posts.Post(ctx, postID)
	if err != nil {
		return err
	}

	switch post.Status {
	case types.PostStatusFulfilled, types.PostStatusPendingConfirmation:
		return fmt.Errorf("post %s is not reportable in status %s: %w", postID, post.Status, types.ErrConflict)
	}

	err = e.reports.CreateReport(ctx, &types.PostReport{
		PostID:   postID,
		DeviceID: deviceID,
	})
	if err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"post_id":  postID,
		"reporter": deviceID,
	}).Warn("post reported")

	return nil
}

func (e *Engine) logTransition(post *types.Post, deviceID, action string) {
	e.logger.WithFields(logrus.Fields{
		"post_id": post.ID,
		"status":  post.Status,
		"device":  deviceID,
		"action":  action,
	}).Info("post transition applied")
}

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"locallink/internal/utils"
	"locallink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postTableName = "locallink.posts"

var postColumns = utils.StructTagValues(types.Post{})

// StatusTransition is a compare-and-set status update: the row is only
// touched while its status still equals From. SetClaimant additionally
// writes claimant_device (nil clears it).
type StatusTransition struct {
	From types.PostStatus
	To   types.PostStatus

	SetClaimant bool
	Claimant    *string
}

type PostRepository struct {
	pool *pgxpool.Pool
	feed *ChangeFeed
}

func NewPostRepository(pool *pgxpool.Pool, feed *ChangeFeed) *PostRepository {
	return &PostRepository{pool: pool, feed: feed}
}

func (r *PostRepository) Post(ctx context.Context, postID string) (*types.Post, error) {

	query, args, err := psql().Select(postColumns...).From(postTableName).
		Where(sq.Eq{"id": postID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate post query: %w", err)
	}

	var post = new(types.Post)
	err = pgxscan.Get(ctx, r.pool, post, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrPostNotFound
	}

	return post, nil
}

// Posts returns the full snapshot, newest first.
func (r *PostRepository) Posts(ctx context.Context) ([]*types.Post, error) {

	query, args, err := psql().Select(postColumns...).From(postTableName).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate posts query: %w", err)
	}

	var posts = make([]*types.Post, 0)
	err = pgxscan.Select(ctx, r.pool, &posts, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to list posts")
	}

	return posts, nil
}

// CreatePost persists the post, assigning id and timestamps and forcing
// status to OPEN regardless of what the caller set.
func (r *PostRepository) CreatePost(ctx context.Context, post *types.Post) error {

	now := time.Now()
	post.ID = utils.NanoID()
	post.Status = types.PostStatusOpen
	post.ClaimantDevice = nil
	post.CreatedAt = now
	post.UpdatedAt = now

	postMap := utils.StructToMap(post)

	query, args, err := psql().Insert(postTableName).SetMap(postMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert post query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return utils.ErrorWrapOrNil(err, "failed to create post")
	}

	r.feed.Publish(types.ChangeEvent{Kind: types.EventInsert, Post: *post})

	return nil
}

// TransitionStatus applies a compare-and-set status update and returns the
// updated row. A row that exists but no longer carries t.From yields
// ErrConflict; a missing row yields ErrPostNotFound. Either way nothing is
// mutated on failure.
func (r *PostRepository) TransitionStatus(ctx context.Context, postID string, t StatusTransition) (*types.Post, error) {

	builder := psql().Update(postTableName).
		Set("status", t.To).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": postID, "status": t.From}).
		Suffix("RETURNING " + strings.Join(postColumns, ", "))

	if t.SetClaimant {
		builder = builder.Set("claimant_device", t.Claimant)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transition query for post %s: %w", postID, err)
	}

	var post = new(types.Post)
	err = pgxscan.Get(ctx, r.pool, post, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, utils.ErrorWrapOrNil(err, "failed to transition post")
	}

	if err != nil {
		// The precondition failed: distinguish a lost race from a bad id.
		if _, getErr := r.Post(ctx, postID); getErr != nil {
			return nil, getErr
		}
		return nil, types.ErrConflict
	}

	r.feed.Publish(types.ChangeEvent{Kind: types.EventUpdate, Post: *post})

	return post, nil
}

// DeletePost removes a post outright. The core never calls this on behalf
// of devices; it exists for moderation tooling.
func (r *PostRepository) DeletePost(ctx context.Context, postID string) error {

	post, err := r.Post(ctx, postID)
	if err != nil {
		return err
	}

	query, args, err := psql().Delete(postTableName).Where(sq.Eq{"id": postID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete post query for post %s: %w", postID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return utils.ErrorWrapOrNil(err, "failed to delete post")
	}

	r.feed.Publish(types.ChangeEvent{Kind: types.EventDelete, Post: *post})

	return nil
}

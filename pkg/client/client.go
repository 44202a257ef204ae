// Package client is the post store client: typed create/update/list
// operations plus a subscribed change feed, over HTTP and websocket. All
// operations carry a bounded timeout; expiry surfaces as a retryable
// store-unavailable error.
package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"locallink/internal/identity"
	"locallink/pkg/types"

	"resty.dev/v3"
)

const requestTimeout = 5 * time.Second

type Client struct {
	baseURL  string
	deviceID string
	client   *resty.Client
}

// apiError is the error body every endpoint speaks.
type apiError struct {
	Error             string            `json:"error"`
	RetryAfterSeconds int               `json:"retry_after_seconds"`
	Fields            map[string]string `json:"fields"`
}

func New(baseURL, deviceID string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader(identity.HeaderDeviceID, deviceID)

	return &Client{
		baseURL:  baseURL,
		deviceID: deviceID,
		client:   c,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) DeviceID() string {
	return c.deviceID
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx).SetError(&apiError{})
}

// Create submits a new post. The server assigns id and created_at and
// forces status to OPEN.
func (c *Client) Create(ctx context.Context, input types.PostInput) (*types.Post, error) {
	formData := map[string]string{
		"type":        string(input.Type),
		"urgency":     string(input.Urgency),
		"category":    input.Category,
		"item":        input.Item,
		"quantity":    input.Quantity,
		"description": input.Description,
		"location":    input.Location,
		"contact":     input.Contact,
	}
	if input.Latitude != nil {
		formData["latitude"] = strconv.FormatFloat(*input.Latitude, 'f', -1, 64)
	}
	if input.Longitude != nil {
		formData["longitude"] = strconv.FormatFloat(*input.Longitude, 'f', -1, 64)
	}

	res, err := c.r(ctx).
		SetFormData(formData).
		SetResult(&types.Post{}).
		Post("/posts")
	if err != nil {
		return nil, fmt.Errorf("create post: %w: %w", types.ErrStoreUnavailable, err)
	}
	if res.IsError() {
		return nil, c.asError(res)
	}

	return res.Result().(*types.Post), nil
}

// List loads the full snapshot, newest first.
func (c *Client) List(ctx context.Context) ([]*types.Post, error) {
	var posts []*types.Post

	res, err := c.r(ctx).
		SetResult(&posts).
		Get("/posts")
	if err != nil {
		return nil, fmt.Errorf("list posts: %w: %w", types.ErrStoreUnavailable, err)
	}
	if res.IsError() {
		return nil, c.asError(res)
	}

	return posts, nil
}

func (c *Client) Get(ctx context.Context, postID string) (*types.Post, error) {
	res, err := c.r(ctx).
		SetResult(&types.Post{}).
		Get("/posts/" + postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w: %w", types.ErrStoreUnavailable, err)
	}
	if res.IsError() {
		return nil, c.asError(res)
	}

	return res.Result().(*types.Post), nil
}

type transitionResponse struct {
	Post     *types.Post `json:"post"`
	Reopened bool        `json:"reopened"`
	Notice   string      `json:"notice"`
}

// Claim takes an OPEN post on behalf of this device.
func (c *Client) Claim(ctx context.Context, postID string) (*types.Post, error) {
	return c.transition(ctx, "/posts/"+postID+"/claim", nil)
}

// MarkDone reports help rendered. attested must reflect an explicit human
// confirmation; the server refuses the transition otherwise.
func (c *Client) MarkDone(ctx context.Context, postID string, attested bool) (*types.Post, error) {
	return c.transition(ctx, "/posts/"+postID+"/done", map[string]string{
		"attested": strconv.FormatBool(attested),
	})
}

// Confirm resolves a pending post as the creator. When received is false
// the post reopens; the returned notice is meant for the user's eyes.
func (c *Client) Confirm(ctx context.Context, postID string, received bool) (*types.Post, string, error) {
	res, err := c.r(ctx).
		SetFormData(map[string]string{"received": strconv.FormatBool(received)}).
		SetResult(&transitionResponse{}).
		Post("/posts/" + postID + "/confirm")
	if err != nil {
		return nil, "", fmt.Errorf("confirm post: %w: %w", types.ErrStoreUnavailable, err)
	}
	if res.IsError() {
		return nil, "", c.asError(res)
	}

	tr := res.Result().(*transitionResponse)
	return tr.Post, tr.Notice, nil
}

// Report flags a post as spam/fake. No state change.
func (c *Client) Report(ctx context.Context, postID string) error {
	res, err := c.r(ctx).Post("/posts/" + postID + "/report")
	if err != nil {
		return fmt.Errorf("report post: %w: %w", types.ErrStoreUnavailable, err)
	}
	if res.IsError() {
		return c.asError(res)
	}

	return nil
}

func (c *Client) Stats(ctx context.Context) (*types.StatsData, error) {
	res, err := c.r(ctx).
		SetResult(&types.StatsData{}).
		Get("/stats")
	if err != nil {
		return nil, fmt.Errorf("stats: %w: %w", types.ErrStoreUnavailable, err)
	}
	if res.IsError() {
		return nil, c.asError(res)
	}

	return res.Result().(*types.StatsData), nil
}

func (c *Client) transition(ctx context.Context, path string, formData map[string]string) (*types.Post, error) {
	req := c.r(ctx).SetResult(&transitionResponse{})
	if len(formData) > 0 {
		req = req.SetFormData(formData)
	}

	res, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("transition: %w: %w", types.ErrStoreUnavailable, err)
	}
	if res.IsError() {
		return nil, c.asError(res)
	}

	return res.Result().(*transitionResponse).Post, nil
}

// asError maps an error response back onto the shared taxonomy.
func (c *Client) asError(res *resty.Response) error {
	body, _ := res.Error().(*apiError)
	if body == nil {
		body = &apiError{Error: res.Status()}
	}

	switch res.StatusCode() {
	case 404:
		return types.ErrPostNotFound
	case 409:
		return fmt.Errorf("%s: %w", body.Error, types.ErrConflict)
	case 429:
		return &types.RateLimitError{RetryAfter: time.Duration(body.RetryAfterSeconds) * time.Second}
	case 422:
		return &types.ValidationError{Fields: body.Fields}
	default:
		return fmt.Errorf("%s: %w", body.Error, types.ErrStoreUnavailable)
	}
}

package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"locallink/internal/identity"
	"locallink/internal/lifecycle"
	"locallink/internal/ratelimit"
	"locallink/internal/store"
	"locallink/internal/utils"
	"locallink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/gorilla/securecookie"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// memStore backs the lifecycle engine with the repository's compare-and-set
// semantics, in memory.
type memStore struct {
	posts   map[string]*types.Post
	reports []*types.PostReport
}

func (m *memStore) Post(_ context.Context, postID string) (*types.Post, error) {
	post, ok := m.posts[postID]
	if !ok {
		return nil, types.ErrPostNotFound
	}
	copied := *post
	return &copied, nil
}

func (m *memStore) TransitionStatus(_ context.Context, postID string, t store.StatusTransition) (*types.Post, error) {
	post, ok := m.posts[postID]
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

func (m *memStore) CreateReport(_ context.Context, report *types.PostReport) error {
	m.reports = append(m.reports, report)
	return nil
}

// newRouter builds the real routing table over an in-memory engine. The
// repository-backed read handlers are not exercised here.
func newRouter(t *testing.T, posts ...*types.Post) http.Handler {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	devices, err := identity.NewProvider(&types.Config{
		DeviceCookieName:   "ll_device",
		DeviceCookieMaxAge: 3600,
		CookieHashKey:      base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
		CookieBlockKey:     base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
	})
	require.NoError(t, err)

	m := &memStore{posts: map[string]*types.Post{}}
	for _, p := range posts {
		m.posts[p.ID] = p
	}

	s := &Service{
		logger:    logger,
		engine:    lifecycle.NewEngine(logger, m, m),
		limiter:   ratelimit.NewLimiter(5, time.Hour),
		devices:   devices,
		sanitizer: bluemonday.StrictPolicy(),
	}

	mux := flow.New()
	s.buildRouter(mux)
	return mux
}

func openPost(id, creatorDevice string) *types.Post {
	return &types.Post{
		ID:       id,
		Type:     types.PostTypeNeed,
		Urgency:  types.UrgencyNormal,
		Category: "Water",
		Item:     "Drinking Water",
		Location: "Main St",
		Contact:  "+1 555 0100",
		Status:   types.PostStatusOpen,
		DeviceID: utils.StringPtr(creatorDevice),
	}
}

func doForm(t *testing.T, router http.Handler, deviceID, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(identity.HeaderDeviceID, deviceID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeTransition(t *testing.T, rec *httptest.ResponseRecorder) transitionResponse {
	t.Helper()

	var resp transitionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestClaimRoute(t *testing.T) {
	t.Parallel()

	t.Run("routed post id reaches the engine", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, openPost("p1", "creator"))

		rec := doForm(t, router, "helper", "/posts/p1/claim", "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeTransition(t, rec)
		require.Equal(t, "p1", resp.Post.ID)
		require.Equal(t, types.PostStatusInProgress, resp.Post.Status)
	})

	t.Run("unknown post id is a 404", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, openPost("p1", "creator"))

		rec := doForm(t, router, "helper", "/posts/nope/claim", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("creator gets a conflict", func(t *testing.T) {
		t.Parallel()

		router := newRouter(t, openPost("p1", "creator"))

		rec := doForm(t, router, "creator", "/posts/p1/claim", "")
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

// Claim, mark done, deny: the full transition surface over HTTP, ending in
// the reopened notice.
func TestTransitionRoundTrip(t *testing.T) {
	t.Parallel()

	router := newRouter(t, openPost("p1", "creator"))

	rec := doForm(t, router, "helper", "/posts/p1/claim", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doForm(t, router, "helper", "/posts/p1/done", "attested=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, types.PostStatusPendingConfirmation, decodeTransition(t, rec).Post.Status)

	rec = doForm(t, router, "creator", "/posts/p1/confirm", "received=false")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeTransition(t, rec)
	require.Equal(t, types.PostStatusOpen, resp.Post.Status)
	require.True(t, resp.Reopened)
	require.Equal(t, ReopenedNotice, resp.Notice)
}

func TestMarkDoneRouteRequiresAttestation(t *testing.T) {
	t.Parallel()

	router := newRouter(t, openPost("p1", "creator"))

	rec := doForm(t, router, "helper", "/posts/p1/claim", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doForm(t, router, "helper", "/posts/p1/done", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReportRoute(t *testing.T) {
	t.Parallel()

	router := newRouter(t, openPost("p1", "creator"))

	rec := doForm(t, router, "watcher", "/posts/p1/report", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body["reported"])
}

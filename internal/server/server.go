package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"locallink/internal/identity"
	"locallink/internal/lifecycle"
	"locallink/internal/ratelimit"
	"locallink/internal/store"
	"locallink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Service struct {
	logger  *logrus.Logger
	config  *types.Config
	pool    *pgxpool.Pool
	posts   *store.PostRepository
	feed    *store.ChangeFeed
	engine  *lifecycle.Engine
	limiter *ratelimit.Limiter
	devices *identity.Provider

	sanitizer *bluemonday.Policy
	upgrader  websocket.Upgrader

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	pool *pgxpool.Pool,
	posts *store.PostRepository,
	feed *store.ChangeFeed,
	engine *lifecycle.Engine,
	limiter *ratelimit.Limiter,
	devices *identity.Provider,
) (*Service, error) {
	mux := flow.New()

	s := &Service{
		logger:  logger,
		config:  config,
		pool:    pool,
		posts:   posts,
		feed:    feed,
		engine:  engine,
		limiter: limiter,
		devices: devices,

		sanitizer: bluemonday.StrictPolicy(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Anonymous public feed; posts are world-readable anyway.
			CheckOrigin: func(*http.Request) bool { return true },
		},

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/posts", s.handleListPosts, http.MethodGet)
	r.HandleFunc("/posts", s.handleCreatePost, http.MethodPost)
	r.HandleFunc("/posts/:id", s.handleGetPost, http.MethodGet)
	r.HandleFunc("/posts/:id/matches", s.handlePostMatches, http.MethodGet)

	r.HandleFunc("/posts/:id/claim", s.handleClaim, http.MethodPost)
	r.HandleFunc("/posts/:id/done", s.handleMarkDone, http.MethodPost)
	r.HandleFunc("/posts/:id/confirm", s.handleConfirm, http.MethodPost)
	r.HandleFunc("/posts/:id/report", s.handleReport, http.MethodPost)

	r.HandleFunc("/stats", s.handleStats, http.MethodGet)
	r.HandleFunc("/templates", s.handleTemplates, http.MethodGet)
	r.HandleFunc("/feed", s.handleFeed, http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		s.logger.WithError(err).Error("health check failed")
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

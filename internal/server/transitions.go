package server

import (
	"net/http"

	"github.com/alexedwards/flow"
	"github.com/sirupsen/logrus"

	"locallink/pkg/types"
)

// ReopenedNotice is surfaced to the creator when a "no" confirmation
// reopens the post for other helpers.
const ReopenedNotice = "Post reopened. Someone else can now help."

type transitionResponse struct {
	Post     *types.Post `json:"post"`
	Reopened bool        `json:"reopened,omitempty"`
	Notice   string      `json:"notice,omitempty"`
}

func (s *Service) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID, err := s.devices.EnsureDevice(w, r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	post, err := s.engine.Claim(ctx, flow.Param(r.Context(), "id"), deviceID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, transitionResponse{Post: post})
}

func (s *Service) handleMarkDone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID, err := s.devices.EnsureDevice(w, r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	// The helper's confirmation prompt answer travels with the request;
	// the engine refuses the transition without it.
	attested := r.FormValue("attested") == "true"

	post, err := s.engine.MarkDone(ctx, flow.Param(r.Context(), "id"), deviceID, attested)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, transitionResponse{Post: post})
}

func (s *Service) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID, err := s.devices.EnsureDevice(w, r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	received := r.FormValue("received") == "true"

	post, err := s.engine.Confirm(ctx, flow.Param(r.Context(), "id"), deviceID, received)
	if err != nil {
		s.respondError(w, err)
		return
	}

	resp := transitionResponse{Post: post}
	if post.Status == types.PostStatusOpen {
		resp.Reopened = true
		resp.Notice = ReopenedNotice
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Service) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID, err := s.devices.EnsureDevice(w, r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	postID := flow.Param(r.Context(), "id")

	if err := s.engine.Report(ctx, postID, deviceID); err != nil {
		s.respondError(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"post_id": postID,
		"device":  deviceID,
	}).Info("report forwarded")

	s.respondJSON(w, http.StatusAccepted, map[string]bool{"reported": true})
}

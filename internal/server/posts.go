package server

import (
	"net/http"
	"strings"

	"locallink/internal/matching"
	"locallink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/samber/lo"
)

func (s *Service) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.Posts(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, posts)
}

func (s *Service) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Post(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, post)
}

func (s *Service) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID, err := s.devices.EnsureDevice(w, r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.respondError(w, &types.ValidationError{Fields: map[string]string{"body": "Request body must be form encoded."}})
		return
	}

	var input types.PostInput
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.respondError(w, &types.ValidationError{Fields: map[string]string{"body": "Malformed form input."}})
		return
	}

	// Sanitize before validating: a required field made entirely of markup
	// must fail validation, not slip through as an empty string.
	s.sanitizeInput(&input)

	if fieldErrs := input.Validate(); len(fieldErrs) > 0 {
		s.respondError(w, &types.ValidationError{Fields: fieldErrs})
		return
	}

	if err := s.limiter.Check(deviceID); err != nil {
		s.logger.WithField("device", deviceID).Warn("post creation rate limited")
		s.respondError(w, err)
		return
	}

	post := &types.Post{
		Type:      input.Type,
		Urgency:   input.DetectUrgency(),
		Category:  input.Category,
		Item:      input.Item,
		Location:  input.Location,
		Contact:   input.Contact,
		DeviceID:  &deviceID,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}

	if input.Quantity != "" {
		post.Quantity = &input.Quantity
	}
	if input.Description != "" {
		post.Description = &input.Description
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.respondError(w, err)
		return
	}

	s.limiter.RecordCreation(deviceID)

	s.respondJSON(w, http.StatusCreated, post)
}

func (s *Service) handlePostMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := s.posts.Post(ctx, flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	posts, err := s.posts.Posts(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, matching.Suggest(posts, target))
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.Posts(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	stats := types.StatsData{
		OpenNeeds: lo.CountBy(posts, func(p *types.Post) bool {
			return p.Type == types.PostTypeNeed && p.Status == types.PostStatusOpen
		}),
		OpenOffers: lo.CountBy(posts, func(p *types.Post) bool {
			return p.Type == types.PostTypeOffer && p.Status == types.PostStatusOpen
		}),
		Fulfilled: lo.CountBy(posts, func(p *types.Post) bool {
			return p.Status == types.PostStatusFulfilled
		}),
	}

	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Service) handleTemplates(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, types.QuickTemplates)
}

func (s *Service) sanitize(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *Service) sanitizeInput(input *types.PostInput) {
	input.Category = s.sanitize(input.Category)
	input.Item = s.sanitize(input.Item)
	input.Quantity = s.sanitize(input.Quantity)
	input.Description = s.sanitize(input.Description)
	input.Location = s.sanitize(input.Location)
	input.Contact = s.sanitize(input.Contact)
}

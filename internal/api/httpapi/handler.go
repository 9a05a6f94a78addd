// Package httpapi exposes the playback sessions over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groovebox/internal/app/player"
	"github.com/osa030/groovebox/internal/app/queue"
	"github.com/osa030/groovebox/internal/app/resolver"
	"github.com/osa030/groovebox/internal/app/view"
	"github.com/osa030/groovebox/internal/domain/track"
)

// Resolver resolves references to tracks, expanding collections.
type Resolver interface {
	ResolveAll(ctx context.Context, reference, requesterID, requesterName string) ([]track.Track, error)
}

// Handler serves the session API.
type Handler struct {
	registry *player.Registry
	resolver Resolver
	views    *view.Store
	pageSize int
	viewTTL  time.Duration
}

// Options configures the handler.
type Options struct {
	Registry *player.Registry
	Resolver Resolver
	Views    *view.Store
	PageSize int
	ViewTTL  time.Duration
}

// New creates the API handler and registers its routes on a fresh mux.
func New(opts Options) http.Handler {
	h := &Handler{
		registry: opts.Registry,
		resolver: opts.Resolver,
		views:    opts.Views,
		pageSize: opts.PageSize,
		viewTTL:  opts.ViewTTL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/{id}/queue", h.enqueue)
	mux.HandleFunc("GET /v1/sessions/{id}/queue", h.openView)
	mux.HandleFunc("DELETE /v1/sessions/{id}/queue", h.removeRange)
	mux.HandleFunc("POST /v1/sessions/{id}/queue/move", h.move)
	mux.HandleFunc("POST /v1/sessions/{id}/queue/shuffle", h.shuffle)
	mux.HandleFunc("POST /v1/sessions/{id}/skip", h.skip)
	mux.HandleFunc("POST /v1/sessions/{id}/pause", h.pause)
	mux.HandleFunc("POST /v1/sessions/{id}/resume", h.resume)
	mux.HandleFunc("POST /v1/sessions/{id}/stop", h.stop)
	mux.HandleFunc("PUT /v1/sessions/{id}/loop", h.setLoop)
	mux.HandleFunc("GET /v1/sessions/{id}/loop", h.getLoop)
	mux.HandleFunc("PUT /v1/sessions/{id}/volume", h.setVolume)
	mux.HandleFunc("GET /v1/sessions/{id}/now-playing", h.nowPlaying)
	mux.HandleFunc("POST /v1/views/{viewID}/next", h.viewNext)
	mux.HandleFunc("POST /v1/views/{viewID}/previous", h.viewPrevious)
	return mux
}

type enqueueRequest struct {
	Reference     string `json:"reference"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
}

type trackResponse struct {
	Title         string `json:"title"`
	PageURL       string `json:"page_url"`
	DurationSec   int    `json:"duration_sec,omitempty"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
}

func toTrackResponse(t track.Track) trackResponse {
	return trackResponse{
		Title:         t.Title,
		PageURL:       t.PageURL,
		DurationSec:   int(t.Duration.Seconds()),
		RequesterID:   t.RequesterID,
		RequesterName: t.RequesterName,
	}
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Reference == "" {
		writeError(w, badRequest("reference is required"))
		return
	}

	tracks, err := h.resolver.ResolveAll(r.Context(), req.Reference, req.RequesterID, req.RequesterName)
	if err != nil {
		writeError(w, err)
		return
	}

	s := h.registry.GetOrCreate(r.PathValue("id"))
	for _, t := range tracks {
		s.Enqueue(t)
	}
	zlog.Info().Msgf("enqueued tracks: session=%s reference=%s count=%d", s.ID, req.Reference, len(tracks))

	added := make([]trackResponse, len(tracks))
	for i, t := range tracks {
		added[i] = toTrackResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added})
}

func (h *Handler) openView(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	requesterID := r.URL.Query().Get("requester_id")

	opts := view.Options{
		OwnerID:  requesterID,
		Tracks:   s.Queue().Snapshot(),
		PageSize: h.pageSize,
		TTL:      h.viewTTL,
	}
	if np, elapsed, ok := s.NowPlaying(); ok {
		opts.NowPlaying = &np
		opts.Elapsed = elapsed
	}

	v := view.New(opts)
	h.views.Put(v)

	writeJSON(w, http.StatusOK, map[string]any{
		"view_id":    v.ID().String(),
		"page":       v.Render(),
		"page_count": v.PageCount(),
	})
}

type removeRangeRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (h *Handler) removeRange(w http.ResponseWriter, r *http.Request) {
	var req removeRangeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.End == 0 {
		req.End = req.Start
	}

	s := h.registry.GetOrCreate(r.PathValue("id"))
	removed, err := s.Queue().RemoveRange(req.Start, req.End)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]trackResponse, len(removed))
	for i, t := range removed {
		resp[i] = toTrackResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": resp})
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s := h.registry.GetOrCreate(r.PathValue("id"))
	moved, err := s.Queue().Move(req.From, req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"moved": toTrackResponse(moved)})
}

func (h *Handler) shuffle(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	count, err := s.Queue().Shuffle()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shuffled": count})
}

func (h *Handler) skip(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	if err := s.Skip(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skipped": true})
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	if err := s.Pause(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paused": true})
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	if err := s.Resume(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resumed": true})
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	cleared := s.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"cleared": cleared})
}

type loopRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) setLoop(w http.ResponseWriter, r *http.Request) {
	var req loopRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mode, err := player.ParseLoopMode(req.Mode)
	if err != nil {
		writeError(w, badRequest(err.Error()))
		return
	}

	s := h.registry.GetOrCreate(r.PathValue("id"))
	s.SetLoopMode(mode)
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode.String()})
}

func (h *Handler) getLoop(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]any{"mode": s.GetLoopMode().String()})
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

func (h *Handler) setVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s := h.registry.GetOrCreate(r.PathValue("id"))
	if err := s.SetVolume(req.Volume); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"volume": req.Volume})
}

func (h *Handler) nowPlaying(w http.ResponseWriter, r *http.Request) {
	s := h.registry.GetOrCreate(r.PathValue("id"))
	t, elapsed, ok := s.NowPlaying()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"playing": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"playing":     true,
		"track":       toTrackResponse(t),
		"elapsed_sec": int(elapsed.Seconds()),
	})
}

type navigateRequest struct {
	RequesterID string `json:"requester_id"`
}

func (h *Handler) viewNext(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*view.View).Next)
}

func (h *Handler) viewPrevious(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*view.View).Previous)
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, step func(*view.View, string) error) {
	id, err := uuid.Parse(r.PathValue("viewID"))
	if err != nil {
		writeError(w, badRequest("invalid view id"))
		return
	}

	var req navigateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.views.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := step(v, req.RequesterID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":       v.Render(),
		"page_count": v.PageCount(),
	})
}

// errBadRequest marks client errors that have no domain sentinel.
var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return errors.Mark(errors.New(msg), errBadRequest)
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid request body"), errBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zlog.Error().Msgf("failed to write response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, queue.ErrIndexOutOfRange),
		errors.Is(err, queue.ErrNotEnoughTracks),
		errors.Is(err, player.ErrInvalidVolume):
		status = http.StatusBadRequest
	case errors.Is(err, player.ErrNotConnected),
		errors.Is(err, player.ErrNothingPlaying),
		errors.Is(err, player.ErrNothingPaused):
		status = http.StatusConflict
	case errors.Is(err, resolver.ErrResolutionFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, view.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, view.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, view.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		zlog.Error().Msgf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

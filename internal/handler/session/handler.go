package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
	chatservice "github.com/fsg-chatbot/widget/backend/internal/service/chat"
	convservice "github.com/fsg-chatbot/widget/backend/internal/service/conversation"
	"github.com/fsg-chatbot/widget/backend/pkg/utils"
)

// Handler exposes mounted sessions over plain HTTP for clients that cannot
// hold a websocket open.
type Handler struct {
	chatSvc          *chatservice.Service
	defaultProfileID string
}

// New creates the session handler.
func New(chatSvc *chatservice.Service, defaultProfileID string) *Handler {
	return &Handler{chatSvc: chatSvc, defaultProfileID: defaultProfileID}
}

// RegisterRoutes registers session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleMount)
	r.Get("/sessions/{sessionID}", h.handleGet)
	r.Delete("/sessions/{sessionID}", h.handleUnmount)
	r.Put("/sessions/{sessionID}/input", h.handleInput)
	r.Post("/sessions/{sessionID}/submit", h.handleSubmit)
	r.Post("/sessions/{sessionID}/buttons", h.handleActivate)
}

// SessionResponse is the rendering-boundary view of a session.
type SessionResponse struct {
	ID       string               `json:"id"`
	Messages []conversation.View  `json:"messages"`
	State    convservice.Snapshot `json:"state"`
}

func newSessionResponse(s *convservice.Session) SessionResponse {
	return SessionResponse{
		ID:       s.ID(),
		Messages: conversation.NewViews(s.Messages()),
		State:    s.State(),
	}
}

func (h *Handler) handleMount(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if payload.ProfileID == "" {
		payload.ProfileID = h.defaultProfileID
	}

	s, err := h.chatSvc.Mount(r.Context(), payload.ProfileID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, newSessionResponse(s))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, newSessionResponse(s))
}

func (h *Handler) handleUnmount(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.Unmount(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleInput(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.SetInput(payload.Text)
	utils.RespondJSON(w, http.StatusOK, s.State())
}

// handleSubmit blocks for the round trip. The request context is detached so
// a dropped HTTP client does not abort the send; only unmounting does.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if !s.Submit(context.WithoutCancel(r.Context())) {
		utils.RespondError(w, http.StatusConflict, "session busy or input empty")
		return
	}
	utils.RespondJSON(w, http.StatusOK, newSessionResponse(s))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload conversation.Button
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.Activate(context.WithoutCancel(r.Context()), payload.Payload) {
		utils.RespondError(w, http.StatusConflict, "session busy or payload empty")
		return
	}
	utils.RespondJSON(w, http.StatusOK, newSessionResponse(s))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*convservice.Session, bool) {
	s, err := h.chatSvc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return nil, false
	}
	return s, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatservice.ErrProfileNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

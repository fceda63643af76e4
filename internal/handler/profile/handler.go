package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
	"github.com/fsg-chatbot/widget/backend/pkg/utils"
)

// Handler serves the widget's display strings.
type Handler struct {
	profiles  profile.Store
	defaultID string
}

// New creates a profile handler. defaultID is served by GET /profile.
func New(profiles profile.Store, defaultID string) *Handler {
	return &Handler{profiles: profiles, defaultID: defaultID}
}

// RegisterRoutes registers profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleList)
	r.Get("/profile", h.handleDefault)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profiles.List())
}

func (h *Handler) handleDefault(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = h.defaultID
	}

	p, ok := h.profiles.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "profile not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

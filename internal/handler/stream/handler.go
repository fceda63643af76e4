package stream

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
	chatservice "github.com/fsg-chatbot/widget/backend/internal/service/chat"
	convservice "github.com/fsg-chatbot/widget/backend/internal/service/conversation"
	"github.com/fsg-chatbot/widget/backend/pkg/utils"
)

// Handler replays the typing animation of a logged message as Server-Sent
// Events, for views polling the REST session API.
type Handler struct {
	chatSvc *chatservice.Service
}

// New creates a new stream handler.
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes registers the reveal stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/messages/{messageID}/reveal", h.handleReveal)
}

// FrameEvent is one step of a reveal.
type FrameEvent struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
}

func (h *Handler) handleReveal(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messageID := chi.URLParam(r, "messageID")

	session, err := h.chatSvc.Get(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	record, ok := findMessage(session.Messages(), messageID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "message not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	// User records render in full immediately.
	if !record.NeedsReveal() {
		h.send(w, flusher, "frame", FrameEvent{MessageID: record.ID, Text: record.Text, Done: true})
		h.send(w, flusher, "end", FrameEvent{MessageID: record.ID, Text: record.Text, Done: true})
		return
	}

	rev := convservice.StartReveal(r.Context(), record.Text, h.chatSvc.RevealInterval())
	for frame := range rev.Frames() {
		if err := utils.SendSSEEvent(w, flusher, "frame", FrameEvent{
			MessageID: record.ID,
			Text:      frame,
			Done:      frame == record.Text,
		}); err != nil {
			log.Debug().Err(err).Str("session_id", sessionID).Msg("reveal stream write failed")
			break
		}
	}

	if rev.Stop() {
		h.chatSvc.Recorder().RevealCancelled()
		log.Debug().Str("session_id", sessionID).Str("message_id", messageID).Msg("reveal stream cancelled")
		return
	}
	h.send(w, flusher, "end", FrameEvent{MessageID: record.ID, Text: record.Text, Done: true})
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, event string, payload FrameEvent) {
	if err := utils.SendSSEEvent(w, flusher, event, payload); err != nil {
		log.Debug().Err(err).Str("event", event).Msg("failed to send sse event")
	}
}

func findMessage(records []conversation.MessageRecord, id string) (conversation.MessageRecord, bool) {
	for _, record := range records {
		if record.ID == id {
			return record, true
		}
	}
	return conversation.MessageRecord{}, false
}

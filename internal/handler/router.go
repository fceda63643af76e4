package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	profilehandler "github.com/fsg-chatbot/widget/backend/internal/handler/profile"
	"github.com/fsg-chatbot/widget/backend/internal/handler/session"
	"github.com/fsg-chatbot/widget/backend/internal/handler/stream"
	"github.com/fsg-chatbot/widget/backend/internal/handler/widget"
	"github.com/fsg-chatbot/widget/backend/internal/metrics"
	middlewarePkg "github.com/fsg-chatbot/widget/backend/internal/middleware"
	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
	chatService "github.com/fsg-chatbot/widget/backend/internal/service/chat"
	"github.com/fsg-chatbot/widget/backend/pkg/utils"
)

// Deps are the services the router wires to HTTP.
type Deps struct {
	Profiles profile.Store
	Chat     *chatService.Service
	Recorder *metrics.Recorder
	Widget   widget.Config
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Widget.AllowedOrigins))

	profileHandler := profilehandler.New(deps.Profiles, deps.Widget.ProfileID)
	sessionHandler := session.New(deps.Chat, deps.Widget.ProfileID)
	streamHandler := stream.New(deps.Chat)
	widgetHandler := widget.New(deps.Chat, deps.Widget)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"sessions": deps.Chat.Count(),
			})
		})

		profileHandler.RegisterRoutes(api)
		sessionHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		widgetHandler.RegisterRoutes(api)
	})

	r.Handle("/metrics", deps.Recorder.Handler())

	return r
}

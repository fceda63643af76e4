package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fsg-chatbot/widget/backend/internal/config"
	"github.com/fsg-chatbot/widget/backend/internal/logging"
	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
)

// Modes of the fake dialogue server.
const (
	modeEcho    = "echo"
	modeButtons = "buttons"
	modeEmpty   = "empty"
	modeFail    = "fail"
	modeGarbage = "garbage"
)

func main() {
	var (
		addr  string
		path  string
		mode  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mockdialogue",
		Short: "Serve a fake dialogue webhook for local widget development",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(config.LogConfig{Level: "debug", Format: "console"})

			h, err := newHandler(mode, delay)
			if err != nil {
				return err
			}
			r := chi.NewRouter()
			r.Use(middleware.Recoverer)
			r.Post(path, h)

			log.Info().Str("addr", addr).Str("path", path).Str("mode", mode).Msg("mock dialogue server listening")
			return http.ListenAndServe(addr, r)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5006", "Listen address")
	cmd.Flags().StringVar(&path, "path", "/webhooks/rest/webhook", "Webhook path")
	cmd.Flags().StringVar(&mode, "mode", modeEcho, "Reply mode: echo, buttons, empty, fail or garbage")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Artificial latency before replying")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newHandler(mode string, delay time.Duration) (http.HandlerFunc, error) {
	switch mode {
	case modeEcho, modeButtons, modeEmpty, modeFail, modeGarbage:
	default:
		return nil, errors.Errorf("unknown mode %q", mode)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req conversation.DialogueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		log.Debug().Str("sender", req.Sender).Str("message", req.Message).Msg("dialogue request")

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		switch mode {
		case modeFail:
			http.Error(w, "dialogue unavailable", http.StatusInternalServerError)
			return
		case modeGarbage:
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>oops</html>"))
			return
		}

		writeReplies(w, replies(mode, req))
	}, nil
}

func replies(mode string, req conversation.DialogueRequest) []conversation.DialogueReply {
	switch mode {
	case modeEmpty:
		return []conversation.DialogueReply{}
	case modeButtons:
		if strings.HasPrefix(req.Message, "/") {
			return []conversation.DialogueReply{{RecipientID: req.Sender, Text: "Vous avez choisi " + req.Message}}
		}
		return []conversation.DialogueReply{{
			RecipientID: req.Sender,
			Text:        "Que voulez-vous faire ?",
			Buttons: []conversation.Button{
				{Title: "Inscription", Payload: "/inscription"},
				{Title: "Emploi du temps", Payload: "/emploi_du_temps"},
			},
		}}
	default:
		return []conversation.DialogueReply{{RecipientID: req.Sender, Text: req.Message}}
	}
}

func writeReplies(w http.ResponseWriter, replies []conversation.DialogueReply) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(replies); err != nil {
		log.Warn().Err(err).Msg("failed to encode replies")
	}
}

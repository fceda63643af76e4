package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/fsg-chatbot/widget/backend/internal/config"
	"github.com/fsg-chatbot/widget/backend/internal/handler"
	"github.com/fsg-chatbot/widget/backend/internal/handler/widget"
	"github.com/fsg-chatbot/widget/backend/internal/logging"
	"github.com/fsg-chatbot/widget/backend/internal/metrics"
	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
	"github.com/fsg-chatbot/widget/backend/internal/service/chat"
	"github.com/fsg-chatbot/widget/backend/internal/service/conversation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Log)

	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, continuing with system environment variables only")
	}

	profileStore := profile.NewMemoryStore(profile.Seed())
	if _, ok := profileStore.FindByID(cfg.Widget.ProfileID); !ok {
		log.Fatal().Str("profile", cfg.Widget.ProfileID).Msg("configured widget profile does not exist")
	}

	recorder := metrics.New()
	chatService := chat.NewService(chat.Config{
		Client: conversation.ClientConfig{
			Endpoint: cfg.Dialogue.Endpoint(),
			SenderID: cfg.Dialogue.SenderID,
			Timeout:  cfg.Dialogue.Timeout,
		},
		RevealInterval: cfg.Widget.RevealInterval,
	}, profileStore, recorder, nil)

	log.Info().
		Str("endpoint", cfg.Dialogue.Endpoint()).
		Str("sender", cfg.Dialogue.SenderID).
		Dur("timeout", cfg.Dialogue.Timeout).
		Str("profile", cfg.Widget.ProfileID).
		Msg("dialogue client configured")

	router := handler.NewRouter(handler.Deps{
		Profiles: profileStore,
		Chat:     chatService,
		Recorder: recorder,
		Widget: widget.Config{
			ProfileID:      cfg.Widget.ProfileID,
			RateLimit:      cfg.Widget.RateLimit,
			RateBurst:      cfg.Widget.RateBurst,
			AllowedOrigins: cfg.Widget.AllowedOrigins,
		},
	})

	startServer(ctx, cfg.Server, router)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	chatService.Shutdown(shutdownCtx)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("FSG chatbot widget backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

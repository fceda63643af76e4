package chat

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/fsg-chatbot/widget/backend/internal/metrics"
	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
	"github.com/fsg-chatbot/widget/backend/internal/service/conversation"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Config is shared by every session the service mounts.
type Config struct {
	Client         conversation.ClientConfig
	RevealInterval time.Duration
}

// Service tracks the conversation views that are currently mounted.
type Service struct {
	cfg        Config
	profiles   profile.Store
	recorder   *metrics.Recorder
	httpClient *http.Client

	mu       sync.RWMutex
	sessions map[string]*conversation.Session
}

// NewService builds a registry. httpClient may be nil.
func NewService(cfg Config, profiles profile.Store, recorder *metrics.Recorder, httpClient *http.Client) *Service {
	if cfg.RevealInterval <= 0 {
		cfg.RevealInterval = conversation.DefaultRevealInterval
	}
	return &Service{
		cfg:        cfg,
		profiles:   profiles,
		recorder:   recorder,
		httpClient: httpClient,
		sessions:   make(map[string]*conversation.Session),
	}
}

// RevealInterval is the typing cadence for bot messages.
func (s *Service) RevealInterval() time.Duration {
	return s.cfg.RevealInterval
}

// Recorder exposes the metrics recorder; it may be nil.
func (s *Service) Recorder() *metrics.Recorder {
	return s.recorder
}

// Mount opens a new session using the texts of profileID.
func (s *Service) Mount(_ context.Context, profileID string) (*conversation.Session, error) {
	p, ok := s.profiles.FindByID(profileID)
	if !ok {
		return nil, errors.Wrapf(ErrProfileNotFound, "profile %q", profileID)
	}

	session := conversation.NewSession(conversation.SessionConfig{
		Client: s.cfg.Client,
		Texts:  p.Texts,
	}, conversation.WithHTTPClient(s.httpClient), conversation.WithRecorder(s.recorder))

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.recorder.SessionMounted()
	log.Info().Str("session_id", session.ID()).Str("profile", p.ID).Msg("session mounted")
	return session, nil
}

// Get retrieves a mounted session.
func (s *Service) Get(_ context.Context, sessionID string) (*conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Unmount closes a session and forgets it.
func (s *Service) Unmount(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	s.recorder.SessionUnmounted()
	log.Info().Str("session_id", sessionID).Msg("session unmounted")
	return nil
}

// Count reports how many sessions are mounted.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown unmounts every session.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		_ = s.Unmount(ctx, id)
	}
}

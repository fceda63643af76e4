package conversation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
)

// SessionConfig is everything a mounted conversation view needs.
type SessionConfig struct {
	Client ClientConfig
	Texts  Texts
}

// Session is one mounted conversation view: its log, its flags and the client
// that drives them. Closing it discards everything.
type Session struct {
	id     string
	log    *Log
	state  *State
	client *Client

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewSession mounts a session and seeds the welcome message before returning.
func NewSession(cfg SessionConfig, opts ...ClientOption) *Session {
	msgs := NewLog()
	state := NewState()
	client := NewClient(cfg.Client, msgs, state, cfg.Texts, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     uuid.NewString(),
		log:    msgs,
		state:  state,
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}

	msgs.Append(conversation.NewBotMessage(cfg.Texts.Welcome, nil, client.now()))
	return s
}

// ID identifies the mounted session.
func (s *Session) ID() string { return s.id }

// Messages returns the log snapshot for rendering.
func (s *Session) Messages() []conversation.MessageRecord { return s.log.ReadAll() }

// Busy reports whether a send is in flight.
func (s *Session) Busy() bool { return s.state.Busy() }

// Input returns the composer text.
func (s *Session) Input() string { return s.state.Input() }

// SetInput updates the composer text, typically on every keystroke.
func (s *Session) SetInput(text string) { s.state.SetInput(text) }

// State returns both flags at once.
func (s *Session) State() Snapshot { return s.state.Snapshot() }

// OnAppend subscribes to log appends.
func (s *Session) OnAppend(fn func(records ...conversation.MessageRecord)) { s.log.OnAppend(fn) }

// OnStateChange subscribes to busy/input changes.
func (s *Session) OnStateChange(fn func(Snapshot)) { s.state.OnChange(fn) }

// Submit sends the pending input. It is a no-op while busy or when the input
// is blank, and blocks until the round trip completes otherwise.
func (s *Session) Submit(ctx context.Context) bool {
	return s.run(ctx, s.client.SendPending)
}

// Activate sends a quick-reply payload exactly as if it had been typed and
// submitted. The button title is never sent.
func (s *Session) Activate(ctx context.Context, payload string) bool {
	return s.run(ctx, func(ctx context.Context) bool {
		return s.client.Send(ctx, payload)
	})
}

// Close unmounts the session and aborts an in-flight send. It waits for that
// send to finish appending so nothing is written after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.inflight.Wait()
}

// Closed reports whether the session has been unmounted.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) run(ctx context.Context, send func(context.Context) bool) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	ctx, cancel := mergeCancel(ctx, s.ctx)
	defer cancel()
	return send(ctx)
}

// mergeCancel derives a context from ctx that is also cancelled with other.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

package widget

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fsg-chatbot/widget/backend/internal/middleware"
	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
	chatservice "github.com/fsg-chatbot/widget/backend/internal/service/chat"
	convservice "github.com/fsg-chatbot/widget/backend/internal/service/conversation"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Config tunes the websocket boundary.
type Config struct {
	ProfileID      string
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
}

// Handler mounts one conversation session per websocket connection. The
// session lives exactly as long as the connection.
type Handler struct {
	chatSvc  *chatservice.Service
	cfg      Config
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// New creates the websocket handler.
func New(chatSvc *chatservice.Service, cfg Config) *Handler {
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}
	h := &Handler{chatSvc: chatSvc, cfg: cfg, logger: log.Logger}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return h
}

// RegisterRoutes registers the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// InputMessage carries the composer text on every keystroke.
type InputMessage struct {
	Text string `json:"text"`
}

// ActivateMessage carries a quick-reply payload.
type ActivateMessage struct {
	Payload string `json:"payload"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// SnapshotData is sent once when the view mounts.
type SnapshotData struct {
	Messages []conversation.View `json:"messages"`
	State    convservice.Snapshot `json:"state"`
}

// RevealData is one typing frame of a bot message.
type RevealData struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
}

type connection struct {
	h       *Handler
	conn    *websocket.Conn
	session *convservice.Session
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	closed  bool

	renderMu  sync.Mutex
	stopping  bool
	renderers map[string]*convservice.Renderer

	wg sync.WaitGroup
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.chatSvc == nil {
		http.Error(w, "chat service unavailable", http.StatusServiceUnavailable)
		return
	}

	profileID := r.URL.Query().Get("profile")
	if profileID == "" {
		profileID = h.cfg.ProfileID
	}

	session, err := h.chatSvc.Mount(r.Context(), profileID)
	if err != nil {
		http.Error(w, "profile not found", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		_ = h.chatSvc.Unmount(context.Background(), session.ID())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &connection{
		h:         h,
		conn:      conn,
		session:   session,
		limiter:   rate.NewLimiter(rate.Limit(h.cfg.RateLimit), h.cfg.RateBurst),
		ctx:       ctx,
		cancel:    cancel,
		renderers: make(map[string]*convservice.Renderer),
	}
	defer c.teardown()

	h.logger.Info().Str("session_id", session.ID()).Msg("websocket connected")
	c.serve()
}

func (c *connection) serve() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pingLoop()
	}()

	c.session.OnAppend(c.handleAppend)
	c.session.OnStateChange(func(snap convservice.Snapshot) {
		c.send("state", snap)
	})

	messages := c.session.Messages()
	c.send("snapshot", SnapshotData{
		Messages: conversation.NewViews(messages),
		State:    c.session.State(),
	})
	for _, record := range messages {
		if record.NeedsReveal() {
			c.startReveal(record)
		}
	}

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.h.logger.Warn().Err(err).Str("session_id", c.session.ID()).Msg("websocket read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}

		if !c.handleMessage(&msg) {
			return
		}
	}
}

// handleMessage dispatches one inbound frame. It returns false when the view
// asked to close.
func (c *connection) handleMessage(msg *inboundMessage) bool {
	switch msg.Type {
	case "input":
		var in InputMessage
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			c.sendError("invalid input payload")
			return true
		}
		c.session.SetInput(in.Text)
	case "submit":
		c.async(func(ctx context.Context) bool { return c.session.Submit(ctx) })
	case "activate":
		var act ActivateMessage
		if err := json.Unmarshal(msg.Data, &act); err != nil {
			c.sendError("invalid activate payload")
			return true
		}
		c.async(func(ctx context.Context) bool { return c.session.Activate(ctx, act.Payload) })
	case "close":
		c.h.logger.Debug().Str("session_id", c.session.ID()).Msg("view closed by client")
		c.send("closed", nil)
		return false
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
	return true
}

// async runs a send off the read loop so the loop keeps serving input frames
// while the round trip is in flight.
func (c *connection) async(send func(ctx context.Context) bool) {
	if c.session.Busy() {
		c.sendError("busy")
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if !send(c.ctx) {
			c.h.logger.Debug().Str("session_id", c.session.ID()).Msg("send ignored")
		}
	}()
}

func (c *connection) handleAppend(records ...conversation.MessageRecord) {
	for _, record := range records {
		c.send("message", conversation.NewView(record))
		if record.NeedsReveal() {
			c.startReveal(record)
		}
	}
}

func (c *connection) startReveal(record conversation.MessageRecord) {
	recorder := c.h.chatSvc.Recorder()
	renderer := convservice.NewRenderer(c.h.chatSvc.RevealInterval(), recorder.RevealCancelled)

	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if c.stopping {
		return
	}
	c.renderers[record.ID] = renderer
	rev := renderer.Render(c.ctx, record.Text)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.forgetRenderer(record.ID, renderer)
		for frame := range rev.Frames() {
			c.send("reveal", RevealData{
				MessageID: record.ID,
				Text:      frame,
				Done:      frame == rev.Text(),
			})
		}
	}()
}

func (c *connection) forgetRenderer(id string, renderer *convservice.Renderer) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if c.renderers[id] == renderer {
		delete(c.renderers, id)
	}
}

func (c *connection) teardown() {
	c.cancel()

	c.renderMu.Lock()
	c.stopping = true
	renderers := make([]*convservice.Renderer, 0, len(c.renderers))
	for _, r := range c.renderers {
		renderers = append(renderers, r)
	}
	c.renderMu.Unlock()
	for _, r := range renderers {
		r.Stop()
	}

	// A server shutdown may have unmounted the session already.
	if err := c.h.chatSvc.Unmount(context.Background(), c.session.ID()); err != nil && !errors.Is(err, chatservice.ErrSessionNotFound) {
		c.h.logger.Warn().Err(err).Str("session_id", c.session.ID()).Msg("unmount failed")
	}

	c.writeMu.Lock()
	c.closed = true
	c.writeMu.Unlock()

	c.wg.Wait()
	c.conn.Close()
	c.h.logger.Info().Str("session_id", c.session.ID()).Msg("websocket disconnected")
}

func (c *connection) send(kind string, data interface{}) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}

	msg := outgoingMessage{
		Type:      kind,
		SessionID: c.session.ID(),
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.h.logger.Debug().Err(err).Str("type", kind).Msg("websocket write failed")
	}
}

func (c *connection) sendError(message string) {
	c.send("error", map[string]string{"message": message})
}

func (c *connection) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			if c.closed {
				c.writeMu.Unlock()
				return
			}
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

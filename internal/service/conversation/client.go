package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/fsg-chatbot/widget/backend/internal/metrics"
	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
)

const maxReplyBytes = 1 << 20

// ClientConfig locates the dialogue webhook.
type ClientConfig struct {
	// Endpoint is the full webhook URL, e.g. http://localhost:5006/webhooks/rest/webhook.
	Endpoint string
	// SenderID is sent with every message and identifies the conversation
	// to the dialogue server.
	SenderID string
	// Timeout bounds one round trip. Zero leaves it unbounded.
	Timeout time.Duration
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the transport used for round trips.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRecorder reports round-trip outcomes to rec.
func WithRecorder(rec *metrics.Recorder) ClientOption {
	return func(c *Client) { c.recorder = rec }
}

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client runs send-and-receive cycles against the dialogue webhook and
// appends their results to a session log.
type Client struct {
	cfg        ClientConfig
	log        *Log
	state      *State
	texts      Texts
	httpClient *http.Client
	recorder   *metrics.Recorder
	now        func() time.Time
}

// NewClient binds a client to one session's log and state.
func NewClient(cfg ClientConfig, msgs *Log, state *State, texts Texts, opts ...ClientOption) *Client {
	c := &Client{
		cfg:        cfg,
		log:        msgs,
		state:      state,
		texts:      texts,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send runs one cycle for text. Blank text or a busy session make it a
// no-op; the return value reports whether a cycle ran.
func (c *Client) Send(ctx context.Context, text string) bool {
	if !c.state.beginText(text) {
		return false
	}
	c.cycle(ctx, text)
	return true
}

// SendPending runs one cycle for the session's pending input.
func (c *Client) SendPending(ctx context.Context) bool {
	text, ok := c.state.beginPending()
	if !ok {
		return false
	}
	c.cycle(ctx, text)
	return true
}

func (c *Client) cycle(ctx context.Context, text string) {
	defer c.state.end()

	c.log.Append(conversation.NewUserMessage(text, c.now()))

	started := time.Now()
	replies, err := c.exchange(ctx, text)
	outcome := Classify(err)

	switch {
	case err != nil:
		log.Warn().Err(err).Str("outcome", string(outcome)).Msg("dialogue exchange failed")
		c.log.Append(conversation.NewBotMessage(errorText(c.texts, err), nil, c.now()))
	case len(replies) == 0:
		outcome = OutcomeEmpty
		c.log.Append(conversation.NewBotMessage(c.texts.CouldNotProcess, nil, c.now()))
	default:
		c.log.Append(c.toRecords(replies)...)
	}

	log.Debug().
		Str("outcome", string(outcome)).
		Int("replies", len(replies)).
		Dur("elapsed", time.Since(started)).
		Msg("dialogue exchange completed")
	c.recorder.DialogueCompleted(string(outcome), time.Since(started))
}

func (c *Client) toRecords(replies []conversation.DialogueReply) []conversation.MessageRecord {
	now := c.now()
	records := make([]conversation.MessageRecord, 0, len(replies))
	for _, reply := range replies {
		text := reply.Text
		if text == "" {
			text = c.texts.NotUnderstood
		}
		records = append(records, conversation.NewBotMessage(text, reply.Buttons, now))
	}
	return records
}

// exchange performs the HTTP round trip and decodes the reply array.
func (c *Client) exchange(ctx context.Context, text string) ([]conversation.DialogueReply, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(conversation.DialogueRequest{Sender: c.cfg.SenderID, Message: text})
	if err != nil {
		return nil, &GenericError{Err: errors.Wrap(err, "marshal request")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &GenericError{Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReplyBytes))
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, &GenericError{Err: errors.Wrap(err, "read response")}
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}

	return decodeReplies(raw)
}

// decodeReplies maps the webhook body to replies. A well-formed body that is
// not an array carries no usable reply; array elements that are not objects
// become replies without text.
func decodeReplies(raw []byte) ([]conversation.DialogueReply, error) {
	if !json.Valid(raw) {
		return nil, &GenericError{Err: errors.New("decode response: body is not valid JSON")}
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &GenericError{Err: errors.Wrap(err, "decode response")}
	}

	replies := make([]conversation.DialogueReply, len(elems))
	for i, elem := range elems {
		if !bytes.HasPrefix(bytes.TrimSpace(elem), []byte("{")) {
			continue
		}
		if err := json.Unmarshal(elem, &replies[i]); err != nil {
			return nil, &GenericError{Err: errors.Wrapf(err, "decode reply %d", i)}
		}
	}
	return replies, nil
}

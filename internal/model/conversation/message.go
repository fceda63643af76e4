package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// TimeLayout is the fixed hour:minute display format.
const TimeLayout = "15:04"

// Button is a quick reply offered by the bot. Activating it sends Payload as
// if the user had typed it; Title is display-only.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// MessageRecord is one immutable entry of the conversation log.
type MessageRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Buttons   []Button  `json:"buttons,omitempty"`
}

// NewUserMessage builds a user record. User records never carry buttons.
func NewUserMessage(text string, now time.Time) MessageRecord {
	return MessageRecord{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: now,
	}
}

// NewBotMessage builds a bot record with a private copy of buttons.
func NewBotMessage(text string, buttons []Button, now time.Time) MessageRecord {
	return MessageRecord{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderBot,
		Timestamp: now,
		Buttons:   cloneButtons(buttons),
	}
}

// Clone returns a copy that shares no mutable state with m.
func (m MessageRecord) Clone() MessageRecord {
	m.Buttons = cloneButtons(m.Buttons)
	return m
}

// NeedsReveal reports whether the record is shown through the typing reveal.
// User messages always render in full immediately.
func (m MessageRecord) NeedsReveal() bool {
	return m.Sender == SenderBot
}

// FormatTime renders t as hour:minute in loc. A nil loc keeps t's location.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimeLayout)
}

func cloneButtons(buttons []Button) []Button {
	if len(buttons) == 0 {
		return nil
	}
	return append([]Button(nil), buttons...)
}

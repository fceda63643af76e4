package conversation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotMessageOwnsButtons(t *testing.T) {
	buttons := []Button{{Title: "Yes", Payload: "/affirm"}}
	m := NewBotMessage("ok?", buttons, time.Now())
	buttons[0].Payload = "/changed"

	assert.Equal(t, "/affirm", m.Buttons[0].Payload)
	assert.NotEmpty(t, m.ID)
	assert.True(t, m.NeedsReveal())
}

func TestUserMessageRendersImmediately(t *testing.T) {
	m := NewUserMessage("hello", time.Now())
	assert.False(t, m.NeedsReveal())
	assert.Nil(t, m.Buttons)
	assert.NotEqual(t, m.ID, NewUserMessage("hello", time.Now()).ID)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 59, 0, time.UTC)
	assert.Equal(t, "07:05", FormatTime(ts, nil))
	assert.Equal(t, "08:05", FormatTime(ts, time.FixedZone("CET", 3600)))
}

func TestViewWireShape(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	v := NewView(NewBotMessage("hi", []Button{{Title: "Yes", Payload: "yes"}}, ts))

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "hi", got["text"])
	assert.Equal(t, "bot", got["sender"])
	assert.Equal(t, "14:30", got["time"])
	assert.Equal(t, true, got["reveal"])
	assert.Len(t, got["buttons"], 1)
}

func TestDialogueReplyIgnoresUnknownFields(t *testing.T) {
	var replies []DialogueReply
	raw := `[{"recipient_id":"user","text":"a"},{"recipient_id":"user","image":"http://x/y.png"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &replies))

	require.Len(t, replies, 2)
	assert.Equal(t, "a", replies[0].Text)
	assert.Empty(t, replies[1].Text)
}

package conversation

// DialogueRequest is the body posted to the dialogue webhook.
type DialogueRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// DialogueReply is one element of the webhook's JSON array response. Fields
// other than text and buttons (images, custom payloads) are ignored.
type DialogueReply struct {
	RecipientID string   `json:"recipient_id,omitempty"`
	Text        string   `json:"text,omitempty"`
	Buttons     []Button `json:"buttons,omitempty"`
}

// View is the wire form of a record for the rendering boundary.
type View struct {
	MessageRecord
	Time   string `json:"time"`
	Reveal bool   `json:"reveal"`
}

// NewView decorates a record with its display time.
func NewView(m MessageRecord) View {
	return View{
		MessageRecord: m.Clone(),
		Time:          FormatTime(m.Timestamp, nil),
		Reveal:        m.NeedsReveal(),
	}
}

// NewViews maps records to views preserving order.
func NewViews(records []MessageRecord) []View {
	views := make([]View, 0, len(records))
	for _, r := range records {
		views = append(views, NewView(r))
	}
	return views
}

package conversation

import (
	"sync"

	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
)

// Log is the append-only, insertion-ordered message log of one session.
type Log struct {
	mu        sync.RWMutex
	records   []conversation.MessageRecord
	observers []func(records ...conversation.MessageRecord)
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{records: make([]conversation.MessageRecord, 0, 16)}
}

// Append adds records after every prior record. Observers run after the lock
// is released and see exactly the appended records.
func (l *Log) Append(records ...conversation.MessageRecord) {
	if len(records) == 0 {
		return
	}

	appended := make([]conversation.MessageRecord, len(records))
	for i, r := range records {
		appended[i] = r.Clone()
	}

	l.mu.Lock()
	l.records = append(l.records, appended...)
	observers := append(([]func(...conversation.MessageRecord))(nil), l.observers...)
	l.mu.Unlock()

	for _, fn := range observers {
		fn(cloneAll(appended)...)
	}
}

// ReadAll returns a snapshot of the log in insertion order.
func (l *Log) ReadAll() []conversation.MessageRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.records)
}

// Len reports how many records have been appended.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// OnAppend registers fn to be called after every append.
func (l *Log) OnAppend(fn func(records ...conversation.MessageRecord)) {
	l.mu.Lock()
	l.observers = append(l.observers, fn)
	l.mu.Unlock()
}

func cloneAll(records []conversation.MessageRecord) []conversation.MessageRecord {
	out := make([]conversation.MessageRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

package conversation

import (
	"context"
	"sync"
	"time"
)

// DefaultRevealInterval is the per-character typing cadence.
const DefaultRevealInterval = 12 * time.Millisecond

// Reveal emits the growing prefixes of one message. For a text of N runes it
// delivers N+1 frames, from the empty prefix up to the full text, then closes
// Frames. Once Stop returns or the parent context is done, no further frame
// is delivered.
type Reveal struct {
	text     string
	frames   chan string
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
	finished bool
}

// StartReveal begins revealing text at the given cadence. A non-positive
// interval falls back to DefaultRevealInterval.
func StartReveal(ctx context.Context, text string, interval time.Duration) *Reveal {
	if interval <= 0 {
		interval = DefaultRevealInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Reveal{
		text:   text,
		frames: make(chan string),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.run(ctx, interval)
	return r
}

// Text returns the full message being revealed.
func (r *Reveal) Text() string {
	return r.text
}

// Frames yields the prefixes in order and is closed at the end or on Stop.
func (r *Reveal) Frames() <-chan string {
	return r.frames
}

// Done is closed once the reveal goroutine has exited.
func (r *Reveal) Done() <-chan struct{} {
	return r.done
}

// Completed reports whether the full text was delivered.
func (r *Reveal) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Stop cancels the reveal and waits for it to wind down. It reports whether
// the reveal was cut short.
func (r *Reveal) Stop() bool {
	r.cancel()
	<-r.done
	return !r.Completed()
}

func (r *Reveal) run(ctx context.Context, interval time.Duration) {
	defer close(r.done)
	defer close(r.frames)
	defer r.cancel()

	runes := []rune(r.text)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for i := 0; i <= len(runes); i++ {
		if i > 0 {
			timer.Reset(interval)
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}

		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case r.frames <- string(runes[:i]):
		}
	}

	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
}

// Renderer owns the reveal of one display slot. Rendering a new text cancels
// whatever the slot was revealing and starts over from the empty prefix.
type Renderer struct {
	interval time.Duration
	onCancel func()

	mu      sync.Mutex
	current *Reveal
}

// NewRenderer returns a renderer with the given cadence. onCancel, if set, is
// called whenever a reveal is cut short.
func NewRenderer(interval time.Duration, onCancel func()) *Renderer {
	return &Renderer{interval: interval, onCancel: onCancel}
}

// Render replaces the slot's reveal with a fresh one for text.
func (r *Renderer) Render(ctx context.Context, text string) *Reveal {
	r.mu.Lock()
	prev := r.current
	next := StartReveal(ctx, text, r.interval)
	r.current = next
	r.mu.Unlock()

	r.stop(prev)
	return next
}

// Stop cancels the in-flight reveal, if any.
func (r *Renderer) Stop() {
	r.mu.Lock()
	prev := r.current
	r.current = nil
	r.mu.Unlock()

	r.stop(prev)
}

func (r *Renderer) stop(rev *Reveal) {
	if rev == nil {
		return
	}
	if rev.Stop() && r.onCancel != nil {
		r.onCancel()
	}
}

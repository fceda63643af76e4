package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fsg-chatbot/widget/backend/internal/config"
	"github.com/fsg-chatbot/widget/backend/internal/logging"
	"github.com/fsg-chatbot/widget/backend/internal/model/conversation"
	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
	convservice "github.com/fsg-chatbot/widget/backend/internal/service/conversation"
)

type options struct {
	endpoint  string
	sender    string
	profileID string
	timeout   time.Duration
	interval  time.Duration
	verbose   bool
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := options{
		endpoint:  cfg.Dialogue.Endpoint(),
		sender:    cfg.Dialogue.SenderID,
		profileID: cfg.Widget.ProfileID,
		timeout:   cfg.Dialogue.Timeout,
		interval:  cfg.Widget.RevealInterval,
	}

	cmd := &cobra.Command{
		Use:   "widget-cli",
		Short: "Talk to the FSG chatbot from a terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logging.SetupWriter(config.LogConfig{Level: level, Format: "console"}, cmd.ErrOrStderr())
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", opts.endpoint, "Dialogue webhook URL")
	cmd.Flags().StringVar(&opts.sender, "sender", opts.sender, "Sender id sent with every message")
	cmd.Flags().StringVar(&opts.profileID, "profile", opts.profileID, "Widget profile providing the fixed texts")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "Round-trip timeout, 0 waits forever")
	cmd.Flags().DurationVar(&opts.interval, "interval", opts.interval, "Typing cadence per character")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log dialogue exchanges to stderr")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// terminal renders a session the way the widget does: bot messages are typed
// out, buttons are listed and can be picked by number.
type terminal struct {
	out      io.Writer
	interval time.Duration
	bot      func(a ...interface{}) string
	user     func(a ...interface{}) string
	dim      func(a ...interface{}) string

	mu      sync.Mutex
	buttons []conversation.Button
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	p, ok := profile.NewMemoryStore(profile.Seed()).FindByID(opts.profileID)
	if !ok {
		return errors.Errorf("unknown profile %q", opts.profileID)
	}

	session := convservice.NewSession(convservice.SessionConfig{
		Client: convservice.ClientConfig{
			Endpoint: opts.endpoint,
			SenderID: opts.sender,
			Timeout:  opts.timeout,
		},
		Texts: p.Texts,
	})
	defer session.Close()

	t := &terminal{
		out:      out,
		interval: opts.interval,
		bot:      color.New(color.FgCyan, color.Bold).SprintFunc(),
		user:     color.New(color.FgGreen, color.Bold).SprintFunc(),
		dim:      color.New(color.Faint).SprintFunc(),
	}

	fmt.Fprintln(out, t.bot(p.Title))
	fmt.Fprintf(out, "Endpoint: %s\n", opts.endpoint)
	fmt.Fprintln(out, "Type your message and press Enter. Pick a button with /N. Type 'exit' or press Ctrl+C to quit.")
	fmt.Fprintln(out)

	for _, record := range session.Messages() {
		t.render(ctx, record)
	}
	session.OnAppend(func(records ...conversation.MessageRecord) {
		for _, record := range records {
			if record.Sender == conversation.SenderBot {
				t.render(ctx, record)
			}
		}
	})

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, t.user("You: "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			return nil
		}

		if payload, ok := t.pick(line); ok {
			session.Activate(ctx, payload)
		} else {
			session.SetInput(line)
			session.Submit(ctx)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// pick resolves "/N" to the payload of the N-th button of the last bot message.
func (t *terminal) pick(line string) (string, bool) {
	if !strings.HasPrefix(line, "/") {
		return "", false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(line, "/"))
	if err != nil {
		return "", false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 1 || n > len(t.buttons) {
		return "", false
	}
	return t.buttons[n-1].Payload, true
}

func (t *terminal) render(ctx context.Context, record conversation.MessageRecord) {
	fmt.Fprintf(t.out, "%s %s ", t.dim(conversation.FormatTime(record.Timestamp, time.Local)), t.bot("Bot:"))

	shown := 0
	rev := convservice.StartReveal(ctx, record.Text, t.interval)
	for frame := range rev.Frames() {
		runes := []rune(frame)
		fmt.Fprint(t.out, string(runes[shown:]))
		shown = len(runes)
	}
	fmt.Fprintln(t.out)

	t.mu.Lock()
	t.buttons = record.Buttons
	t.mu.Unlock()
	for i, b := range record.Buttons {
		fmt.Fprintf(t.out, "  %s %s\n", t.dim(fmt.Sprintf("[/%d]", i+1)), b.Title)
	}
}

// Command relay streams a chat completion from a provider, either into an
// interactive terminal UI or, with --print, plainly to stdout.
//
// Usage:
//
//	ANTHROPIC_API_KEY=sk-... relay [flags]
//	relay --provider ollama --print "why is the sky blue?"
//	relay --provider generic --base-url http://localhost:8080/v1/chat/completions --print hi
//	relay --transcript chat.json --print "and in French?"
//
// A .env file in the working directory is loaded before flags are parsed,
// so every flag with an env name can be set there.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/relay"
	bt "github.com/fwojciec/relay/bubbletea"
	relayhttp "github.com/fwojciec/relay/http"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

type options struct {
	Provider    string        `short:"p" long:"provider" env:"RELAY_PROVIDER" choice:"anthropic" choice:"openai" choice:"ollama" choice:"gemini" choice:"generic" description:"Provider (auto-detected from API key variables if omitted)"`
	Model       string        `short:"m" long:"model" env:"RELAY_MODEL" description:"Model ID (default: provider default)"`
	APIKey      string        `long:"api-key" env:"RELAY_API_KEY" description:"API key (overrides the provider's variable)"`
	BaseURL     string        `long:"base-url" env:"RELAY_BASE_URL" description:"Endpoint base URL; the full URL for the generic provider"`
	Framing     string        `long:"framing" choice:"sse" choice:"ndjson" default:"sse" description:"Response framing of the generic provider"`
	System      string        `short:"s" long:"system" env:"RELAY_SYSTEM" description:"System prompt"`
	MaxTokens   int           `long:"max-tokens" description:"Maximum tokens to generate (0: provider default)"`
	Temperature *float64      `long:"temperature" description:"Sampling temperature in [0, 2]"`
	Timeout     time.Duration `long:"timeout" env:"RELAY_TIMEOUT" default:"5m" description:"Deadline for each request (0: none)"`
	Attach      []string      `short:"a" long:"attach" description:"Glob of files appended to the system prompt (repeatable, ** supported)"`
	Print       bool          `long:"print" description:"Stream one reply to stdout instead of starting the UI"`
	PauseAfter  int           `long:"pause-after" description:"In print mode, pause after this many chunks"`
	ResumeAfter time.Duration `long:"resume-after" default:"1s" description:"In print mode, resume a paused stream after this long"`
	LogLevel    string        `long:"log-level" env:"RELAY_LOG_LEVEL" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"warn" description:"Log level"`
	LogFile     string        `long:"log-file" env:"RELAY_LOG_FILE" description:"Log destination (default: stderr in print mode, discarded in the UI)"`
	Transcript  string        `short:"t" long:"transcript" env:"RELAY_TRANSCRIPT" description:"JSON file the conversation is continued from and saved to"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	opts, args, err := parseOptions(os.Args[1:])
	if flags.WroteHelp(err) {
		fmt.Fprintln(os.Stdout, err)
		return nil
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	// Env vars are read here and passed as values.
	adapter, err := resolveProvider(providerConfig{
		name:    opts.Provider,
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		model:   opts.Model,
		framing: opts.Framing,
	}, envKeys{
		anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		openai:    os.Getenv("OPENAI_API_KEY"),
		gemini:    os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return err
	}

	store := transcriptStore{path: opts.Transcript, now: time.Now}
	transcript, err := store.load()
	if err != nil {
		return err
	}

	base := opts.System
	if base == "" {
		base = transcript.SystemPrompt
	}
	system := base
	if len(opts.Attach) > 0 {
		files, err := attachments(os.DirFS("."), opts.Attach)
		if err != nil {
			return err
		}
		system = strings.TrimSpace(system + "\n\n" + files)
	}

	issuer := relayhttp.New(relayhttp.WithLogger(logger), relayhttp.WithUserAgent("relay"))
	client := relay.NewClient(issuer, normalizers(),
		relay.WithTimeout(opts.Timeout),
		relay.WithLogger(logger),
	)
	newRequest := func(history []relay.Message) relay.Request {
		return relay.Request{
			Model:        opts.Model,
			SystemPrompt: system,
			Messages:     history,
			MaxTokens:    opts.MaxTokens,
			Temperature:  opts.Temperature,
		}
	}

	if opts.Print {
		prompt, err := promptText(args, os.Stdin)
		if err != nil {
			return err
		}
		history := append(slices.Clone(transcript.Messages), relay.UserMessage(prompt))
		res, err := printStream(ctx, client, adapter, newRequest(history), os.Stdout, pacing{
			pauseAfter:  opts.PauseAfter,
			resumeAfter: opts.ResumeAfter,
		}, logger)
		if err != nil {
			return err
		}
		return store.save(transcript, adapter.Label(), res.Model, base, append(history, res.Message))
	}

	start := func(ctx context.Context, history []relay.Message, sink relay.ChunkFunc) (*relay.Handle, error) {
		return client.StartStream(ctx, adapter, newRequest(history), sink)
	}
	title := adapter.Label()
	if opts.Model != "" {
		title += "/" + opts.Model
	}
	m := bt.New(start, relay.DefaultTheme(), bt.Config{Title: title, History: transcript.Messages})
	final, err := bt.Run(ctx, m)
	if err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return store.save(transcript, adapter.Label(), opts.Model, base, final.History())
}

func parseOptions(args []string) (options, []string, error) {
	var opts options
	p := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	p.Usage = "[flags] [prompt...]"
	rest, err := p.ParseArgs(args)
	if err != nil {
		return options{}, nil, err
	}
	if opts.PauseAfter < 0 {
		return options{}, nil, fmt.Errorf("--pause-after must be non-negative, got %d", opts.PauseAfter)
	}
	return opts, rest, nil
}

// newLogger builds the slog text logger selected by opts. The returned func
// closes the log file, if one was opened.
func newLogger(opts options) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	var w io.Writer = io.Discard
	closeFn := func() {}
	switch {
	case opts.LogFile != "":
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case opts.Print:
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}

// promptText joins args, or reads stdin when there are none.
func promptText(args []string, stdin io.Reader) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return "", errors.New("no prompt: pass it as arguments or on stdin")
	}
	return text, nil
}

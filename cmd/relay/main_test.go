package main

import (
	"strings"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions_Defaults(t *testing.T) {
	t.Parallel()

	opts, rest, err := parseOptions([]string{"--provider", "ollama", "why", "blue?"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", opts.Provider)
	assert.Equal(t, 5*time.Minute, opts.Timeout)
	assert.Equal(t, time.Second, opts.ResumeAfter)
	assert.Equal(t, "warn", opts.LogLevel)
	assert.Equal(t, "sse", opts.Framing)
	assert.Nil(t, opts.Temperature)
	assert.False(t, opts.Print)
	assert.Equal(t, []string{"why", "blue?"}, rest)
}

func TestParseOptions_Flags(t *testing.T) {
	t.Parallel()

	opts, _, err := parseOptions([]string{
		"-p", "generic", "--base-url", "http://x", "--framing", "ndjson",
		"--temperature", "0.5", "--max-tokens", "64", "--print",
		"-a", "*.go", "-a", "docs/**/*.md",
		"--pause-after", "3", "--resume-after", "250ms",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.5, *opts.Temperature, 1e-9)
	assert.Equal(t, 64, opts.MaxTokens)
	assert.True(t, opts.Print)
	assert.Equal(t, []string{"*.go", "docs/**/*.md"}, opts.Attach)
	assert.Equal(t, 3, opts.PauseAfter)
	assert.Equal(t, 250*time.Millisecond, opts.ResumeAfter)
}

func TestParseOptions_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := parseOptions([]string{"--provider", "cohere"})
	assert.Error(t, err)

	_, _, err = parseOptions([]string{"--pause-after=-1"})
	assert.ErrorContains(t, err, "non-negative")

	_, _, err = parseOptions([]string{"--help"})
	assert.True(t, flags.WroteHelp(err))
}

func TestParseOptions_Env(t *testing.T) {
	t.Setenv("RELAY_MODEL", "gpt-4.1")
	t.Setenv("RELAY_LOG_LEVEL", "debug")

	opts, _, err := parseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", opts.Model)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestPromptText(t *testing.T) {
	t.Parallel()

	got, err := promptText([]string{"hello", "there"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)

	got, err = promptText(nil, strings.NewReader("  from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = promptText(nil, strings.NewReader(""))
	assert.ErrorContains(t, err, "no prompt")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, closeFn, err := newLogger(options{LogLevel: "info", Print: true})
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, logger)

	_, _, err = newLogger(options{LogLevel: "loud"})
	assert.ErrorContains(t, err, "log level")
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/fwojciec/relay"
	relayjson "github.com/fwojciec/relay/json"
	"github.com/google/uuid"
)

// transcriptStore keeps the conversation in a file between runs. The zero
// value (no path) keeps nothing.
type transcriptStore struct {
	path string
	now  func() time.Time
}

// load returns the stored transcript, or a fresh one when the file does not
// exist yet.
func (s transcriptStore) load() (relay.Transcript, error) {
	if s.path == "" {
		return relay.Transcript{}, nil
	}
	t, err := relayjson.Load(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		now := s.now()
		return relay.Transcript{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return relay.Transcript{}, fmt.Errorf("load transcript: %w", err)
	}
	return t, nil
}

// save replaces the transcript's messages with history and writes it.
func (s transcriptStore) save(t relay.Transcript, provider, model, system string, history []relay.Message) error {
	if s.path == "" || len(history) == len(t.Messages) {
		return nil
	}
	t.Provider = provider
	t.Model = model
	t.SystemPrompt = system
	t.Messages = history
	t.UpdatedAt = s.now()
	if err := relayjson.Save(s.path, t); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

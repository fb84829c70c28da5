// Package json persists relay transcripts as versioned JSON documents.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/relay"
)

const version = 1

// ErrVersion indicates a transcript document written in an unknown format.
var ErrVersion = errors.New("unsupported transcript version")

// envelope is the v1 wire format of a transcript.
type envelope struct {
	Version      int          `json:"version"`
	ID           string       `json:"id"`
	Provider     string       `json:"provider,omitempty"`
	Model        string       `json:"model,omitempty"`
	SystemPrompt string       `json:"system_prompt,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Messages     []messageDTO `json:"messages"`
}

type messageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Marshal serializes t as an indented v1 document.
func Marshal(t relay.Transcript) ([]byte, error) {
	env := envelope{
		Version:      version,
		ID:           t.ID,
		Provider:     t.Provider,
		Model:        t.Model,
		SystemPrompt: t.SystemPrompt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Messages:     make([]messageDTO, len(t.Messages)),
	}
	for i, m := range t.Messages {
		if err := relay.ValidateMessage(m); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = messageDTO{Role: string(m.Role), Content: m.Content}
	}
	return json.MarshalIndent(env, "", "  ")
}

// Unmarshal parses a v1 document.
func Unmarshal(data []byte) (relay.Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return relay.Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != version {
		return relay.Transcript{}, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	msgs := make([]relay.Message, len(env.Messages))
	for i, dto := range env.Messages {
		m := relay.Message{Role: relay.Role(dto.Role), Content: dto.Content}
		if err := relay.ValidateMessage(m); err != nil {
			return relay.Transcript{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = m
	}
	return relay.Transcript{
		ID:           env.ID,
		Provider:     env.Provider,
		Model:        env.Model,
		SystemPrompt: env.SystemPrompt,
		Messages:     msgs,
		CreatedAt:    env.CreatedAt,
		UpdatedAt:    env.UpdatedAt,
	}, nil
}

// Save writes t to path atomically, creating parent directories as needed.
func Save(path string, t relay.Transcript) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a transcript from path. A missing file is reported with an
// error wrapping fs.ErrNotExist.
func Load(path string) (relay.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return relay.Transcript{}, fmt.Errorf("read file: %w", err)
	}
	return Unmarshal(data)
}

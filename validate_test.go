package relay_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Validate_ValidDefaults(t *testing.T) {
	t.Parallel()
	r := relay.Request{Messages: []relay.Message{relay.UserMessage("hello")}}
	assert.NoError(t, r.Validate())
}

func TestRequest_Validate_ValidWithAllFields(t *testing.T) {
	t.Parallel()
	temp := 1.0
	r := relay.Request{
		Model:        "claude-3-opus",
		SystemPrompt: "You are helpful.",
		Messages: []relay.Message{
			{Role: relay.RoleSystem, Content: "Be brief."},
			relay.UserMessage("hello"),
			relay.AssistantMessage("hi"),
		},
		MaxTokens:   4096,
		Temperature: &temp,
	}
	assert.NoError(t, r.Validate())
}

func TestRequest_Validate_TemperatureBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		temp    float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"two", 2, false},
		{"negative", -0.1, true},
		{"above two", 2.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			temp := tt.temp
			r := relay.Request{
				Messages:    []relay.Message{relay.UserMessage("hi")},
				Temperature: &temp,
			}
			err := r.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, relay.ErrValidation))
			assert.Contains(t, err.Error(), "temperature")
		})
	}
}

func TestRequest_Validate_NegativeMaxTokens(t *testing.T) {
	t.Parallel()
	r := relay.Request{Messages: []relay.Message{relay.UserMessage("hi")}, MaxTokens: -1}
	err := r.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, relay.ErrValidation)
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestRequest_Validate_NoMessages(t *testing.T) {
	t.Parallel()
	err := relay.Request{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, relay.ErrValidation)
}

func TestRequest_Validate_UnknownRole(t *testing.T) {
	t.Parallel()
	r := relay.Request{Messages: []relay.Message{relay.UserMessage("hi"), {Role: "tool", Content: "x"}}}
	err := r.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, relay.ErrValidation)
	assert.Contains(t, err.Error(), "message 1")
	assert.Contains(t, err.Error(), `"tool"`)
}

func TestRequest_SystemText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", relay.Request{}.SystemText())
	assert.Equal(t, "a", relay.Request{SystemPrompt: "a"}.SystemText())
	assert.Equal(t, "a\n\nb", relay.Request{
		SystemPrompt: "a",
		Messages: []relay.Message{
			relay.UserMessage("ignored"),
			{Role: relay.RoleSystem, Content: "b"},
		},
	}.SystemText())
}

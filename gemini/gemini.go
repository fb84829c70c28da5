// Package gemini adapts the Gemini API's streamGenerateContent endpoint to
// the relay core.
//
// The endpoint is called over plain REST with alt=sse; the request body and
// every streamed payload use the google.golang.org/genai types so field
// names and enums track the SDK.
package gemini

import "google.golang.org/genai"

const (
	// Label is the provider label used to register Normalize.
	Label = "gemini"

	defaultBaseURL   = "https://generativelanguage.googleapis.com"
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 65536
	apiVersion       = "v1beta"
)

// apiRequest is the REST body of a generateContent call.
type apiRequest struct {
	Contents          []*genai.Content        `json:"contents"`
	SystemInstruction *genai.Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *genai.GenerationConfig `json:"generationConfig,omitempty"`
}

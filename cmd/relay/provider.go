package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/anthropic"
	"github.com/fwojciec/relay/gemini"
	"github.com/fwojciec/relay/gjson"
	"github.com/fwojciec/relay/ollama"
	"github.com/fwojciec/relay/openai"
)

type providerConfig struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	framing string
}

// envKeys holds the API key variables, read in main.
type envKeys struct {
	anthropic string
	openai    string
	gemini    string
}

// normalizers registers every adapter's normalizer under its label.
func normalizers() relay.Normalizers {
	return relay.Normalizers{
		anthropic.Label: anthropic.Normalize,
		openai.Label:    openai.Normalize,
		ollama.Label:    ollama.Normalize,
		gemini.Label:    gemini.Normalize,
		gjson.Label:     gjson.Normalize,
	}
}

// resolveProvider selects and constructs the adapter. Without an explicit
// name the provider is detected from which API key variable is set.
func resolveProvider(cfg providerConfig, env envKeys) (relay.Adapter, error) {
	name := cfg.name
	if name == "" {
		var found []string
		if env.anthropic != "" {
			found = append(found, anthropic.Label)
		}
		if env.openai != "" {
			found = append(found, openai.Label)
		}
		if env.gemini != "" {
			found = append(found, gemini.Label)
		}
		switch len(found) {
		case 0:
			return nil, errors.New("no API key found: set ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY (or use --provider)")
		case 1:
			name = found[0]
		default:
			return nil, fmt.Errorf("multiple API keys found (%v): use --provider to select", found)
		}
	}

	switch name {
	case anthropic.Label:
		key, err := apiKey(cfg.apiKey, env.anthropic, "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		var opts []anthropic.Option
		if cfg.baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.baseURL))
		}
		if cfg.model != "" {
			opts = append(opts, anthropic.WithModel(cfg.model))
		}
		return anthropic.New(key, opts...), nil

	case openai.Label:
		key, err := apiKey(cfg.apiKey, env.openai, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		var opts []openai.Option
		if cfg.baseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.baseURL))
		}
		if cfg.model != "" {
			opts = append(opts, openai.WithModel(cfg.model))
		}
		return openai.New(key, opts...), nil

	case gemini.Label:
		key, err := apiKey(cfg.apiKey, env.gemini, "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		var opts []gemini.Option
		if cfg.baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.baseURL))
		}
		if cfg.model != "" {
			opts = append(opts, gemini.WithModel(cfg.model))
		}
		return gemini.New(key, opts...), nil

	case ollama.Label:
		var opts []ollama.Option
		if cfg.baseURL != "" {
			opts = append(opts, ollama.WithBaseURL(cfg.baseURL))
		}
		if cfg.model != "" {
			opts = append(opts, ollama.WithModel(cfg.model))
		}
		return ollama.New(opts...), nil

	case gjson.Label:
		if cfg.baseURL == "" {
			return nil, errors.New("the generic provider needs --base-url")
		}
		opts := []gjson.Option{gjson.WithModel(cfg.model)}
		if cfg.framing == "ndjson" {
			opts = append(opts, gjson.WithFraming(gjson.FramingNDJSON))
		}
		if cfg.apiKey != "" {
			opts = append(opts, gjson.WithHeader("Authorization", "Bearer "+cfg.apiKey))
		}
		return gjson.New(cfg.baseURL, opts...), nil

	default:
		return nil, fmt.Errorf("unknown provider %q: must be anthropic, openai, ollama, gemini or generic", name)
	}
}

// apiKey resolves the key: the explicit flag overrides the env var.
func apiKey(flagKey, envKey, envName string) (string, error) {
	if flagKey != "" {
		return flagKey, nil
	}
	if envKey != "" {
		return envKey, nil
	}
	return "", fmt.Errorf("%s not set (use --api-key or the environment variable)", envName)
}

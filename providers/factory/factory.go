package factory

import (
	"fmt"
	"os"
	"strings"

	"github.com/contentflow/contentflow/llm"
	anthropicprov "github.com/contentflow/contentflow/providers/anthropic"
	ollamaprov "github.com/contentflow/contentflow/providers/ollama"
	openaiprov "github.com/contentflow/contentflow/providers/openai"
)

// FromEnv builds the text-generation provider selected by
// CONTENTFLOW_PROVIDER. A missing API key for the selected provider is a
// startup-time error, not a per-request one.
func FromEnv() (llm.Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(getenv("CONTENTFLOW_PROVIDER", "openai")))
	switch provider {
	case "openai":
		key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when CONTENTFLOW_PROVIDER=openai")
		}
		model := getenv("OPENAI_MODEL", "gpt-4o-mini")
		baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))

		opts := []openaiprov.Option{openaiprov.WithModel(model)}
		if baseURL != "" {
			opts = append(opts, openaiprov.WithBaseURL(baseURL))
		}
		return openaiprov.New(key, opts...)

	case "anthropic":
		key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when CONTENTFLOW_PROVIDER=anthropic")
		}
		model := getenv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest")
		baseURL := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL"))

		opts := []anthropicprov.Option{anthropicprov.WithModel(model)}
		if baseURL != "" {
			opts = append(opts, anthropicprov.WithBaseURL(baseURL))
		}
		return anthropicprov.New(key, opts...)

	case "ollama":
		model := getenv("OLLAMA_MODEL", "llama3.1:8b")
		baseURL := getenv("OLLAMA_BASE_URL", "http://127.0.0.1:11434")
		apiKey := strings.TrimSpace(os.Getenv("OLLAMA_API_KEY"))
		return ollamaprov.New(
			ollamaprov.WithModel(model),
			ollamaprov.WithBaseURL(baseURL),
			ollamaprov.WithAPIKey(apiKey),
		)
	}

	return nil, fmt.Errorf("unsupported CONTENTFLOW_PROVIDER %q (use openai, anthropic, or ollama)", provider)
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

package llm

import (
	"context"
	"errors"
)

var ErrNotSupported = errors.New("operation not supported by provider")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Model           string    `json:"model,omitempty"`
	SystemPrompt    string    `json:"systemPrompt,omitempty"`
	Messages        []Message `json:"messages"`
	Temperature     float64   `json:"temperature,omitempty"`
	MaxOutputTokens int       `json:"maxOutputTokens,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	TotalTokens  int `json:"totalTokens,omitempty"`
}

type Response struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
	Usage *Usage `json:"usage,omitempty"`
}

type Capabilities struct {
	Streaming        bool
	StructuredOutput bool
}

type Provider interface {
	Name() string
	Capabilities() Capabilities
	Generate(ctx context.Context, req Request) (Response, error)
}

// Prompt builds a single-turn user request, the common case for the
// newsletter stages.
func Prompt(text string) Request {
	return Request{
		Messages: []Message{{Role: RoleUser, Content: text}},
	}
}

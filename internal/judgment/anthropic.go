// internal/judgment/anthropic.go
package judgment

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicMessager is the part of the SDK client the caller uses.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCaller struct {
	messages    AnthropicMessager
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicCaller builds a caller backed by the Messages API.
func NewAnthropicCaller(apiKey, model string, maxTokens int, temperature float64) (*AnthropicCaller, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicCallerWithMessager(&c.Messages, model, maxTokens, temperature), nil
}

func NewAnthropicCallerWithMessager(m AnthropicMessager, model string, maxTokens int, temperature float64) *AnthropicCaller {
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &AnthropicCaller{
		messages:    m,
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (a *AnthropicCaller) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(a.temperature),
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

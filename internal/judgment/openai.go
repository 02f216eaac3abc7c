// internal/judgment/openai.go
package judgment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "subsidy-recommender/internal/common/http"
)

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint.
// Groq is the default deployment.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
}

type OpenAICaller struct {
	config *OpenAIConfig
	client *commonhttp.Client
}

func NewOpenAICaller(cfg *OpenAIConfig) *OpenAICaller {
	return &OpenAICaller{
		config: cfg,
		client: commonhttp.NewClient(cfg.Timeout),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete posts one chat completion, retrying transport errors and
// 429/5xx responses with exponential backoff.
func (c *OpenAICaller) Complete(ctx context.Context, system, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}
	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"

	var body []byte
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrLLMTimeout
			}
		}

		body, lastErr = c.client.PostJSON(ctx, url, headers, payload)
		if lastErr == nil {
			break
		}

		if ctx.Err() != nil {
			return "", ErrLLMTimeout
		}

		var statusErr *commonhttp.StatusError
		if errors.As(lastErr, &statusErr) && !statusErr.Retryable() {
			break
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMCallFailed, lastErr)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrLLMCallFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrLLMCallFailed)
	}

	return resp.Choices[0].Message.Content, nil
}

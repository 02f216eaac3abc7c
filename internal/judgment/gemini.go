// internal/judgment/gemini.go
package judgment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiCaller asks a Gemini model for a JSON reply. A client is opened per
// call and closed before returning.
type GeminiCaller struct {
	apiKey      string
	model       string
	maxTokens   int32
	temperature float32
}

func NewGeminiCaller(apiKey, model string, maxTokens int, temperature float64) (*GeminiCaller, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key not configured")
	}
	return &GeminiCaller{
		apiKey:      apiKey,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: float32(temperature),
	}, nil
}

func (g *GeminiCaller) Complete(ctx context.Context, system, prompt string) (string, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &g.temperature,
		ResponseMIMEType: "application/json",
	}
	if g.maxTokens > 0 {
		m.GenerationConfig.MaxOutputTokens = &g.maxTokens
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

// internal/judgment/anthropic_test.go
package judgment

import (
	"context"
	"errors"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessager struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	return f.resp, f.err
}

func TestAnthropicCaller_ConcatenatesTextBlocks(t *testing.T) {
	m := &fakeMessager{resp: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: `{"score": `},
			{Type: "thinking"},
			{Type: "text", Text: `70}`},
		},
	}}
	c := NewAnthropicCallerWithMessager(m, "claude-test", 512, 0.2)

	out, err := c.Complete(context.Background(), "system text", "user text")

	require.NoError(t, err)
	assert.Equal(t, `{"score": 70}`, out)
	assert.Equal(t, anthropic.Model("claude-test"), m.params.Model)
	assert.Equal(t, int64(512), m.params.MaxTokens)
	require.Len(t, m.params.System, 1)
	assert.Equal(t, "system text", m.params.System[0].Text)
	assert.Len(t, m.params.Messages, 1)
}

func TestAnthropicCaller_DefaultsMaxTokens(t *testing.T) {
	c := NewAnthropicCallerWithMessager(&fakeMessager{}, "claude-test", 0, 0)
	assert.Equal(t, int64(1500), c.maxTokens)
}

func TestAnthropicCaller_PropagatesError(t *testing.T) {
	c := NewAnthropicCallerWithMessager(&fakeMessager{err: errors.New("overloaded")}, "claude-test", 100, 0)

	_, err := c.Complete(context.Background(), "s", "p")
	assert.EqualError(t, err, "overloaded")
}

func TestNewAnthropicCaller_RequiresKey(t *testing.T) {
	_, err := NewAnthropicCaller("  ", "claude-test", 100, 0)
	assert.Error(t, err)
}

func TestNewGeminiCaller_RequiresKey(t *testing.T) {
	_, err := NewGeminiCaller("", "gemini-1.5-flash", 100, 0)
	assert.Error(t, err)

	g, err := NewGeminiCaller("key", "gemini-1.5-flash", 100, 0.5)
	require.NoError(t, err)
	assert.Equal(t, int32(100), g.maxTokens)
	assert.Equal(t, float32(0.5), g.temperature)
}

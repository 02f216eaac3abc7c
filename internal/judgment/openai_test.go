// internal/judgment/openai_test.go
package judgment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAICaller(url string, retries int) *OpenAICaller {
	return NewOpenAICaller(&OpenAIConfig{
		BaseURL:     url + "/",
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.3,
		MaxTokens:   256,
		MaxRetries:  retries,
		Timeout:     2 * time.Second,
	})
}

func TestOpenAICaller_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"eligible\":true}"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestOpenAICaller(srv.URL, 0).Complete(context.Background(), "sys", "question")

	require.NoError(t, err)
	assert.Equal(t, `{"eligible":true}`, out)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "question"}, got.Messages[1])
}

func TestOpenAICaller_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestOpenAICaller(srv.URL, 2).Complete(context.Background(), "sys", "q")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenAICaller_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err := newTestOpenAICaller(srv.URL, 3).Complete(context.Background(), "sys", "q")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLLMCallFailed))
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAICaller_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestOpenAICaller(srv.URL, 0).Complete(context.Background(), "sys", "q")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLLMCallFailed))
}

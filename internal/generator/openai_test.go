package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BackoffBase: time.Millisecond, BackoffMultiplier: 2, MaxBackoff: 5 * time.Millisecond}
}

func writeChat(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestOpenAI_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeChat(w, "  Good answer.\nNEXT_QUESTION: Why us?  ")
	}))
	defer srv.Close()

	o, err := NewOpenAI("sk-test", "", WithBaseURL(srv.URL+"/v1"), WithRetryConfig(fastRetry(1)))
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), Request{System: "sys", Prompt: "hi", MaxTokens: 500, Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "Good answer.\nNEXT_QUESTION: Why us?", out)

	assert.Equal(t, defaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 500, *got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-9)
}

func TestOpenAI_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		writeChat(w, "ok")
	}))
	defer srv.Close()

	o, err := NewOpenAI("k", "m", WithBaseURL(srv.URL), WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAI_FatalNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	o, err := NewOpenAI("k", "m", WithBaseURL(srv.URL), WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	_, err = o.Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI("k", "m", WithBaseURL(srv.URL), WithRetryConfig(fastRetry(2)))
	require.NoError(t, err)

	_, err = o.Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_HonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		writeChat(w, "late")
	}))
	defer srv.Close()

	o, err := NewOpenAI("k", "m", WithBaseURL(srv.URL), WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = o.Complete(ctx, Request{Prompt: "p"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "timeout", Outcome(ctx, err))
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI("  ", "m")
	assert.Error(t, err)
}

func TestBuildChatURL(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", buildChatURL(""))
	assert.Equal(t, "http://x/v1/chat/completions", buildChatURL("http://x/v1/"))
	assert.Equal(t, "http://x/chat/completions", buildChatURL("http://x/chat/completions"))
}

func TestClassifyHTTPError(t *testing.T) {
	assert.True(t, IsTransient(classifyHTTPError(http.StatusTooManyRequests, nil)))
	assert.True(t, IsTransient(classifyHTTPError(http.StatusBadGateway, nil)))
	assert.True(t, IsFatal(classifyHTTPError(http.StatusBadRequest, nil)))
	assert.True(t, IsFatal(classifyHTTPError(http.StatusForbidden, nil)))
}

func TestRetryBackoffBounds(t *testing.T) {
	cfg := RetryConfig{BackoffBase: 100 * time.Millisecond, BackoffMultiplier: 2, MaxBackoff: 300 * time.Millisecond}
	for attempt := 1; attempt <= 4; attempt++ {
		d := cfg.backoff(attempt)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 375*time.Millisecond)
	}
}

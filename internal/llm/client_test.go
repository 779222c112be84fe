package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-india/backend/pkg/config"
	"github.com/civic-india/backend/pkg/retry"
)

func fastOptions(baseURL string) Options {
	return Options{
		Model:     "test-model",
		MaxTokens: 256,
		Timeout:   5 * time.Second,
		BaseURL:   baseURL,
		Retry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		},
	}
}

func chatCompletion(content string) openai.ChatCompletionResponse {
	resp := openai.ChatCompletionResponse{ID: "chatcmpl-1", Model: "test-model"}
	if content != "" {
		resp.Choices = []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}}
	}
	return resp
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"error":{"message":"upstream said no","type":"invalid_request_error"}}`)
}

func TestOpenAIGenerate(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion("The RTI Act lets citizens request information."))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("sk-test", fastOptions(srv.URL))
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), "Explain the RTI Act")
	require.NoError(t, err)

	assert.Equal(t, "The RTI Act lets citizens request information.", text)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "Explain the RTI Act", got.Messages[1].Content)
	assert.Equal(t, 256, got.MaxTokens)
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeAPIError(w, http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion("ok"))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("sk-test", fastOptions(srv.URL))
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("sk-test", fastOptions(srv.URL))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai generation failed")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIEmptyCompletion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(""))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("sk-test", fastOptions(srv.URL))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiGenerate(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"VERIFICATION STATUS: FALSE"}]}}]}`)
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), "test-key", fastOptions(srv.URL))
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), "Check this claim")
	require.NoError(t, err)
	assert.Equal(t, "VERIFICATION STATUS: FALSE", text)
	assert.True(t, strings.HasSuffix(path, "models/test-model:generateContent"), path)
}

func TestMissingAPIKey(t *testing.T) {
	_, err := NewOpenAIClient("", Options{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGeminiClient(context.Background(), "", Options{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNew(t *testing.T) {
	g, err := New(context.Background(), config.LLMConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Name())

	g, err = New(context.Background(), config.LLMConfig{Provider: "gemini", APIKey: "key", Model: "gemini-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Name())

	_, err = New(context.Background(), config.LLMConfig{Provider: "claude", APIKey: "key"})
	assert.Error(t, err)
}

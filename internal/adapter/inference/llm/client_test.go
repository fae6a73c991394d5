package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreateChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "", time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)

	content, err := resp.Content()
	require.NoError(t, err)
	assert.Equal(t, "hi", content)
}

func TestClientCreateChatCompletionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestClientListModelsSendsAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[{"id":"gpt","object":"model","created":1,"owned_by":"openai"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "gpt", models[0].ID)
}

func TestEmptyCompletionHasNoContent(t *testing.T) {
	_, err := (&ChatCompletionResponse{}).Content()
	assert.Error(t, err)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := NewMockClient("gpt")
	inner.Err = errors.New("backend down")
	client := NewBreakerClient("test", inner, BreakerSettings{MaxFailures: 2, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt"})
		assert.ErrorContains(t, err, "backend down")
	}

	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, client.State())
	assert.Equal(t, 2, inner.Calls())
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	inner := NewMockClient("gpt")
	inner.Reply = func(*ChatCompletionRequest) string { return "ok" }
	client := NewBreakerClient("test", inner, BreakerSettings{})

	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt"})
	require.NoError(t, err)
	content, _ := resp.Content()
	assert.Equal(t, "ok", content)

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

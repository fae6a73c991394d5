package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient is an in-process ChatClient for tests and offline runs.
// Reply builds the assistant text from the last user message; Err, when
// set, is returned from every call.
type MockClient struct {
	Models []string
	Reply  func(req *ChatCompletionRequest) string
	Err    error

	mu    sync.Mutex
	calls int
}

// NewMockClient creates a mock client serving the given model ids.
func NewMockClient(models ...string) *MockClient {
	return &MockClient{Models: models}
}

// CreateChatCompletion returns a canned completion.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	content := m.generateMockResponse(req)
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     estimateTokens(req),
			CompletionTokens: len(content) / 4,
			TotalTokens:      estimateTokens(req) + len(content)/4,
		},
	}, nil
}

// ListModels returns the configured model ids.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]Model, len(m.Models))
	for i, id := range m.Models {
		out[i] = Model{ID: id, Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"}
	}
	return out, nil
}

// Calls returns how many completions were requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	if m.Reply != nil {
		return m.Reply(req)
	}

	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}
	if lastUserMessage == "" {
		return "[MOCK] This is a mock response."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q.", truncate(lastUserMessage, 100))
}

func estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ ChatClient = (*MockClient)(nil)

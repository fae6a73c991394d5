package llm

import "context"

// ChatClient defines the completion operations the inference backend needs.
type ChatClient interface {
	// CreateChatCompletion sends a completion request.
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// ListModels retrieves the models served by the endpoint.
	ListModels(ctx context.Context) ([]Model, error)
}

var (
	_ ChatClient = (*Client)(nil)
	_ ChatClient = (*BreakerClient)(nil)
)

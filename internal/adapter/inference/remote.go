package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference/llm"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// RemoteLoader serves every capability from one completion model.
type RemoteLoader struct {
	client llm.ChatClient
	model  string
}

// NewRemoteLoader creates a loader backed by client.
func NewRemoteLoader(client llm.ChatClient, model string) *RemoteLoader {
	return &RemoteLoader{client: client, model: model}
}

// Load verifies that the backend serves the configured model.
func (l *RemoteLoader) Load(ctx context.Context, key domain.ModelKey) (Model, error) {
	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list models: %w", ErrBackendUnavailable, err)
	}

	found := false
	for _, m := range models {
		if m.ID == l.model {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("model %s is not served by the inference backend", l.model)
	}

	return &remoteModel{key: key, client: l.client, model: l.model}, nil
}

type remoteModel struct {
	key    domain.ModelKey
	client llm.ChatClient
	model  string
}

func (m *remoteModel) Key() domain.ModelKey { return m.key }

func (m *remoteModel) Generate(ctx context.Context, input string) (string, error) {
	return m.complete(ctx, m.systemPrompt(), input, nil)
}

func (m *remoteModel) Classify(ctx context.Context, input string) (Classification, error) {
	system := `Classify the sentiment of the user's text. Reply only with JSON of the form {"label":"Positive","confidence":0.93}. The label is Positive or Negative and confidence is between 0 and 1.`
	content, err := m.complete(ctx, system, input, map[string]interface{}{"type": "json_object"})
	if err != nil {
		return Classification{}, err
	}

	var out struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classification: %w", err)
	}

	switch strings.ToLower(out.Label) {
	case "positive":
		out.Label = LabelPositive
	case "negative":
		out.Label = LabelNegative
	default:
		return Classification{}, fmt.Errorf("unexpected sentiment label %q", out.Label)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return Classification{}, fmt.Errorf("confidence %v out of range", out.Confidence)
	}
	return Classification{Label: out.Label, Confidence: out.Confidence}, nil
}

func (m *remoteModel) complete(ctx context.Context, system, input string, format map[string]interface{}) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: m.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: input},
		},
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	return resp.Content()
}

func (m *remoteModel) systemPrompt() string {
	switch m.key.Capability {
	case domain.CapabilityTranslation:
		src, tgt, _ := m.key.LanguagePair()
		return fmt.Sprintf("Translate the user's text from language code %q to language code %q. Reply with the translation only.", src, tgt)
	case domain.CapabilitySummarization:
		return "Summarize the user's text in a few sentences. Reply with the summary only."
	case domain.CapabilityJobApplication:
		return "You write concise, professional cover letters. Continue the user's prompt after \"Cover Letter:\"."
	default:
		return "You are a helpful assistant. Answer the user's question after \"Answer:\"."
	}
}

var (
	_ Generator  = (*remoteModel)(nil)
	_ Classifier = (*remoteModel)(nil)
)

package inference

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// MockTranslationPairs are the language pairs the offline backend serves.
var MockTranslationPairs = []string{
	"en-es", "en-fr", "en-de", "en-it", "en-pt",
	"es-en", "fr-en", "de-en", "it-en", "pt-en",
}

// MockLoader loads deterministic offline models.
type MockLoader struct {
	delay time.Duration
	pairs map[string]bool
}

// NewMockLoader creates a loader whose loads take delay.
func NewMockLoader(delay time.Duration) *MockLoader {
	pairs := make(map[string]bool, len(MockTranslationPairs))
	for _, p := range MockTranslationPairs {
		pairs[p] = true
	}
	return &MockLoader{delay: delay, pairs: pairs}
}

// Load returns the mock model for key.
func (l *MockLoader) Load(ctx context.Context, key domain.ModelKey) (Model, error) {
	if l.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.delay):
		}
	}

	switch key.Capability {
	case domain.CapabilitySentiment:
		return &mockClassifier{key: key}, nil
	case domain.CapabilityTranslation:
		if !l.pairs[key.Variant] {
			return nil, fmt.Errorf("model %s is not available", ModelName(key))
		}
		return &mockGenerator{key: key}, nil
	case domain.CapabilityChatbot, domain.CapabilitySummarization, domain.CapabilityJobApplication:
		return &mockGenerator{key: key}, nil
	}
	return nil, fmt.Errorf("no model for capability %s", key.Capability)
}

type mockGenerator struct {
	key domain.ModelKey
}

func (g *mockGenerator) Key() domain.ModelKey { return g.key }

// Generate continues the prompt the way a causal model does: the returned
// text starts with the input for chatbot and job application prompts.
func (g *mockGenerator) Generate(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch g.key.Capability {
	case domain.CapabilityTranslation:
		return fmt.Sprintf("[%s] %s", g.key.Variant, input), nil
	case domain.CapabilitySummarization:
		return summarizeWords(strings.TrimPrefix(input, "summarize: ")), nil
	case domain.CapabilityJobApplication:
		return input + "\n\nDear Hiring Manager,\n\nI am excited to apply for this position. " +
			"My experience aligns closely with the role you described, and I would welcome " +
			"the chance to contribute to your team.\n\nSincerely,\nThe Applicant", nil
	default:
		return input + " That is a great question. Based on what I know, the short answer depends on context, " +
			"but I am happy to help you explore it further.", nil
	}
}

// summarizeWords keeps roughly the first third of the text.
func summarizeWords(text string) string {
	words := strings.Fields(text)
	n := len(words) / 3
	if n < 10 {
		n = len(words)
		if n > 10 {
			n = 10
		}
	}
	return strings.TrimSuffix(strings.Join(words[:n], " "), ".") + "."
}

var (
	positiveWords = map[string]bool{
		"good": true, "great": true, "excellent": true, "love": true, "loved": true, "happy": true,
		"wonderful": true, "amazing": true, "fantastic": true, "like": true, "best": true, "nice": true,
		"awesome": true, "enjoy": true, "enjoyed": true, "perfect": true, "recommend": true,
	}
	negativeWords = map[string]bool{
		"bad": true, "terrible": true, "awful": true, "hate": true, "hated": true, "sad": true,
		"poor": true, "worst": true, "horrible": true, "disappointing": true, "disappointed": true,
		"broken": true, "boring": true, "angry": true, "useless": true, "never": true, "not": true,
	}
)

type mockClassifier struct {
	key domain.ModelKey
}

func (c *mockClassifier) Key() domain.ModelKey { return c.key }

// Classify scores the input against a small sentiment lexicon.
func (c *mockClassifier) Classify(ctx context.Context, input string) (Classification, error) {
	if err := ctx.Err(); err != nil {
		return Classification{}, err
	}

	var pos, neg int
	for _, w := range strings.Fields(strings.ToLower(input)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}

	label := LabelPositive
	if neg > pos {
		label = LabelNegative
	}
	diff := math.Abs(float64(pos - neg))
	confidence := 0.5 + 0.5*diff/float64(pos+neg+1)

	return Classification{Label: label, Confidence: confidence}, nil
}

// Package inference defines the capability interfaces the dispatcher runs
// and the loaders that produce them.
package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// Sentiment labels.
const (
	LabelPositive = "Positive"
	LabelNegative = "Negative"
)

// ErrBackendUnavailable marks a load that failed because the inference
// backend could not be reached. Such a load may succeed when retried.
var ErrBackendUnavailable = errors.New("inference backend unavailable")

// Retryable reports whether a load failure is transient: the backend was
// unreachable or the load ran out of time.
func Retryable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

// Model is a loaded inference resource.
type Model interface {
	Key() domain.ModelKey
}

// Generator produces text from an input prompt.
type Generator interface {
	Model
	Generate(ctx context.Context, input string) (string, error)
}

// Classification is a label with a confidence in [0, 1].
type Classification struct {
	Label      string
	Confidence float64
}

// Classifier assigns a label to an input.
type Classifier interface {
	Model
	Classify(ctx context.Context, input string) (Classification, error)
}

// Loader instantiates the model serving a key. Loads may be slow.
type Loader interface {
	Load(ctx context.Context, key domain.ModelKey) (Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, key domain.ModelKey) (Model, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, key domain.ModelKey) (Model, error) {
	return f(ctx, key)
}

// ModelName returns the model identifier used for a key in logs and errors.
func ModelName(key domain.ModelKey) string {
	switch key.Capability {
	case domain.CapabilityChatbot:
		return "gpt2-large"
	case domain.CapabilityTranslation:
		src, tgt, _ := key.LanguagePair()
		return fmt.Sprintf("Helsinki-NLP/opus-mt-%s-%s", src, tgt)
	case domain.CapabilitySentiment:
		return "bert-large-uncased-sentiment"
	case domain.CapabilitySummarization:
		return "t5-base"
	case domain.CapabilityJobApplication:
		return "gpt2-job-application"
	}
	return string(key.Capability)
}

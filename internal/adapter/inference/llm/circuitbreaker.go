package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerSettings configures the circuit breaker.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a probe is allowed.
	Timeout time.Duration
	// Interval clears failure counts while closed. Zero keeps the default.
	Interval time.Duration
}

// BreakerClient wraps a ChatClient so repeated backend failures fail fast.
type BreakerClient struct {
	inner   ChatClient
	breaker *gobreaker.CircuitBreaker[*ChatCompletionResponse]
}

// NewBreakerClient wraps inner with a circuit breaker. Zero settings use defaults.
func NewBreakerClient(name string, inner ChatClient, settings BreakerSettings) *BreakerClient {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := settings.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := settings.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[*ChatCompletionResponse](gobreaker.Settings{
		Name:        "inference:" + name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("WARN: circuit breaker %s changed state from %s to %s", name, from, to)
		},
	})

	return &BreakerClient{inner: inner, breaker: cb}
}

// CreateChatCompletion routes the request through the breaker.
func (b *BreakerClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	resp, err := b.breaker.Execute(func() (*ChatCompletionResponse, error) {
		return b.inner.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	return resp, nil
}

// ListModels routes the request through the breaker.
func (b *BreakerClient) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	_, err := b.breaker.Execute(func() (*ChatCompletionResponse, error) {
		var listErr error
		models, listErr = b.inner.ListModels(ctx)
		return nil, listErr
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	return models, nil
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.breaker.State()
}

func (b *BreakerClient) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s circuit open: %w", b.breaker.Name(), err)
	}
	return err
}

// Package pool keeps loaded inference models resident and guarantees at most
// one load per model key.
package pool

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/tracer"
)

const defaultLoadTimeout = 2 * time.Minute

// State is the readiness of a pool entry.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// LoadError is returned for a key whose load failed. Unless the failure is
// retryable it is recorded and returned to every later Acquire of the same
// key until restart.
type LoadError struct {
	Key domain.ModelKey
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load model %s: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadObserver is notified after every load attempt.
type LoadObserver func(key domain.ModelKey, elapsed time.Duration, err error)

// Stats counts entries by state.
type Stats struct {
	Loading int
	Ready   int
	Failed  int
}

type entry struct {
	state State
	model inference.Model
	err   *LoadError
}

// Pool owns every loaded model. Entries are never evicted.
type Pool struct {
	loader      inference.Loader
	loadTimeout time.Duration
	observer    LoadObserver
	debug       bool

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[domain.ModelKey]*entry
}

// Option configures a Pool.
type Option func(*Pool)

// WithLoadTimeout bounds each load.
func WithLoadTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

// WithLoadObserver registers fn to be called after each load.
func WithLoadObserver(fn LoadObserver) Option {
	return func(p *Pool) { p.observer = fn }
}

// WithDebugLog enables DEBUG lines for cache hits and shared loads.
func WithDebugLog(enabled bool) Option {
	return func(p *Pool) { p.debug = enabled }
}

// New creates a pool that loads models with loader.
func New(loader inference.Loader, opts ...Option) *Pool {
	p := &Pool{
		loader:      loader,
		loadTimeout: defaultLoadTimeout,
		entries:     make(map[domain.ModelKey]*entry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns the model for key, loading it on first use. Concurrent
// callers for the same key share one load and its outcome. A caller whose
// ctx ends stops waiting, but the load itself runs to completion.
func (p *Pool) Acquire(ctx context.Context, key domain.ModelKey) (inference.Model, error) {
	if m, ok, err := p.lookup(key); ok {
		p.debugf("DEBUG: model pool hit key=%s failed=%t", key, err != nil)
		return m, err
	}

	ch := p.group.DoChan(key.String(), func() (interface{}, error) {
		return p.load(key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			p.debugf("DEBUG: model load shared key=%s", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(inference.Model), nil
	}
}

func (p *Pool) debugf(format string, args ...interface{}) {
	if p.debug {
		log.Printf(format, args...)
	}
}

// lookup reports a settled entry for key.
func (p *Pool) lookup(key domain.ModelKey) (inference.Model, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.entries[key]
	if !ok {
		return nil, false, nil
	}
	switch e.state {
	case StateReady:
		return e.model, true, nil
	case StateFailed:
		return nil, true, e.err
	}
	return nil, false, nil
}

func (p *Pool) load(key domain.ModelKey) (model inference.Model, err error) {
	// A flight that finished between lookup and DoChan already settled the key.
	if m, ok, err := p.lookup(key); ok {
		return m, err
	}

	p.mu.Lock()
	p.entries[key] = &entry{state: StateLoading}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.loadTimeout)
	defer cancel()
	ctx, span := tracer.StartSpan(ctx, "pool.load")
	span.SetAttributes(
		tracer.StringAttr("capability", string(key.Capability)),
		tracer.StringAttr("key", key.String()),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			model, err = nil, fmt.Errorf("loader panic: %v", r)
		}
		model, err = p.settle(key, model, err)
		if err != nil {
			tracer.RecordError(span, err)
		} else {
			tracer.SetOK(span)
		}
		if p.observer != nil {
			p.observer(key, time.Since(start), err)
		}
	}()

	return p.loader.Load(ctx, key)
}

// settle records the outcome of a load and returns what callers receive.
func (p *Pool) settle(key domain.ModelKey, model inference.Model, err error) (inference.Model, error) {
	if err == nil && model == nil {
		err = fmt.Errorf("loader returned no model")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		loadErr := &LoadError{Key: key, Err: err}
		if inference.Retryable(err) {
			delete(p.entries, key)
			log.Printf("WARN: model load failed, will retry on next use capability=%s key=%s model=%s: %v",
				key.Capability, key, inference.ModelName(key), err)
			return nil, loadErr
		}
		p.entries[key] = &entry{state: StateFailed, err: loadErr}
		log.Printf("ERROR: model load failed capability=%s key=%s model=%s: %v",
			key.Capability, key, inference.ModelName(key), err)
		return nil, loadErr
	}

	p.entries[key] = &entry{state: StateReady, model: model}
	log.Printf("INFO: model loaded capability=%s key=%s model=%s", key.Capability, key, inference.ModelName(key))
	return model, nil
}

// State returns the state of key and whether the pool has seen it.
func (p *Pool) State(key domain.ModelKey) (State, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[key]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// Stats counts entries by state.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var s Stats
	for _, e := range p.entries {
		switch e.state {
		case StateLoading:
			s.Loading++
		case StateReady:
			s.Ready++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}

// Keys returns the keys of ready models in a stable order.
func (p *Pool) Keys() []domain.ModelKey {
	p.mu.RLock()
	keys := make([]domain.ModelKey, 0, len(p.entries))
	for k, e := range p.entries {
		if e.state == StateReady {
			keys = append(keys, k)
		}
	}
	p.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

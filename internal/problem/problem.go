package problem

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"swaprecall/internal/problemid"
)

type Problem interface {
	Name() string
	GenerateBatch(ctx context.Context, rng *rand.Rand) (Episode, error)
}

// DescribedProblem optionally exposes a one-line description for listings.
type DescribedProblem interface {
	Problem
	Description() string
}

// Factory builds a problem from a validated configuration.
type Factory func(cfg Config) (Problem, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with every built-in problem.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(InterruptionSwapRecallName, func(cfg Config) (Problem, error) {
		return NewInterruptionSwapRecall(cfg)
	})
	return r
}

func (r *Registry) Register(name string, factory Factory) error {
	key := problemid.Normalize(name)
	if key == "" {
		return fmt.Errorf("problem name is required")
	}
	if factory == nil {
		return fmt.Errorf("problem %s: factory is required", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("problem already registered: %s", key)
	}
	r.factories[key] = factory
	return nil
}

func (r *Registry) Build(name string, cfg Config) (Problem, error) {
	key := problemid.Normalize(name)
	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return factory(cfg)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

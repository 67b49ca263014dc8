package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

var ErrUnknownAnalysis = errors.New("unknown analysis")

// Builder produces the artifact for one individual plan.
type Builder interface {
	Build(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error)

func (f BuilderFunc) Build(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
	return f(ctx, plan)
}

// Registry maps analysis names to builders
type Registry interface {
	// Register adds a builder for an analysis
	Register(analysis string, builder Builder) error
	// Get returns the builder registered for an analysis
	Get(analysis string) (Builder, error)
	// List returns the registered analyses, sorted
	List() []string
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

func New() Registry {
	return &registry{
		builders: make(map[string]Builder),
	}
}

func (r *registry) Register(analysis string, builder Builder) error {
	if analysis == "" {
		return fmt.Errorf("analysis name cannot be empty")
	}
	if builder == nil {
		return fmt.Errorf("builder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[analysis]; exists {
		return fmt.Errorf("analysis %q is already registered", analysis)
	}

	r.builders[analysis] = builder
	return nil
}

func (r *registry) Get(analysis string) (Builder, error) {
	r.mu.RLock()
	builder, exists := r.builders[analysis]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, analysis)
	}
	return builder, nil
}

func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	analyses := make([]string, 0, len(r.builders))
	for analysis := range r.builders {
		analyses = append(analyses, analysis)
	}
	sort.Strings(analyses)
	return analyses
}

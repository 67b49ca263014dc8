package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/generator"
	"github.com/rs/zerolog"
)

var (
	// ErrRunNotActive is returned when cancelling a run that is not in progress.
	ErrRunNotActive = errors.New("run not active")
	// ErrRunInProgress is returned when starting a run while another one is active.
	ErrRunInProgress = errors.New("another run is in progress")
)

// Generator opens runs and renders their plans.
type Generator interface {
	Start(ctx context.Context, study string, total int) (*domain.Run, error)
	Execute(ctx context.Context, run *domain.Run, plans []domain.IndividualPlan) *generator.Report
}

// Controller runs generations in the background.
type Controller interface {
	Start(ctx context.Context, study string, plans []domain.IndividualPlan) (*domain.Run, error)
	Cancel(ctx context.Context, runID string) error
}

type runDescriptor struct {
	cancelFunc context.CancelFunc
	done       chan struct{}
}

type DefaultController struct {
	generator Generator

	mu   sync.Mutex
	runs map[string]runDescriptor
}

func NewController(gen Generator) *DefaultController {
	return &DefaultController{
		generator: gen,
		runs:      make(map[string]runDescriptor),
	}
}

// Start opens a run and returns it while its plans are rendered in the background.
// The run outlives ctx; only Cancel stops it. One run is active at a time.
func (ctrl *DefaultController) Start(ctx context.Context, study string, plans []domain.IndividualPlan) (*domain.Run, error) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	for id := range ctrl.runs {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, id)
	}

	run, err := ctrl.generator.Start(ctx, study, len(plans))
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	desc := runDescriptor{cancelFunc: cancel, done: make(chan struct{})}
	ctrl.runs[run.ID] = desc

	go func() {
		defer close(desc.done)
		defer cancel()

		report := ctrl.generator.Execute(runCtx, run, plans)
		zerolog.Ctx(runCtx).Info().
			Str("run_id", run.ID).
			Int("failed", len(report.Failed())).
			Msg("background run finished")

		ctrl.mu.Lock()
		delete(ctrl.runs, run.ID)
		ctrl.mu.Unlock()
	}()

	return run, nil
}

// Cancel stops an active run and waits until it has recorded its results.
func (ctrl *DefaultController) Cancel(_ context.Context, runID string) error {
	ctrl.mu.Lock()
	desc, ok := ctrl.runs[runID]
	ctrl.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotActive, runID)
	}

	desc.cancelFunc()
	<-desc.done
	return nil
}

// Done returns a channel closed when the run finishes. ok is false for runs that are
// not active.
func (ctrl *DefaultController) Done(runID string) (done <-chan struct{}, ok bool) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	desc, ok := ctrl.runs[runID]
	if !ok {
		return nil, false
	}
	return desc.done, true
}

// Shutdown cancels every active run and waits for them to finish.
func (ctrl *DefaultController) Shutdown() {
	ctrl.mu.Lock()
	active := make([]runDescriptor, 0, len(ctrl.runs))
	for _, desc := range ctrl.runs {
		active = append(active, desc)
	}
	ctrl.mu.Unlock()

	for _, desc := range active {
		desc.cancelFunc()
		<-desc.done
	}
}

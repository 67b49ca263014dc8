package commands

import (
	"context"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/generator"
	"github.com/de-tools/tlf-atlas/pkg/services/workspace"
)

// Opener opens the study workspace described by a plan file.
type Opener func(ctx context.Context, planPath string, opts ...generator.Option) (*workspace.Workspace, error)

// Reporter prints command results.
type Reporter interface {
	Summary(summary domain.PlanSummary) error
	Validation(report domain.ValidationReport) error
	Progress(done, total int, res domain.Result)
	Run(report *generator.Report) error
}

// ArtifactReporter prints a single artifact.
type ArtifactReporter interface {
	Handle(art domain.Artifact) error
}

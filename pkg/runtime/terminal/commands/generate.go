package commands

import (
	"github.com/de-tools/tlf-atlas/pkg/services/generator"
	"github.com/de-tools/tlf-atlas/pkg/services/plan"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type GenerateCmd struct {
	planPath string
	only     []string
	open     Opener
	reporter Reporter
}

func NewGenerateCmd(open Opener, reporter Reporter) *cobra.Command {
	gc := &GenerateCmd{open: open, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an RTF document for every planned analysis",
		RunE:  gc.run,
	}

	cmd.Flags().StringVar(&gc.planPath, "plan", "", "Path to the study plan")
	cmd.Flags().StringSliceVar(&gc.only, "only", nil, "Generate only the analyses with these IDs")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, err := gc.open(ctx, gc.planPath, generator.WithProgress(gc.reporter.Progress))
	if err != nil {
		return err
	}
	defer ws.Close()

	if report := ws.Validate(); !report.Valid() {
		zerolog.Ctx(ctx).Warn().Strs("issues", report.Issues()).Msg("plan has unresolved references")
	}

	plans, err := plan.Select(ws.Plans(), gc.only)
	if err != nil {
		return err
	}

	report, err := ws.Generator.Generate(ctx, ws.Config.Study.Name, plans)
	if err != nil {
		return err
	}
	return gc.reporter.Run(report)
}

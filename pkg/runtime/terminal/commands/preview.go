package commands

import (
	"github.com/spf13/cobra"
)

type PreviewCmd struct {
	planPath string
	id       string
	open     Opener
	reporter ArtifactReporter
}

func NewPreviewCmd(open Opener, reporter ArtifactReporter) *cobra.Command {
	pc := &PreviewCmd{open: open, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print one analysis to the console",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.planPath, "plan", "", "Path to the study plan")
	cmd.Flags().StringVar(&pc.id, "id", "", "Analysis ID, as listed by expand")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (pc *PreviewCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, err := pc.open(ctx, pc.planPath)
	if err != nil {
		return err
	}
	defer ws.Close()

	plan, err := ws.Plan(pc.id)
	if err != nil {
		return err
	}
	art, err := ws.Generator.Build(ctx, plan)
	if err != nil {
		return err
	}
	return pc.reporter.Handle(art)
}

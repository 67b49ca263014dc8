package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrInvalidPlan is returned by validate when a plan refers to undefined names.
var ErrInvalidPlan = errors.New("plan has unresolved references")

type ExpandCmd struct {
	planPath string
	open     Opener
	reporter Reporter
}

func NewExpandCmd(open Opener, reporter Reporter) *cobra.Command {
	ec := &ExpandCmd{open: open, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand condensed plans into individual analyses",
		RunE:  ec.run,
	}

	cmd.Flags().StringVar(&ec.planPath, "plan", "", "Path to the study plan")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func (ec *ExpandCmd) run(cmd *cobra.Command, _ []string) error {
	ws, err := ec.open(cmd.Context(), ec.planPath)
	if err != nil {
		return err
	}
	defer ws.Close()

	return ec.reporter.Summary(ws.Summary())
}

type ValidateCmd struct {
	planPath string
	open     Opener
	reporter Reporter
}

func NewValidateCmd(open Opener, reporter Reporter) *cobra.Command {
	vc := &ValidateCmd{open: open, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that every plan refers to defined analyses and keywords",
		RunE:  vc.run,
	}

	cmd.Flags().StringVar(&vc.planPath, "plan", "", "Path to the study plan")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func (vc *ValidateCmd) run(cmd *cobra.Command, _ []string) error {
	ws, err := vc.open(cmd.Context(), vc.planPath)
	if err != nil {
		return err
	}
	defer ws.Close()

	report := ws.Validate()
	if err := vc.reporter.Validation(report); err != nil {
		return err
	}
	if !report.Valid() {
		return fmt.Errorf("%w: %d issue(s)", ErrInvalidPlan, len(report.Issues()))
	}
	return nil
}

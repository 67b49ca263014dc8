package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/tlf-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/tlf-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/tlf-atlas/pkg/services/config"
	"github.com/de-tools/tlf-atlas/pkg/services/generator"
	"github.com/de-tools/tlf-atlas/pkg/services/workspace"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	settingsPath string
	reporter     *Reporter
	preview      *export.Reporter
	rootCmd      *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		reporter: NewReporter(opts.Output),
		preview:  export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides the command line arguments, mainly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tlf",
		Short:         "Tables, listings and figures for clinical study reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cli.settingsPath, "settings", "", "Path to a settings file (TLF_* variables take precedence)")

	cmd.AddCommand(commands.NewExpandCmd(cli.open, cli.reporter))
	cmd.AddCommand(commands.NewValidateCmd(cli.open, cli.reporter))
	cmd.AddCommand(commands.NewGenerateCmd(cli.open, cli.reporter))
	cmd.AddCommand(commands.NewPreviewCmd(cli.open, cli.preview))

	return cmd
}

func (cli *CLI) open(ctx context.Context, planPath string, opts ...generator.Option) (*workspace.Workspace, error) {
	settings, err := config.LoadSettings(cli.settingsPath)
	if err != nil {
		return nil, err
	}
	return workspace.Open(ctx, settings, planPath, opts...)
}

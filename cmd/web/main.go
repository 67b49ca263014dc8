package main

import (
	"fmt"
	"os"

	"github.com/de-tools/tlf-atlas/pkg/server"
	"github.com/de-tools/tlf-atlas/pkg/services/config"
	"github.com/de-tools/tlf-atlas/pkg/services/workspace"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	settingsPath string
	planPath     string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve study plans and their analysis results over HTTP",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVar(&settingsPath, "settings", "", "Path to a settings file (TLF_* variables take precedence)")
	rootCmd.Flags().StringVar(&planPath, "plan", "", "Path to the study plan")
	_ = rootCmd.MarkFlagRequired("plan")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	ws, err := workspace.Open(ctx, settings, planPath)
	if err != nil {
		return fmt.Errorf("failed to open study plan: %w", err)
	}
	defer ws.Close()

	if report := ws.Validate(); !report.Valid() {
		logger.Warn().Strs("issues", report.Issues()).Msg("plan has unresolved references")
	}
	logger.Info().
		Str("study", ws.Config.Study.Name).
		Int("analyses", len(ws.Plans())).
		Msgf("Study plan `%s` successfully loaded.", planPath)

	api := server.NewWebAPI(logger, server.Config{
		Addr: settings.Addr,
		Dependencies: server.Dependencies{
			Study:    ws.Config.Study.Name,
			Plans:    ws,
			Runs:     ws.Runs,
			Workflow: ws.Workflow,
		},
	})
	return api.Start()
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/de-tools/tlf-atlas/pkg/runtime/terminal"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// A missing .env file is fine for the CLI.
	_ = godotenv.Load()

	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(os.Getenv("TLF_LOG_LEVEL")); err == nil && l != zerolog.NoLevel {
		level = l
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	cli := terminal.NewCLI(terminal.Options{
		Output: os.Stdout,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

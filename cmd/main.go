package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/veqro/cueup/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "cueup",
		Usage:    "Song request backend for DJs & event organizers",
		Version:  "1.0.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// Package main provides the complaint desk admin CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/cmd/complaintctl/commands"
	"github.com/spec-kit/complaint-desk/internal/app"
	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	var container *app.Container
	load := func() (*app.Container, error) {
		if container != nil {
			return container, nil
		}
		c, err := app.Build(ctx, cfg, logger, app.Options{Synchronous: true})
		if err != nil {
			return nil, err
		}
		container = c
		return c, nil
	}
	defer func() {
		if container != nil {
			container.Close()
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "complaintctl",
		Short: "Complaint desk administration",
		Long: `Administrative tasks for the complaint desk.

Available commands:
  seed                 - Create the fixed categories and the system identity
  match                - Show how an email matches the admin and course rosters
  appoint-coordinator  - Promote a user to Complaint Coordinator
  remind               - Send reminders for overdue complaints
  migrate              - Apply or list database migrations`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		commands.SeedCommand(load),
		commands.MatchCommand(cfg, logger),
		commands.AppointCoordinatorCommand(load),
		commands.RemindCommand(load),
		commands.MigrateCommand(cfg, logger),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", zap.Error(err))
		if container != nil {
			container.Close()
		}
		os.Exit(1)
	}
}

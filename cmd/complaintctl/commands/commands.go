// Package commands provides the complaintctl subcommands.
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/app"
	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/identity"
	"github.com/spec-kit/complaint-desk/internal/persistence"
	"github.com/spec-kit/complaint-desk/internal/roster"
	"github.com/spec-kit/complaint-desk/internal/service"
)

// Loader builds the service container on first use.
type Loader func() (*app.Container, error)

// SeedCommand creates the fixed categories and the system identity.
func SeedCommand(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the fixed categories and the system identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			categories, err := c.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			for _, category := range categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", category.ID, category.Name)
			}
			return nil
		},
	}
}

// MatchCommand explains the roster decision for an email without writing anything.
func MatchCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "match EMAIL",
		Short: "Show how an email matches the admin and course rosters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := strings.ToLower(strings.TrimSpace(args[0]))
			provider := roster.NewCSVProvider(cfg.Roster.AdminPath, cfg.Roster.CoursePath, logger)
			out := cmd.OutOrStdout()

			name, err := identity.DerivedName(email)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "derived name: %q\n", name)

			admins, err := provider.GetAdminRoster(ctx)
			if err != nil {
				return err
			}
			match, err := identity.Match(email, admins)
			if err != nil {
				return err
			}
			if match != nil {
				fmt.Fprintf(out, "admin match: %s (%s, score %d)\n",
					match.Name, match.Office, identity.Score(name, match.Name))
			} else {
				fmt.Fprintln(out, "admin match: none")
			}

			courseRows, err := provider.GetCourseRoster(ctx)
			if err != nil {
				return err
			}
			courses := identity.CoursesFor(name, courseRows)
			for _, row := range courses {
				fmt.Fprintf(out, "course: %s %s\n", row.Code, row.Title)
			}

			decision := service.DecideRoles(match, courses)
			secondary := "-"
			if decision.Secondary != nil {
				secondary = string(*decision.Secondary)
			}
			fmt.Fprintf(out, "roles: %s / %s\n", decision.Primary, secondary)
			return nil
		},
	}
}

// AppointCoordinatorCommand promotes a user to Complaint Coordinator.
func AppointCoordinatorCommand(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "appoint-coordinator EMAIL",
		Short: "Promote a user to Complaint Coordinator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			user, err := c.Roles.AppointCoordinator(cmd.Context(), strings.ToLower(strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			secondary := "-"
			if user.SecondaryRole != nil {
				secondary = string(*user.SecondaryRole)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s / %s\n", user.Email, user.Role, secondary)
			return nil
		},
	}
}

// RemindCommand runs one reminder sweep.
func RemindCommand(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for overdue complaints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			report, err := c.Reminders.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reminded %d assignments on %d complaints\n", report.Reminders, report.Complaints)
			return nil
		},
	}
}

// MigrateCommand applies the embedded migrations, or lists them with --list.
func MigrateCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or list database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				names, err := persistence.MigrationNames()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if cfg.Postgres.DSN == "" {
				return fmt.Errorf("POSTGRES_DSN is required to migrate")
			}
			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List embedded migrations without applying them")
	return cmd
}

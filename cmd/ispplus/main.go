package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ispplus/ispplus/internal/config"
	"github.com/ispplus/ispplus/internal/database"
	"github.com/ispplus/ispplus/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	dbPath      string
	verbosity   int
	logBesideDB bool
)

// cfg is populated by the root command's PersistentPreRunE.
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "ispplus",
		Short:             "ISPPlus - data store administration",
		Long:              `ispplus manages the ISPPlus SQLite store: schema setup, application users and maintenance.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (or set ISPPLUS_DATABASE_PATH)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().BoolVar(&logBesideDB, "log-file", false, "Also write a rotating log file next to the database")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newUserCmd(),
		newMaintenanceCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ispplus %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
	)

	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}

	if dbPath != "" {
		loaded.Database.Path = dbPath
	}
	if logBesideDB && loaded.Log.File == "" {
		loaded.Log.File = logging.FilePathForDB(loaded.Database.Path)
	}

	logging.Apply(loaded.Log)
	logging.SetVerbosity(verbosity)

	cfg = loaded
	return nil
}

// openDatabase opens the configured store and brings its schema up to date.
func openDatabase(ctx context.Context) (*database.Manager, error) {
	m, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := m.Migrate(ctx); err != nil {
		m.Close()
		return nil, err
	}

	return m, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			log.Info().Str("database", m.Path()).Msg("Database schema is up to date")
			return nil
		},
	}
}

func newMaintenanceCmd() *cobra.Command {
	var vacuum bool

	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Refresh planner statistics and optionally reclaim space",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Optimize(ctx); err != nil {
				return err
			}
			if vacuum {
				if err := m.Vacuum(ctx); err != nil {
					return err
				}
			}

			log.Info().Bool("vacuum", vacuum).Msg("Maintenance complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&vacuum, "vacuum", false, "Also run VACUUM")
	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/notesdb/internal/config"
	"github.com/example/notesdb/internal/logging"
	"github.com/example/notesdb/internal/persistence/sqlite"
	"github.com/spf13/cobra"
)

type statusReport struct {
	Path           string `json:"path"`
	CurrentVersion int    `json:"current_version"`
	LatestVersion  int    `json:"latest_version"`
	Pending        []int  `json:"pending"`
}

func newRootCommand(cfg config.Config, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "notesdb",
		Short:         "Manage the notes database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	cmd.PersistentFlags().StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "Path of the SQLite database file")

	cmd.AddCommand(
		newMigrateCommand(&cfg, out),
		newStatusCommand(&cfg, out),
		newVersionCommand(out),
	)
	return cmd
}

func newMigrateCommand(cfg *config.Config, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Short:   "Upgrade the database schema to the latest version",
		Example: "  notesdb migrate\n  notesdb --db ./notes.sqlite migrate",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := openDatabase(ctx, *cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := db.Version(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(out, "applied %d migration(s); database %s is at version %d\n",
				db.Applied(), cfg.SQLitePath, version)
			return err
		},
	}
}

func newStatusCommand(cfg *config.Config, out io.Writer) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current and latest schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := openDatabase(ctx, *cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			status, err := db.Migrator().Status(ctx)
			if err != nil {
				return err
			}

			report := statusReport{
				Path:           cfg.SQLitePath,
				CurrentVersion: status.CurrentVersion,
				LatestVersion:  status.LatestVersion,
				Pending:        []int{},
			}
			for _, step := range status.Pending {
				report.Pending = append(report.Pending, step.Version)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			_, err = fmt.Fprintf(out, "path=%s current=%d latest=%d pending=%d\n",
				report.Path, report.CurrentVersion, report.LatestVersion, len(report.Pending))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func newVersionCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(out, "notesdb %s\n", buildVersion)
			return err
		},
	}
}

// openDatabase opens the configured database. Pending migrations are applied
// unless inspectOnly is set.
func openDatabase(ctx context.Context, cfg config.Config, inspectOnly bool) (*sqlite.Database, error) {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dbCfg := sqlite.DefaultConfig(cfg.SQLitePath)
	dbCfg.BusyTimeout = cfg.BusyTimeout
	dbCfg.JournalMode = cfg.JournalMode
	dbCfg.SkipMigrations = inspectOnly

	db, err := sqlite.Open(ctx, dbCfg, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.SQLitePath, err)
	}
	return db, nil
}

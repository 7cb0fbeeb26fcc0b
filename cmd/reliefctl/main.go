// Command reliefctl is the operator CLI for the relief database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/relief/internal/config"
	"github.com/stwalsh4118/relief/internal/database"
	"github.com/stwalsh4118/relief/internal/logger"
	"github.com/stwalsh4118/relief/internal/repository"
	"github.com/stwalsh4118/relief/internal/services"
)

const commandTimeout = 30 * time.Second

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	cfg *config.Config
	log *logger.Logger
	out io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}
	var verbose bool

	root := &cobra.Command{
		Use:           "reliefctl",
		Short:         "Operate the relief coordination database",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			a.cfg = cfg
			a.log = logger.NewWithWriter(errOut, level)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newMigrateCmd(a), newStationsCmd(a))
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := database.NewPostgresPool(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			a.log.Info("Schema applied", map[string]interface{}{
				"database": a.cfg.Database.Name,
			})
			fmt.Fprintln(a.out, "schema applied")
			return nil
		},
	}
}

func newStationsCmd(a *app) *cobra.Command {
	stations := &cobra.Command{
		Use:   "stations",
		Short: "Query relief stations",
	}

	var minLevel int
	highLevel := &cobra.Command{
		Use:   "high-level",
		Short: "List stations at or above a level as JSON lines",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if minLevel < services.MinStationLevel || minLevel > services.MaxStationLevel {
				return fmt.Errorf("--min-level must be between %d and %d",
					services.MinStationLevel, services.MaxStationLevel)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := database.NewPostgresPool(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			repo, err := repository.NewStationRepository(repository.OptionsFromConfig(a.cfg.Repository, a.log)...)
			if err != nil {
				return err
			}
			svc := services.NewStationService(db.Pool, repo, a.log)

			found, err := svc.HighLevelStations(ctx, minLevel)
			if err != nil {
				return err
			}
			return writeJSONLines(a.out, found)
		},
	}
	highLevel.Flags().IntVar(&minLevel, "min-level", 0, "minimum station level (inclusive)")
	_ = highLevel.MarkFlagRequired("min-level")

	stations.AddCommand(highLevel)
	return stations
}

func writeJSONLines[T any](w io.Writer, rows []T) error {
	enc := json.NewEncoder(w)
	for i := range rows {
		if err := enc.Encode(&rows[i]); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

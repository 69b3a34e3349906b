package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/pcmm-backend/internal/app"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "pcmm",
		Short:         "PCMM maturity backend: aggregation, progress and tag snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $PCMM_CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, migrateCmd, progressCmd, aggregateCmd, tagCmd)
}

// bootstrap loads config and wires the application. CLI commands other than
// serve never export metrics.
func bootstrap(ctx context.Context, serving bool) (*app.App, error) {
	cfg, err := app.LoadConfig(nil, configPath)
	if err != nil {
		return nil, err
	}
	if !serving {
		cfg.Metrics.Enabled = false
		cfg.Tag.RepairOnStart = false
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Start(ctx)
	return a.Run(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(nil, configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	db, err := app.OpenDB(log, cfg.Database)
	if err != nil {
		return err
	}
	if err := app.Migrate(db); err != nil {
		return err
	}
	log.Info("schema up to date", "driver", cfg.Database.Driver)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

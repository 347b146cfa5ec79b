package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/metertrack/internal/authorization"
	"github.com/railzwaylabs/metertrack/internal/baseline"
	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/bootstrap"
	"github.com/railzwaylabs/metertrack/internal/cache"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/config"
	"github.com/railzwaylabs/metertrack/internal/migration"
	"github.com/railzwaylabs/metertrack/internal/observability"
	"github.com/railzwaylabs/metertrack/internal/quota"
	"github.com/railzwaylabs/metertrack/internal/reading"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	"github.com/railzwaylabs/metertrack/internal/redis"
	"github.com/railzwaylabs/metertrack/internal/report"
	"github.com/railzwaylabs/metertrack/internal/retention"
	"github.com/railzwaylabs/metertrack/internal/seed"
	"github.com/railzwaylabs/metertrack/internal/server"
	"github.com/railzwaylabs/metertrack/internal/usage"
	"github.com/railzwaylabs/metertrack/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "metertrack",
		Short:         "Three-meter consumption tracker",
		Version:       readVersionFromEnv(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newAllCmd(), newPruneCmd(), newSeedCmd(), newExportCmd(), newHashKeyCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API against a migrated database",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run migrations, then start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(); err != nil {
				return err
			}
			runServe()
			return nil
		},
	}
}

func newPruneCmd() *cobra.Command {
	var opts retention.Options
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete meter readings dated before a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runPrune(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d readings before %s\n", res.Deleted, res.Cutoff)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Cutoff, "cutoff", "", "delete readings dated before this day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.KeepDays, "keep-days", 0, "keep this many days of readings, counted back from today")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var opts seed.Options
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo baseline and daily readings into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runSeed(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "baseline %s already present, nothing seeded\n", res.BaseDate)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded baseline %s with %d readings\n", res.BaseDate, res.Readings)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Days, "days", 14, "days of readings to generate up to today")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		rawFormat string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current baseline's readings as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			export, err := runExport(cmd.Context(), format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(export.Data)
				return err
			}
			if err := os.WriteFile(output, export.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d readings to %s (sha256 %s)\n", export.Count, output, export.Checksum)
			return nil
		},
	}
	cmd.Flags().StringVar(&rawFormat, "format", "csv", "csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash to configure for an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := authorization.HashKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		cache.Module,
		bootstrap.Module,
		fx.Invoke(watchConfig),
		quota.Module,
		baseline.Module,
		reading.Module,
		usage.Module,
		authorization.Module,
		server.Module,
	)
	app.Run()
}

// startCore starts the storage and domain services without HTTP and
// populates targets from the graph. Callers must invoke the returned stop.
func startCore(ctx context.Context, targets ...any) (func(), error) {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		cache.Module,
		bootstrap.Module,
		baseline.Module,
		reading.Module,
		retention.Module,
		fx.Decorate(quietLogger),
		fx.Populate(targets...),
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, err
	}
	return func() { _ = app.Stop(context.Background()) }, nil
}

func runPrune(ctx context.Context, opts retention.Options) (retention.Result, error) {
	var job *retention.Job
	stop, err := startCore(ctx, &job)
	if err != nil {
		return retention.Result{}, fmt.Errorf("prune failed: %w", err)
	}
	defer stop()

	return job.Run(ctx, opts)
}

func runSeed(ctx context.Context, opts seed.Options) (seed.Result, error) {
	var (
		baselines baselinedomain.Service
		readings  readingdomain.Service
		clk       clock.Clock
	)
	stop, err := startCore(ctx, &baselines, &readings, &clk)
	if err != nil {
		return seed.Result{}, fmt.Errorf("seed failed: %w", err)
	}
	defer stop()

	return seed.EnsureDemoData(ctx, baselines, readings, clk, opts)
}

func runExport(ctx context.Context, format report.Format) (*report.Export, error) {
	var readings readingdomain.Service
	stop, err := startCore(ctx, &readings)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}
	defer stop()

	items, err := readings.GetAllReadings(ctx)
	if err != nil {
		return nil, err
	}
	return report.ExportReadings(items, format)
}

// quietLogger keeps one-shot commands from mixing info logs into their output.
func quietLogger(log *zap.Logger) *zap.Logger {
	return log.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
}

func registerSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

// watchConfig hot-reloads limits and alert thresholds from the config file.
func watchConfig(l *config.Loader, log *zap.Logger) {
	l.OnError(func(err error) {
		log.Warn("config reload rejected, keeping previous values", zap.Error(err))
	})
	l.Watch()
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"OilTycoon/internal/api"
	"OilTycoon/internal/config"
	"OilTycoon/internal/economy"
	"OilTycoon/internal/metrics"
	"OilTycoon/internal/notifier"
	"OilTycoon/internal/recorder"
	"OilTycoon/internal/scheduler"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Console bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the economy until interrupted",
		Long: `Load the save, credit the offline gap and tick the economy on a fixed
interval. Commands are accepted over HTTP (api.addr) and, with --console,
one per line on stdin.

Example:
  tycoon run --config configs/config.yaml --console`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Console, "console", false, "read commands from stdin")
	return cmd
}

func runServer(ctx context.Context, opts *RunOptions) error {
	cfg, logger, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger.Info("Oil Tycoon starting", "store", cfg.Storage.Driver)

	rec := openRecorder(cfg, logger)
	defer rec.Close()
	m := metrics.New()

	a, err := newApp(ctx, cfg, logger, economy.Journals{rec, m})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.engine.Load(ctx); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(a.engine, rec, m, logger, cfg.Game.TickInterval)
	if err := sched.RegisterAll(cfg.Recorder.SnapshotCron, cfg.Recorder.SaveCron); err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()
	sched.RunSnapshotNow()

	if cfg.API.Addr != "" {
		srv := api.NewServer(a.engine, m, logger, api.Options{RateLimit: cfg.API.RateLimit, Burst: cfg.API.Burst})
		defer srv.Close()
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.API.Addr); err != nil {
				logger.Error("api server", "err", err)
			}
		}()
	}

	if opts.Console {
		go func() {
			if err := notifier.RunConsole(ctx, os.Stdin, os.Stdout, sched.HandleCommand, logger); err != nil {
				logger.Error("console", "err", err)
			}
		}()
	}

	logger.Info("Oil Tycoon is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")
	return nil
}

// openRecorder falls back to the no-op recorder when the history database
// is not configured or cannot be opened.
func openRecorder(cfg *config.Config, logger *log.Logger) recorder.Recorder {
	if cfg.Recorder.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, logger)
	if err != nil {
		logger.Warn("init history recorder failed, using noop", "err", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

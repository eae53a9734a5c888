package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jo-room/job-scrape/internal/scheduler"
)

var (
	watchOpts     runFlags
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run repeatedly on an interval",
	Long:  "Runs immediately, then again every --interval; blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	addRunFlags(watchCmd, &watchOpts)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 6*time.Hour, "time between the end of one run and the start of the next")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	if watchInterval <= 0 {
		logger.Error("--interval must be positive", "interval", watchInterval.String())
		os.Exit(1)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) error {
		sum, err := executeRun(ctx, cfg, watchOpts, withRunID(logger))
		if sum != nil {
			printSummary(sum)
		}
		return err
	}

	sched := scheduler.NewScheduler(run, watchInterval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}

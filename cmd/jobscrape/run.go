package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jo-room/job-scrape/internal/config"
	"github.com/jo-room/job-scrape/internal/filter"
	"github.com/jo-room/job-scrape/internal/model"
	"github.com/jo-room/job-scrape/internal/page"
	"github.com/jo-room/job-scrape/internal/ratelimit"
	"github.com/jo-room/job-scrape/internal/runner"
	"github.com/jo-room/job-scrape/internal/scanner"
	"github.com/jo-room/job-scrape/internal/store"
)

// runFlags are shared by run and watch.
type runFlags struct {
	record         string
	limitSource    string
	addSearchTerms []string
	defaultSleep   time.Duration
	skipWrite      bool
	backup         bool
	nonDestructive bool
	alwaysWrite    bool
	noLock         bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan every active source once",
	Long: "Scans every active source, publishes new postings and new errors, and " +
		"writes the run record when new postings were found.",
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd, &runOpts)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	fs := cmd.Flags()
	fs.StringVar(&f.record, "record", "", "run record path (or redis key) overriding the config")
	fs.StringVar(&f.limitSource, "limit-source", "", "only scan sources whose name contains this text")
	fs.StringArrayVar(&f.addSearchTerms, "add-search-term", nil, "extra search term for this run (repeatable)")
	fs.DurationVar(&f.defaultSleep, "default-sleep", 0, "override default_sleep for this run")
	fs.BoolVar(&f.skipWrite, "skip-write", false, "do not write the run record")
	fs.BoolVar(&f.backup, "backup", false, "back up the existing run record before overwriting it")
	fs.BoolVar(&f.nonDestructive, "non-destructive", false, "write to a timestamped copy instead of the run record")
	fs.BoolVar(&f.alwaysWrite, "always-write", false, "write the run record even when nothing new was found")
	fs.BoolVar(&f.noLock, "no-lock", false, "do not take the run record lock")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := executeRun(ctx, cfg, runOpts, withRunID(logger))
	if sum != nil {
		printSummary(sum)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Error("run record not found, create it with `jobscrape init`", "error", err)
		} else {
			logger.Error("run failed", "error", err)
		}
		os.Exit(1)
	}
	return nil
}

// applyRunFlags returns a copy of cfg with the per-run overrides applied.
func applyRunFlags(cfg *config.Config, f runFlags) (*config.Config, error) {
	out := *cfg
	out.SearchTerms = filter.WithExtraTerms(cfg.SearchTerms, f.addSearchTerms...)
	if f.defaultSleep < 0 {
		return nil, fmt.Errorf("--default-sleep must not be negative, got %s", f.defaultSleep)
	}
	if f.defaultSleep > 0 {
		out.DefaultSleep = f.defaultSleep
	}
	if f.record != "" {
		if out.RunRecord.Backend == "redis" {
			out.RunRecord.RedisKey = f.record
		} else {
			out.RunRecord.Path = f.record
		}
	}
	if f.alwaysWrite {
		out.WritePolicy = string(runner.WriteAlways)
	}
	return &out, nil
}

func executeRun(ctx context.Context, base *config.Config, f runFlags, logger *slog.Logger) (*runner.Summary, error) {
	cfg, err := applyRunFlags(base, f)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg.RunRecord, logger)
	if err != nil {
		return nil, fmt.Errorf("open run record: %w", err)
	}
	defer st.close()

	if !f.noLock {
		unlock, err := store.Lock(st.lockPath)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	pub, err := setupPublisher(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	sess := page.New(page.Options{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
		Limiter:   ratelimit.NewHostLimiter(cfg.HTTP.MinHostDelay),
	}, logger)

	sc := scanner.New(sess, scanner.Options{
		DefaultSleep:     cfg.DefaultSleep,
		HumanCheckPhrase: cfg.HumanCheckPhrase,
		SearchTerms:      cfg.SearchTerms,
		Limit:            f.limitSource,
	}, logger)

	logger.Info("starting run",
		"record", st.label,
		"sources", len(sources),
		"search_terms", len(cfg.SearchTerms),
		"write_policy", cfg.WritePolicy,
	)

	r := runner.New(st, sc, pub, runner.Options{
		WritePolicy: runner.WritePolicy(cfg.WritePolicy),
		ErrorNotify: runner.ErrorNotify(cfg.Notification.Errors),
		Save: model.SaveOptions{
			SkipWrite:      f.skipWrite,
			BackupFirst:    f.backup,
			NonDestructive: f.nonDestructive,
		},
	}, logger)
	return r.Run(ctx, sources)
}

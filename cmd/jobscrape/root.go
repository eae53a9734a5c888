package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jo-room/job-scrape/internal/config"
	"github.com/jo-room/job-scrape/internal/model"
	"github.com/jo-room/job-scrape/internal/notifier"
	"github.com/jo-room/job-scrape/internal/reader"
	"github.com/jo-room/job-scrape/internal/retry"
	"github.com/jo-room/job-scrape/internal/secrets"
	"github.com/jo-room/job-scrape/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscrape",
	Short: "Watch careers pages for new postings",
	Long: "jobscrape scans a configured list of careers pages, reports postings it has " +
		"not seen before, and keeps the list of seen postings in a run record.",
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCRAPE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCRAPE_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	e, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	if path == "" {
		if e.ConfigPath != "" {
			path = e.ConfigPath
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path, e)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// withRunID tags every record logged during one run.
func withRunID(logger *slog.Logger) *slog.Logger {
	return logger.With("run_id", uuid.NewString())
}

func setupPublisher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.Publisher, error) {
	switch cfg.Notification.Type {
	case "slack":
		url, err := secrets.SlackWebhookURL(cfg.Notification)
		if err != nil {
			return nil, err
		}
		logger.Info("using slack publisher", "retries", cfg.Notification.Retries)
		slack := notifier.NewSlackPublisher(url, httpClient, logger)
		if cfg.Notification.Retries == 0 {
			return slack, nil
		}
		return retry.NewRetryPublisher(slack, cfg.Notification.Retries, retry.DefaultBaseDelay, logger), nil
	default:
		return notifier.NewLogPublisher(logger), nil
	}
}

// openedStore is a run record backend plus what the CLI needs around it.
type openedStore struct {
	model.RunStore
	label    string // shown to the user
	lockPath string // base path for the advisory run lock
	close    func() error
}

func openStore(rc config.RunRecordConfig, logger *slog.Logger) (*openedStore, error) {
	switch rc.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(rc.Path, logger)
		if err != nil {
			return nil, err
		}
		return &openedStore{RunStore: s, label: rc.Path, lockPath: rc.Path, close: s.Close}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     rc.RedisAddr,
			Password: rc.RedisPassword,
			DB:       rc.RedisDB,
		})
		s := store.NewRedisStore(client, rc.RedisKey, rc.RedisDB, logger)
		return &openedStore{
			RunStore: s,
			label:    fmt.Sprintf("redis://%s/%d %s", rc.RedisAddr, rc.RedisDB, rc.RedisKey),
			lockPath: filepath.Join(os.TempDir(), "jobscrape-"+sanitize(rc.RedisAddr+"-"+rc.RedisKey)),
			close:    client.Close,
		}, nil
	default:
		return &openedStore{
			RunStore: store.NewFileStore(rc.Path, logger),
			label:    rc.Path,
			lockPath: rc.Path,
			close:    func() error { return nil },
		}, nil
	}
}

func sanitize(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

func buildSources(cfg *config.Config) ([]model.Source, error) {
	return config.BuildSources(cfg, reader.NewDefaultRegistry())
}

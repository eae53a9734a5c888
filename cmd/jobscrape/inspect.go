package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jo-room/job-scrape/internal/inspect"
	"github.com/jo-room/job-scrape/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse the run record interactively (TUI)",
	Long:  "Shows a source picker over the run record, then the seen postings and last error of the chosen source.",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	sources, err := buildSources(cfg)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}

	// Log output once the TUI is up corrupts the display.
	silent := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := openStore(cfg.RunRecord, silent)
	if err != nil {
		logger.Error("failed to open run record", "error", err)
		os.Exit(1)
	}
	defer st.close()

	rec, err := inspect.LoadRecord(st.label, func(ctx context.Context) (*model.RunRecord, error) {
		return st.Load(ctx)
	})
	if err != nil {
		logger.Error("failed to load run record", "error", err)
		os.Exit(1)
	}

	if err := inspect.Browse(inspect.BuildEntries(sources, rec)); err != nil {
		fmt.Printf("TUI error: %v\n", err)
	}
	return nil
}

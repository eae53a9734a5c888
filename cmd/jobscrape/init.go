package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jo-room/job-scrape/internal/model"
	"github.com/jo-room/job-scrape/internal/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty run record",
	Long:  "Writes an empty run record to the configured backend. Refuses to overwrite an existing one unless --force is given.",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing run record")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := openStore(cfg.RunRecord, logger)
	if err != nil {
		logger.Error("failed to open run record", "error", err)
		os.Exit(1)
	}
	defer st.close()

	ctx := context.Background()
	if !initForce {
		_, err := st.Load(ctx)
		switch {
		case err == nil:
			logger.Error("run record already exists, use --force to overwrite", "record", st.label)
			os.Exit(1)
		case !errors.Is(err, store.ErrNotFound):
			logger.Error("failed to check run record", "error", err)
			os.Exit(1)
		}
	}

	dest, err := st.Save(ctx, model.NewRunRecord(), model.SaveOptions{})
	if err != nil {
		logger.Error("failed to write run record", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Created empty run record at %s\n", dest)
	return nil
}

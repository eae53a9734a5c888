package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jo-room/job-scrape/internal/notifier"
	"github.com/jo-room/job-scrape/internal/secrets"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a test notification using the configured publisher.",
	RunE:  runNotifyTest,
}

var notifySetWebhookCmd = &cobra.Command{
	Use:   "set-webhook <account> <url>",
	Short: "Store a Slack webhook URL in the OS keychain",
	Long:  "Stores url under account; point notification.webhook_keyring_account at the same account to use it.",
	Args:  cobra.ExactArgs(2),
	RunE:  runNotifySetWebhook,
}

var notifyDeleteWebhookCmd = &cobra.Command{
	Use:   "delete-webhook <account>",
	Short: "Remove a Slack webhook URL from the OS keychain",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotifyDeleteWebhook,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd, notifySetWebhookCmd, notifyDeleteWebhookCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	pub, err := setupPublisher(cfg, httpClient, logger)
	if err != nil {
		logger.Error("failed to set up publisher", "error", err)
		os.Exit(1)
	}

	if err := notifier.SendTestMessage(context.Background(), pub); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}

func runNotifySetWebhook(cmd *cobra.Command, args []string) error {
	if err := secrets.SetSlackWebhookURL(args[0], args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store webhook: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored webhook under keychain account %q\n", args[0])
	return nil
}

func runNotifyDeleteWebhook(cmd *cobra.Command, args []string) error {
	if err := secrets.DeleteSlackWebhookURL(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "failed to delete webhook: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted webhook for keychain account %q\n", args[0])
	return nil
}

// Package secrets reads and stores credentials in the OS keychain.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/jo-room/job-scrape/internal/config"
)

// KeyringService groups jobscrape's secrets in the OS keychain.
const KeyringService = "jobscrape"

// ErrNoWebhook is returned when no Slack webhook URL is configured anywhere.
var ErrNoWebhook = errors.New("slack webhook URL not found (set notification.webhook_url, JOBSCRAPE_SLACK_WEBHOOK_URL, or store it in the keychain)")

// SlackWebhookURL returns the webhook URL for n: the configured value when
// set, otherwise the one stored under n.WebhookKeyringAccount.
func SlackWebhookURL(n config.NotificationConfig) (string, error) {
	if url := strings.TrimSpace(n.WebhookURL); url != "" {
		return url, nil
	}
	if strings.TrimSpace(n.WebhookKeyringAccount) == "" {
		return "", ErrNoWebhook
	}

	url, err := keyring.Get(KeyringService, n.WebhookKeyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keyring account %q: %w", n.WebhookKeyringAccount, ErrNoWebhook)
	}
	if err != nil {
		return "", fmt.Errorf("read keyring account %q: %w", n.WebhookKeyringAccount, err)
	}
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("keyring account %q: %w", n.WebhookKeyringAccount, ErrNoWebhook)
	}
	return url, nil
}

// SetSlackWebhookURL stores url in the keychain under account.
func SetSlackWebhookURL(account, url string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook URL is empty")
	}
	return keyring.Set(KeyringService, account, url)
}

// DeleteSlackWebhookURL removes the webhook stored under account.
func DeleteSlackWebhookURL(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

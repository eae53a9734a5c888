package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for jobscrape. It is built once by Load
// and not modified afterwards.
type Config struct {
	SearchTerms      []string
	DefaultSleep     time.Duration
	HumanCheckPhrase string
	WritePolicy      string // "on-new" or "always"
	RunRecord        RunRecordConfig
	Notification     NotificationConfig
	HTTP             HTTPConfig
	Sources          []SourceConfig
}

// RunRecordConfig selects where the run record lives.
type RunRecordConfig struct {
	Backend       string `yaml:"backend"` // "file", "sqlite" or "redis"
	Path          string `yaml:"path"`    // file and sqlite
	RedisAddr     string `yaml:"redis_addr"`
	RedisKey      string `yaml:"redis_key"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPassword string `yaml:"redis_password"`
}

// NotificationConfig controls which publisher is used and its settings.
type NotificationConfig struct {
	Type                  string // "log" or "slack"
	WebhookURL            string
	WebhookKeyringAccount string
	Errors                string // "new" or "any"
	Retries               int
}

// HTTPConfig tunes the page session.
type HTTPConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MinHostDelay time.Duration // zero disables per-host spacing
}

// SourceConfig describes one careers page, or a group of pages for
// aggregator-style sources.
type SourceConfig struct {
	Name          string
	PageURL       string
	Reader        string
	ReaderOptions map[string]any
	Active        bool
	NoJobsPhrase  string
	RelevantTerms []string
	LoadDelay     time.Duration
	SettleDelay   time.Duration
	Pages         []PageConfig
	PageReaders   map[string]PageReaderConfig

	Location           string
	Tags               []string
	Notes              string
	CareersLandingPage string
	What               string
	Referral           string
	ApplicationHistory string
}

// PageConfig is one page of a multi-page source.
type PageConfig struct {
	Kind string `yaml:"kind"`
	URL  string `yaml:"url"`
}

// PageReaderConfig names the reader for one kind of page.
type PageReaderConfig struct {
	Reader  string         `yaml:"reader"`
	Options map[string]any `yaml:"options"`
}

const (
	DefaultSleep            = time.Second
	DefaultHumanCheckPhrase = "Verify you are human"
	DefaultRunRecordPath    = "run_record.json"
	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisKey         = "jobscrape:run_record"
	DefaultUserAgent        = "jobscrape/1.0"
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultMinHostDelay     = time.Second
	DefaultRetries          = 2

	slackWebhookPrefix = "https://hooks.slack.com/"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	SearchTerms      []string              `yaml:"search_terms"`
	DefaultSleep     string                `yaml:"default_sleep"`
	HumanCheckPhrase string                `yaml:"human_check_phrase"`
	WritePolicy      string                `yaml:"write_policy"`
	RunRecord        RunRecordConfig       `yaml:"run_record"`
	Notification     rawNotificationConfig `yaml:"notification"`
	HTTP             rawHTTPConfig         `yaml:"http"`
	Sources          []rawSourceConfig     `yaml:"sources"`
}

type rawNotificationConfig struct {
	Type                  string `yaml:"type"`
	WebhookURL            string `yaml:"webhook_url"`
	WebhookKeyringAccount string `yaml:"webhook_keyring_account"`
	Errors                string `yaml:"errors"`
	Retries               *int   `yaml:"retries"`
}

type rawHTTPConfig struct {
	Timeout      string `yaml:"timeout"`
	UserAgent    string `yaml:"user_agent"`
	MinHostDelay string `yaml:"min_host_delay"`
}

type rawSourceConfig struct {
	Name          string                      `yaml:"name"`
	PageURL       string                      `yaml:"page_url"`
	Reader        string                      `yaml:"reader"`
	ReaderOptions map[string]any              `yaml:"reader_options"`
	Active        *bool                       `yaml:"active"`
	NoJobsPhrase  string                      `yaml:"no_jobs_phrase"`
	RelevantTerms []string                    `yaml:"relevant_terms"`
	LoadDelay     string                      `yaml:"load_delay"`
	SettleDelay   string                      `yaml:"settle_delay"`
	Pages         []PageConfig                `yaml:"pages"`
	PageReaders   map[string]PageReaderConfig `yaml:"page_readers"`

	Location           string   `yaml:"location"`
	Tags               []string `yaml:"tags"`
	Notes              string   `yaml:"notes"`
	CareersLandingPage string   `yaml:"careers_landing_page"`
	What               string   `yaml:"what"`
	Referral           string   `yaml:"referral"`
	ApplicationHistory string   `yaml:"application_history"`
}

// Load reads and parses the YAML config file at path, applies environment
// overrides from e, validates it, and returns Config.
func Load(path string, e Env) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	defaultSleep, err := parseDuration("default_sleep", raw.DefaultSleep, DefaultSleep)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("http.timeout", raw.HTTP.Timeout, DefaultHTTPTimeout)
	if err != nil {
		return nil, err
	}
	minHostDelay, err := parseDuration("http.min_host_delay", raw.HTTP.MinHostDelay, DefaultMinHostDelay)
	if err != nil {
		return nil, err
	}

	sources := make([]SourceConfig, 0, len(raw.Sources))
	for i, rs := range raw.Sources {
		sc, err := rs.parse(i)
		if err != nil {
			return nil, err
		}
		sources = append(sources, sc)
	}

	retries := DefaultRetries
	if raw.Notification.Retries != nil {
		retries = *raw.Notification.Retries
	}

	cfg := &Config{
		SearchTerms:      raw.SearchTerms,
		DefaultSleep:     defaultSleep,
		HumanCheckPhrase: orDefault(raw.HumanCheckPhrase, DefaultHumanCheckPhrase),
		WritePolicy:      orDefault(raw.WritePolicy, "on-new"),
		RunRecord:        raw.RunRecord,
		Notification: NotificationConfig{
			Type:                  orDefault(raw.Notification.Type, "log"),
			WebhookURL:            raw.Notification.WebhookURL,
			WebhookKeyringAccount: raw.Notification.WebhookKeyringAccount,
			Errors:                orDefault(raw.Notification.Errors, "new"),
			Retries:               retries,
		},
		HTTP: HTTPConfig{
			Timeout:      httpTimeout,
			UserAgent:    orDefault(raw.HTTP.UserAgent, DefaultUserAgent),
			MinHostDelay: minHostDelay,
		},
		Sources: sources,
	}
	cfg.RunRecord.Backend = orDefault(cfg.RunRecord.Backend, "file")
	cfg.RunRecord.Path = orDefault(cfg.RunRecord.Path, DefaultRunRecordPath)
	cfg.RunRecord.RedisAddr = orDefault(cfg.RunRecord.RedisAddr, DefaultRedisAddr)
	cfg.RunRecord.RedisKey = orDefault(cfg.RunRecord.RedisKey, DefaultRedisKey)

	cfg.applyEnv(e)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (rs rawSourceConfig) parse(i int) (SourceConfig, error) {
	field := func(name string) string {
		return fmt.Sprintf("sources[%d].%s", i, name)
	}
	loadDelay, err := parseDuration(field("load_delay"), rs.LoadDelay, 0)
	if err != nil {
		return SourceConfig{}, err
	}
	settleDelay, err := parseDuration(field("settle_delay"), rs.SettleDelay, 0)
	if err != nil {
		return SourceConfig{}, err
	}

	active := true
	if rs.Active != nil {
		active = *rs.Active
	}

	return SourceConfig{
		Name:               strings.TrimSpace(rs.Name),
		PageURL:            rs.PageURL,
		Reader:             rs.Reader,
		ReaderOptions:      rs.ReaderOptions,
		Active:             active,
		NoJobsPhrase:       rs.NoJobsPhrase,
		RelevantTerms:      rs.RelevantTerms,
		LoadDelay:          loadDelay,
		SettleDelay:        settleDelay,
		Pages:              rs.Pages,
		PageReaders:        rs.PageReaders,
		Location:           rs.Location,
		Tags:               rs.Tags,
		Notes:              rs.Notes,
		CareersLandingPage: rs.CareersLandingPage,
		What:               rs.What,
		Referral:           rs.Referral,
		ApplicationHistory: rs.ApplicationHistory,
	}, nil
}

func (c *Config) applyEnv(e Env) {
	if e.RunRecord != "" {
		if c.RunRecord.Backend == "redis" {
			c.RunRecord.RedisKey = e.RunRecord
		} else {
			c.RunRecord.Path = e.RunRecord
		}
	}
	if e.SlackWebhookURL != "" {
		c.Notification.WebhookURL = e.SlackWebhookURL
	}
	if e.RedisPassword != "" {
		c.RunRecord.RedisPassword = e.RedisPassword
	}
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("at least one source must be configured")
	}
	if cfg.DefaultSleep <= 0 {
		return fmt.Errorf("default_sleep must be positive, got %v", cfg.DefaultSleep)
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MinHostDelay < 0 {
		return fmt.Errorf("http.min_host_delay must not be negative, got %v", cfg.HTTP.MinHostDelay)
	}

	switch cfg.WritePolicy {
	case "on-new", "always":
	default:
		return fmt.Errorf("write_policy must be \"on-new\" or \"always\", got %q", cfg.WritePolicy)
	}

	switch cfg.RunRecord.Backend {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("run_record.backend must be file, sqlite or redis, got %q", cfg.RunRecord.Backend)
	}

	n := cfg.Notification
	switch n.Type {
	case "log":
	case "slack":
		if n.WebhookURL == "" && n.WebhookKeyringAccount == "" {
			return errors.New("notification.webhook_url or notification.webhook_keyring_account is required when type is \"slack\"")
		}
		if n.WebhookURL != "" && !strings.HasPrefix(n.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", n.Type)
	}
	if n.Errors != "new" && n.Errors != "any" {
		return fmt.Errorf("notification.errors must be \"new\" or \"any\", got %q", n.Errors)
	}
	if n.Retries < 0 {
		return fmt.Errorf("notification.retries must not be negative, got %d", n.Retries)
	}

	names := make(map[string]bool, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if names[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = true

		if s.LoadDelay < 0 || s.SettleDelay < 0 {
			return fmt.Errorf("source %q: delays must not be negative", s.Name)
		}
		if err := validatePages(s); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
	}

	return nil
}

func validatePages(s SourceConfig) error {
	if len(s.Pages) == 0 {
		if s.PageURL == "" {
			return errors.New("page_url or pages is required")
		}
		return nil
	}

	if s.PageURL != "" || s.Reader != "" {
		return errors.New("page_url/reader and pages are mutually exclusive")
	}
	for i, p := range s.Pages {
		if p.Kind == "" || p.URL == "" {
			return fmt.Errorf("pages[%d]: kind and url are required", i)
		}
		if _, ok := s.PageReaders[p.Kind]; !ok {
			return fmt.Errorf("pages[%d]: no page_readers entry for kind %q", i, p.Kind)
		}
	}
	return nil
}

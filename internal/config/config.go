package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/availcheck/internal/availability"
	"github.com/teemow/availcheck/internal/report"
)

// DefaultPath is the config file looked up in the working directory when no
// path is given.
const DefaultPath = "availcheck.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AVAILCHECK_"

// FormLabels are the question titles of the form fields. Empty values fall
// back to the locale defaults.
type FormLabels struct {
	Date      string `yaml:"date"`
	StartTime string `yaml:"start_time"`
	EndTime   string `yaml:"end_time"`
}

// ServerConfig configures the webhook and metrics listeners.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full availcheck configuration.
type Config struct {
	// Users are the calendar IDs (emails) checked on every run.
	Users []string `yaml:"users"`

	// TimeZone is the IANA zone form dates are interpreted in.
	// Empty or "Local" means the host zone.
	TimeZone string `yaml:"time_zone"`

	// Locale selects report and form labels (en, ru).
	Locale string `yaml:"locale"`

	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Account         string `yaml:"account"`
	Impersonate     string `yaml:"impersonate"`

	Concurrency  int           `yaml:"concurrency"`
	QueryTimeout time.Duration `yaml:"query_timeout"`

	FormLabels FormLabels   `yaml:"form_labels"`
	Server     ServerConfig `yaml:"server"`
	Log        LogConfig    `yaml:"log"`

	// DryRun renders the report to stdout instead of the spreadsheet.
	DryRun bool `yaml:"-"`
}

// Default returns a Config with defaults applied.
func Default() Config {
	return Config{
		Locale:       "en",
		Account:      "default",
		Concurrency:  availability.DefaultConcurrency,
		QueryTimeout: availability.DefaultQueryTimeout,
		Server: ServerConfig{
			Addr:            ":8080",
			MetricsAddr:     ":9090",
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadDotEnv loads the first .env file found in the given paths into the
// process environment. Existing variables are not overwritten. Missing files
// are skipped; a file that exists but cannot be read or parsed is an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
		return nil
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file and
// AVAILCHECK_* environment variables, in that order of precedence.
// An empty path reads DefaultPath when it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("USERS"); ok {
		c.Users = SplitList(v)
	}

	strs := map[string]*string{
		"TIME_ZONE":        &c.TimeZone,
		"LOCALE":           &c.Locale,
		"SPREADSHEET_ID":   &c.SpreadsheetID,
		"CREDENTIALS_FILE": &c.CredentialsFile,
		"ACCOUNT":          &c.Account,
		"IMPERSONATE":      &c.Impersonate,
		"LABEL_DATE":       &c.FormLabels.Date,
		"LABEL_START_TIME": &c.FormLabels.StartTime,
		"LABEL_END_TIME":   &c.FormLabels.EndTime,
		"ADDR":             &c.Server.Addr,
		"METRICS_ADDR":     &c.Server.MetricsAddr,
		"LOG_LEVEL":        &c.Log.Level,
		"LOG_FORMAT":       &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	if v, ok := get("CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sCONCURRENCY %q: %w", EnvPrefix, v, err)
		}
		c.Concurrency = n
	}

	durations := map[string]*time.Duration{
		"QUERY_TIMEOUT":    &c.QueryTimeout,
		"SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
	}
	for key, dst := range durations {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
			}
			*dst = d
		}
	}

	return nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Users) == 0 {
		errs = append(errs, errors.New("users must list at least one calendar"))
	}
	seen := make(map[string]int, len(c.Users))
	for i, u := range c.Users {
		key := strings.ToLower(strings.TrimSpace(u))
		if key == "" {
			errs = append(errs, fmt.Errorf("users[%d] is empty", i))
			continue
		}
		if first, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("users[%d] duplicates users[%d] (%s)", i, first, u))
			continue
		}
		seen[key] = i
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := report.LabelsFor(c.Locale); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("query_timeout must be positive, got %s", c.QueryTimeout))
	}
	if !c.DryRun && c.SpreadsheetID == "" {
		errs = append(errs, errors.New("spreadsheet_id is required unless running with --dry-run"))
	}

	return errors.Join(errs...)
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || strings.EqualFold(c.TimeZone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ABOUTME: Configuration loading for ics2disc from YAML file and environment
// ABOUTME: Resolves feed source, Discourse credentials, tags, and rendering timezone

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores ics2disc configuration. Values resolve lowest-to-highest:
// built-in defaults, config file, environment variables, command-line flags.
type Config struct {
	// FeedURL is the ICS source: an http(s):// or webcal:// URL, or a
	// local file path. Supports ~ expansion for paths.
	FeedURL string `yaml:"feed_url,omitempty"`

	// BaseURL is the Discourse site root, e.g. https://forum.example.com.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKey and APIUsername authenticate against the Discourse API.
	// APIUsername defaults to "system".
	APIKey      string `yaml:"api_key,omitempty"`
	APIUsername string `yaml:"api_username,omitempty"`

	// CategoryID is the category new topics are created in. Topics that
	// already exist are never moved, so this only applies on create.
	CategoryID int `yaml:"category_id,omitempty"`

	// DefaultTags and StaticTags are applied to every synced topic, merged
	// with whatever tags the topic already carries.
	DefaultTags []string `yaml:"default_tags,omitempty"`
	StaticTags  []string `yaml:"static_tags,omitempty"`

	// SiteTimezone is the IANA zone event times are rendered in.
	// Defaults to Europe/London.
	SiteTimezone string `yaml:"site_timezone,omitempty"`

	// DisableUIDTag turns off the per-event ics-<hash> tag that makes
	// topics findable by tag as well as by marker.
	DisableUIDTag bool `yaml:"disable_uid_tag,omitempty"`

	// Timeout is the Discourse API request timeout. Zero means the
	// default.
	Timeout int `yaml:"timeout,omitempty"` // seconds

	// MaxRetries is how many times a Discourse API request is retried
	// after a transient error. Zero means the default.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// WatchSchedule is the cron expression watch mode runs on.
	// Defaults to every 15 minutes.
	WatchSchedule string `yaml:"watch_schedule,omitempty"`
}

// GetFeedURL returns the configured feed source with ~ expanded.
func (c *Config) GetFeedURL() string {
	return ExpandPath(c.FeedURL)
}

// GetAPIUsername returns the configured API username, defaulting to "system".
func (c *Config) GetAPIUsername() string {
	if c.APIUsername == "" {
		return DefaultAPIUsername
	}
	return c.APIUsername
}

// GetSiteTimezone returns the configured rendering timezone name,
// defaulting to Europe/London.
func (c *Config) GetSiteTimezone() string {
	if c.SiteTimezone == "" {
		return DefaultSiteTimezone
	}
	return c.SiteTimezone
}

// GetTimeout returns the Discourse API request timeout.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultAPITimeout
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetMaxRetries returns the retry cap for transient Discourse API errors.
func (c *Config) GetMaxRetries() int {
	if c.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return c.MaxRetries
}

// GetWatchSchedule returns the cron expression for watch mode.
func (c *Config) GetWatchSchedule() string {
	if c.WatchSchedule == "" {
		return DefaultWatchSchedule
	}
	return c.WatchSchedule
}

// UIDTagEnabled reports whether synced topics get a per-event ics-<hash> tag.
func (c *Config) UIDTagEnabled() bool {
	return !c.DisableUIDTag
}

// Location resolves the configured site timezone.
func (c *Config) Location() (*time.Location, error) {
	name := c.GetSiteTimezone()
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid site timezone %q: %w", name, err)
	}
	return loc, nil
}

// ValidateFeed checks the fields every command that reads the calendar needs.
func (c *Config) ValidateFeed() error {
	if c.FeedURL == "" {
		return errors.New("no ICS feed configured (set feed_url, ICS2DISC_FEED_URL, or --feed)")
	}
	return nil
}

// ValidateForum checks the fields required to write to Discourse. Read-only
// commands skip this so they run without credentials.
func (c *Config) ValidateForum() error {
	if c.BaseURL == "" {
		return errors.New("no Discourse base URL configured (set base_url or DISCOURSE_BASE_URL)")
	}
	if c.APIKey == "" {
		return errors.New("no Discourse API key configured (set api_key or DISCOURSE_API_KEY)")
	}
	if c.CategoryID <= 0 {
		return errors.New("no Discourse category configured (set category_id, DISCOURSE_CATEGORY_ID, or --category-id)")
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// SplitTags splits a comma-separated tag list, dropping blanks.
func SplitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "ics2disc", "config.yaml")
}

// Load reads config from disk and applies environment overrides. A missing
// config file is not an error: everything can come from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over file values.
func (c *Config) applyEnv() error {
	if v := os.Getenv("ICS2DISC_FEED_URL"); v != "" {
		c.FeedURL = v
	}
	if v := os.Getenv("DISCOURSE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("DISCOURSE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("DISCOURSE_API_USERNAME"); v != "" {
		c.APIUsername = v
	}
	if v := os.Getenv("DISCOURSE_CATEGORY_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DISCOURSE_CATEGORY_ID %q: %w", v, err)
		}
		c.CategoryID = id
	}
	if v := os.Getenv("DISCOURSE_DEFAULT_TAGS"); v != "" {
		c.DefaultTags = SplitTags(v)
	}
	return nil
}

// Package config loads reconcile's configuration from built-in defaults, a
// config file and environment variables, in that order of increasing
// precedence.
//
// Grounded on the teacher's client.Config / LoadConfig (client/config.go):
// same shape (paths plus a provider endpoint's credentials) and the same
// checkServerURL-style validation method, but sourced through viper instead
// of a bare encoding/json decode so env var overrides compose without
// hand-rolled precedence logic.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting reconcile's subcommands share.
type Config struct {
	// DBPath is the path to the SQLite store file.
	DBPath string `mapstructure:"db_path"`

	// MusicRoots are the directories the Scanner and Watcher operate over.
	MusicRoots []string `mapstructure:"music_roots"`
	// Extensions are the file extensions considered audio, without dots.
	Extensions []string `mapstructure:"extensions"`
	// IgnorePatterns are substrings that exclude a path from scanning/watching.
	IgnorePatterns []string `mapstructure:"ignore_patterns"`
	// UseYear controls whether the normalizer folds year into its token bag.
	UseYear bool `mapstructure:"use_year"`

	// WatchDebounceMS is the Watcher's debounce window, in milliseconds.
	WatchDebounceMS int `mapstructure:"watch_debounce_ms"`
	// StorePollIntervalMS is the Pipeline's store-mtime poll cadence, in milliseconds.
	StorePollIntervalMS int `mapstructure:"store_poll_interval_ms"`

	// DurationToleranceSec is T in the Candidate Selector's duration prefilter.
	DurationToleranceSec float64 `mapstructure:"duration_tolerance_sec"`
	// CandidateK caps the Candidate Selector's post-prefilter pool.
	CandidateK int `mapstructure:"candidate_k"`

	// Provider identifies which remote service internal/provider talks to.
	Provider string `mapstructure:"provider"`
	// ClientID and ClientSecret are the OAuth-PKCE application credentials.
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	TokenPath    string `mapstructure:"token_path"`

	// ExportDir and ReportDir are where the Exporter and Reporter write.
	ExportDir      string `mapstructure:"export_dir"`
	ExportMode     string `mapstructure:"export_mode"` // strict | mirrored | placeholder
	PlaceholderExt string `mapstructure:"placeholder_ext"`
	ReportDir      string `mapstructure:"report_dir"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from the defaults in setDefaults, the file at
// path (if non-empty) and environment variables prefixed RECONCILE_, in
// increasing precedence.
// Matches the teacher's LoadConfig signature shape (a path in, a filled
// struct out) but goes through viper rather than a direct json.Decode.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RECONCILE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("extensions", []string{"mp3", "flac", "m4a", "ogg"})
	v.SetDefault("use_year", true)
	v.SetDefault("watch_debounce_ms", 2000)
	v.SetDefault("store_poll_interval_ms", 2000)
	v.SetDefault("duration_tolerance_sec", 2.0)
	v.SetDefault("candidate_k", 500)
	v.SetDefault("export_mode", "strict")
	v.SetDefault("placeholder_ext", ".missing")
	v.SetDefault("log_level", "info")
}

// Validate checks that the fields every subcommand needs are present,
// the way the teacher's checkServerURL guards ServerURL before use.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path not set")
	}
	if len(c.MusicRoots) == 0 {
		return errors.New("music_roots not set")
	}
	switch c.ExportMode {
	case "strict", "mirrored", "placeholder":
	default:
		return fmt.Errorf("invalid export_mode %q", c.ExportMode)
	}
	return nil
}

// WatchDebounce returns WatchDebounceMS as a time.Duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// StorePollInterval returns StorePollIntervalMS as a time.Duration.
func (c *Config) StorePollInterval() time.Duration {
	return time.Duration(c.StorePollIntervalMS) * time.Millisecond
}

// ExtensionSet returns Extensions as the set internal/scan and
// internal/watch's Options expect: lowercased, with a leading dot.
func (c *Config) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.Extensions))
	for _, ext := range c.Extensions {
		set["."+strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}
	return set
}

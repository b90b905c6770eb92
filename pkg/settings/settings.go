// Package settings persists the sync tool configuration as a YAML file
// with MEMOS_SYNC_* environment overrides.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the persisted configuration of the sync tool.
type Settings struct {
	// APIURL is the Memos API root, including the /api/v1 segment.
	APIURL string

	// AccessToken authenticates against the Memos server.
	AccessToken string

	// SyncLimit caps how many memos one run fetches.
	SyncLimit int

	// SyncDir is where memo Markdown files are written.
	SyncDir string

	// AttachmentDir is where downloaded attachment files are written.
	AttachmentDir string

	// Interval between runs in daemon mode.
	Interval time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogPretty switches to human-readable console output.
	LogPretty bool
}

// Defaults returns the built-in configuration. APIURL and AccessToken have
// no defaults and must come from the settings file or environment.
func Defaults() Settings {
	return Settings{
		SyncLimit:     1000,
		SyncDir:       "memos",
		AttachmentDir: "memos/attachments",
		Interval:      15 * time.Minute,
		LogLevel:      "info",
	}
}

// Merge overlays loaded onto defaults and returns the result. Zero values
// in loaded keep the default. Neither argument is modified.
func Merge(defaults, loaded Settings) Settings {
	merged := defaults

	if loaded.APIURL != "" {
		merged.APIURL = loaded.APIURL
	}
	if loaded.AccessToken != "" {
		merged.AccessToken = loaded.AccessToken
	}
	if loaded.SyncLimit > 0 {
		merged.SyncLimit = loaded.SyncLimit
	}
	if loaded.SyncDir != "" {
		merged.SyncDir = loaded.SyncDir
	}
	if loaded.AttachmentDir != "" {
		merged.AttachmentDir = loaded.AttachmentDir
	}
	if loaded.Interval > 0 {
		merged.Interval = loaded.Interval
	}
	if loaded.LogLevel != "" {
		merged.LogLevel = loaded.LogLevel
	}
	if loaded.LogPretty {
		merged.LogPretty = true
	}

	return merged
}

// Load reads settings from path and merges them over Defaults. A missing
// file is not an error; unreadable or invalid YAML is. Environment
// variables prefixed MEMOS_SYNC_ override file values.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MEMOS_SYNC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	loaded := Settings{
		APIURL:        v.GetString("api_url"),
		AccessToken:   v.GetString("access_token"),
		SyncLimit:     v.GetInt("sync_limit"),
		SyncDir:       v.GetString("sync_dir"),
		AttachmentDir: v.GetString("attachment_dir"),
		Interval:      v.GetDuration("interval"),
		LogLevel:      v.GetString("log_level"),
		LogPretty:     v.GetBool("log_pretty"),
	}

	return Merge(Defaults(), loaded), nil
}

// Save writes the settings to path as YAML. Parent directories are created
// with owner-only permissions since the file carries the access token.
func Save(path string, s Settings) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)

	v.Set("api_url", s.APIURL)
	v.Set("access_token", s.AccessToken)
	v.Set("sync_limit", s.SyncLimit)
	v.Set("sync_dir", s.SyncDir)
	v.Set("attachment_dir", s.AttachmentDir)
	v.Set("interval", s.Interval.String())
	v.Set("log_level", s.LogLevel)
	v.Set("log_pretty", s.LogPretty)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// DefaultPath returns the per-user settings location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "memos-sync", "settings.yaml"), nil
}

// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/veleda/ansuz/internal/search"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Config represents the application configuration. The core consumes it
// already parsed: cmd/app loads it from YAML before calling Run.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Archive ArchiveConfig     `yaml:"archive"`
	Editor  EditorConfig      `yaml:"editor"`
	Sync    SyncConfig        `yaml:"sync"`
	Theme   ThemeConfig       `yaml:"theme"`
}

// NewDefaultConfig returns a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			SortMode: "date",
		},
		Archive: ArchiveConfig{
			Path: filepath.Join(home, "notes"),
		},
		Sync: SyncConfig{
			TimeoutSeconds: 60,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Archive.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.Theme.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	SortMode string     `yaml:"sort_mode"`
}

// SortKey maps the configured sort mode onto the sort engine.
func (c *ApplicationConfig) SortKey() search.SortKey {
	return search.ParseSortKey(c.SortMode)
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SortMode, validation.In("date", "name", "size")),
	)
}

// ArchiveConfig holds the path to the note archive root.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the archive configuration.
func (c *ArchiveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// EditorConfig holds the external editor command. An empty command falls
// back to $EDITOR at invocation time.
type EditorConfig struct {
	Cmd string `yaml:"cmd"`
}

// SyncConfig holds git synchronization settings.
//
// Auto enables a final sync pass on shutdown. TimeoutSeconds bounds one
// full sync run so a hung remote cannot block exit.
type SyncConfig struct {
	Auto           bool `yaml:"auto"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

// Timeout returns the run bound as a duration.
func (c *SyncConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(600)),
	)
}

// ThemeConfig holds renderer color overrides, keyed by role (accent,
// selection, header, dim, bold). Values are #RRGGBB strings; the core only
// validates and forwards them, the view layer interprets them.
type ThemeConfig struct {
	Colors map[string]string `yaml:"colors"`
}

// Validate validates the theme configuration.
func (c *ThemeConfig) Validate() error {
	return validation.Validate(c.Colors,
		validation.Each(validation.Match(hexColorRe)),
	)
}

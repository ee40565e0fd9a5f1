package internal

import "testing"

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Archive.Path = "/tmp/notes"
	return cfg
}

func TestConfigValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with archive path must validate: %v", err)
	}
	if cfg.App.SortKey().String() != "date" {
		t.Errorf("default sort key = %v", cfg.App.SortKey())
	}
}

func TestConfigValidate_MissingArchivePath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Archive.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing archive path must fail validation")
	}
}

func TestConfigValidate_SortMode(t *testing.T) {
	cfg := validConfig()
	cfg.App.SortMode = "size"
	if err := cfg.Validate(); err != nil {
		t.Errorf("size is a valid sort mode: %v", err)
	}
	cfg.App.SortMode = "alphabetical"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown sort mode must fail validation")
	}
}

func TestConfigValidate_SyncTimeoutBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero timeout must fail validation")
	}
	cfg.Sync.TimeoutSeconds = 601
	if err := cfg.Validate(); err == nil {
		t.Error("timeout above bound must fail validation")
	}
}

func TestConfigValidate_ThemeColors(t *testing.T) {
	cfg := validConfig()
	cfg.Theme.Colors = map[string]string{"accent": "#89dceb", "dim": "#6c7086"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid hex colors must pass: %v", err)
	}
	cfg.Theme.Colors["bold"] = "red"
	if err := cfg.Validate(); err == nil {
		t.Error("non-hex color must fail validation")
	}
}

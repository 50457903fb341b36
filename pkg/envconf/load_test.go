package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type nested struct {
	Interval time.Duration `env:"TEST_INTERVAL" envDefault:"5m"`
}

type sample struct {
	Name    string     `env:"TEST_NAME"`
	Port    uint16     `env:"TEST_PORT" envDefault:"8080"`
	Level   slog.Level `env:"TEST_LEVEL" envDefault:"WARN"`
	Enabled bool       `env:"TEST_ENABLED" envDefault:"false"`

	Section nested
}

func TestLoadReadsEnvAndDefaults(t *testing.T) {
	t.Setenv("TEST_NAME", "engine")
	t.Setenv("TEST_PORT", "9090")

	cfg := new(sample)
	if err := Load(cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Name != "engine" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, env should beat default", cfg.Port)
	}
	if cfg.Level != slog.LevelWarn {
		t.Errorf("Level = %v, want default WARN", cfg.Level)
	}
	if cfg.Enabled {
		t.Error("Enabled should default to false")
	}
	if cfg.Section.Interval != 5*time.Minute {
		t.Errorf("nested Interval = %v, want default 5m", cfg.Section.Interval)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	cfg := new(sample) // TEST_NAME unset and has no default

	err := Load(cfg)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("err = %v, want ErrMissingRequired", err)
	}
}

func TestLoadBadValue(t *testing.T) {
	t.Setenv("TEST_NAME", "engine")
	t.Setenv("TEST_PORT", "not-a-port")

	if err := Load(new(sample)); err == nil {
		t.Fatal("expected parse error")
	}
}

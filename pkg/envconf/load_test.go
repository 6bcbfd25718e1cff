package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type nested struct {
	Decks int `env:"DECKS" envDefault:"1"`
}

type sample struct {
	Port     uint16          `env:"PORT" envDefault:"8080"`
	DSN      string          `env:"DSN"`
	Level    slog.Level      `env:"LEVEL" envDefault:"INFO"`
	TTL      time.Duration   `env:"TTL" envDefault:"10m"`
	Rate     decimal.Decimal `env:"RATE" envDefault:"0.02"`
	Rollover bool            `env:"ROLLOVER" envDefault:"true"`
	Game     nested
}

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadWith_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()

	var cfg sample

	err := LoadWith(&cfg, lookupFrom(map[string]string{
		"DSN":   "postgres://x",
		"LEVEL": "DEBUG",
		"DECKS": "6",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("port: want 8080, got %d", cfg.Port)
	}
	if cfg.DSN != "postgres://x" {
		t.Fatalf("dsn: got %q", cfg.DSN)
	}
	if cfg.Level != slog.LevelDebug {
		t.Fatalf("level: want DEBUG, got %v", cfg.Level)
	}
	if cfg.TTL != 10*time.Minute {
		t.Fatalf("ttl: got %v", cfg.TTL)
	}
	if !cfg.Rate.Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("rate: got %s", cfg.Rate)
	}
	if !cfg.Rollover {
		t.Fatalf("rollover: want true")
	}
	if cfg.Game.Decks != 6 {
		t.Fatalf("nested decks: want 6, got %d", cfg.Game.Decks)
	}
}

func TestLoadWith_MissingRequired(t *testing.T) {
	t.Parallel()

	var cfg sample

	err := LoadWith(&cfg, lookupFrom(map[string]string{}))
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

func TestLoadWith_BadValue(t *testing.T) {
	t.Parallel()

	var cfg sample

	err := LoadWith(&cfg, lookupFrom(map[string]string{"DSN": "x", "PORT": "not-a-port"}))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	t.Parallel()

	err := Load(sample{})
	if err == nil {
		t.Fatal("expected error for non-pointer destination")
	}
}

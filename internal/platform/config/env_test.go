package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port    int           `env:"STOREFRONT_TEST_PORT" envDefault:"123"`
	TTL     time.Duration `env:"STOREFRONT_TEST_TTL" envDefault:"5m"`
	Origins []string      `env:"STOREFRONT_TEST_ORIGINS" envSeparator:","`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.TTL != 5*time.Minute {
		t.Fatalf("expected default ttl 5m, got %v", cfg.TTL)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("STOREFRONT_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvTrimsOrigins(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_ORIGINS", "http://a, ,http://b")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	origins := TrimCSV(cfg.Origins)
	if len(origins) != 2 || origins[0] != "http://a" || origins[1] != "http://b" {
		t.Fatalf("unexpected origins: %v", origins)
	}
}

func TestTrimCSVAllBlank(t *testing.T) {
	if got := TrimCSV([]string{" ", ""}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

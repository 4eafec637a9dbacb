package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type envTestConfig struct {
	Port   int    `env:"PEPEDOME_TEST_PORT" envDefault:"123"`
	Secret string `env:"PEPEDOME_TEST_SECRET"`
}

func TestParseEnvAppliesDefaultsAndOverrides(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("Port = %d, want default 123", cfg.Port)
	}

	t.Setenv("PEPEDOME_TEST_PORT", "8443")
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8443 {
		t.Fatalf("Port = %d, want 8443", cfg.Port)
	}
}

func TestParseEnvWrapsErrors(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("PEPEDOME_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("ParseEnv() error = %v, want parse env error", err)
	}
}

func TestParseEnvReadsSecretFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("re_live_key\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("PEPEDOME_TEST_SECRET_FILE", path)

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Secret != "re_live_key" {
		t.Fatalf("Secret = %q, want file contents without newline", cfg.Secret)
	}
}

func TestEnvironPrefersDirectValue(t *testing.T) {
	t.Parallel()

	values, err := Environ([]string{
		"PEPEDOME_TOKEN=direct",
		"PEPEDOME_TOKEN_FILE=/does/not/exist",
		"OTHER_FILE=/also/missing",
		"malformed",
	})
	if err != nil {
		t.Fatalf("Environ() error = %v", err)
	}
	if values["PEPEDOME_TOKEN"] != "direct" {
		t.Fatalf("PEPEDOME_TOKEN = %q, want direct", values["PEPEDOME_TOKEN"])
	}
	if _, ok := values["OTHER"]; ok {
		t.Fatal("unprefixed _FILE variable should be left alone")
	}
}

func TestEnvironReportsMissingSecretFile(t *testing.T) {
	t.Parallel()

	_, err := Environ([]string{"PEPEDOME_TOKEN_FILE=" + filepath.Join(t.TempDir(), "missing")})
	if err == nil || !strings.Contains(err.Error(), "PEPEDOME_TOKEN_FILE") {
		t.Fatalf("Environ() error = %v, want missing file error", err)
	}
}

package web

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.ContentPath != "content/program.yaml" {
		t.Fatalf("ContentPath = %q", cfg.ContentPath)
	}
	if cfg.FormsPerMinute != 10 || cfg.FormBurst != 5 {
		t.Fatalf("limits = %v/%d, want 10/5", cfg.FormsPerMinute, cfg.FormBurst)
	}
	if cfg.AdminUsername != "" {
		t.Fatalf("AdminUsername = %q, want empty", cfg.AdminUsername)
	}
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("PEPEDOME_ADMIN_USERNAME", "operator")
	t.Setenv("PEPEDOME_ADMIN_SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("PEPEDOME_TRUST_FORWARDED_FOR", "true")
	fs := flag.NewFlagSet("web", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9002", "-admin-timezone", "Europe/Berlin"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	runtime := cfg.RuntimeConfig()
	if runtime.HTTPAddr != "127.0.0.1:9002" {
		t.Fatalf("HTTPAddr = %q, want %q", runtime.HTTPAddr, "127.0.0.1:9002")
	}
	if runtime.Admin.Username != "operator" || runtime.Admin.Timezone != "Europe/Berlin" {
		t.Fatalf("admin = %+v", runtime.Admin)
	}
	if !runtime.Limits.TrustForwardedFor {
		t.Fatal("expected forwarded-for trust from env")
	}
	if runtime.Email.From == "" {
		t.Fatal("expected default sender address")
	}
}

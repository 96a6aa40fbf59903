//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/pass
redis:
  url: redis://localhost:6379
gateway:
  noop: true
`)
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port default: %d", cfg.Server.Port)
	}
	if cfg.Pass.PriceAmount != 5000 || cfg.Pass.Currency != "XOF" || cfg.Pass.Duration != time.Hour {
		t.Errorf("pass defaults: %+v", cfg.Pass)
	}
	if len(cfg.Pass.Operators) != 4 {
		t.Errorf("operator defaults: %v", cfg.Pass.Operators)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not propagated")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing database", "redis:\n  url: redis://x\ngateway:\n  noop: true\n"},
		{"missing redis", "database:\n  url: postgres://x\ngateway:\n  noop: true\n"},
		{"real gateway without url", "database:\n  url: postgres://x\nredis:\n  url: redis://x\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.content), false); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestOperatorAllowed(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://x
redis:
  url: redis://x
gateway:
  noop: true
pass:
  operators: [" om ", "wave"]
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	for _, ok := range []string{"OM", "om", " Om ", "WAVE"} {
		if !cfg.Pass.OperatorAllowed(ok) {
			t.Errorf("expected %q allowed", ok)
		}
	}
	for _, bad := range []string{"MOMO", "", "VISA"} {
		if cfg.Pass.OperatorAllowed(bad) {
			t.Errorf("expected %q rejected", bad)
		}
	}
}

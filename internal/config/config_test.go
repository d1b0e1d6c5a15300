package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("LUCKYDRAW_OWNER", "0xowner")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q, want :8080", cfg.HTTP.ListenAddr)
	}
	if cfg.Randomness.CallbackGasLimit != 500000 {
		t.Errorf("callback gas limit = %d, want 500000", cfg.Randomness.CallbackGasLimit)
	}
	if cfg.Randomness.RequestConfirmations != 3 {
		t.Errorf("request confirmations = %d, want 3", cfg.Randomness.RequestConfirmations)
	}
	if cfg.Redis.Channel != "luckydraw.events" {
		t.Errorf("redis channel = %q", cfg.Redis.Channel)
	}
}

func TestLoadFromPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luckydraw.yaml")
	data := `
http:
  listen_addr: ":9090"
owner: "0xOwner"
log_level: debug
randomness:
  subscription_id: 7
  key_hash: "0xabc"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q, want :9090", cfg.HTTP.ListenAddr)
	}
	if cfg.Owner != "0xOwner" {
		t.Errorf("owner = %q", cfg.Owner)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Randomness.SubscriptionID != 7 || cfg.Randomness.KeyHash != "0xabc" {
		t.Errorf("randomness config = %+v", cfg.Randomness)
	}
}

func TestLoadFromPath_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luckydraw.yaml")
	if err := os.WriteFile(path, []byte(`owner: "0xfile"`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LUCKYDRAW_OWNER", "0xenv")
	t.Setenv("LUCKYDRAW_LISTEN_ADDR", ":7070")
	t.Setenv("VRF_SUBSCRIPTION_ID", "99")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Owner != "0xenv" {
		t.Errorf("owner = %q, env must win", cfg.Owner)
	}
	if cfg.HTTP.ListenAddr != ":7070" {
		t.Errorf("listen addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Randomness.SubscriptionID != 99 {
		t.Errorf("subscription id = %d", cfg.Randomness.SubscriptionID)
	}
}

func TestLoadFromPath_RequiresOwner(t *testing.T) {
	t.Setenv("LUCKYDRAW_OWNER", "")
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error when no owner is configured")
	}
}

func TestLoadFromPath_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luckydraw.yaml")
	if err := os.WriteFile(path, []byte("owner: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected parse error")
	}
}

package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFileMissingReturnsNil(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config for missing file, got %+v", cfg)
	}
}

func TestLoadConfigFileMalformedReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("port: [this is not valid"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestLoadConfigFileParsesPartialOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "port: 9000\nmqtt:\n  server: broker.local\n  port: 1883\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port == nil || *cfg.Port != 9000 {
		t.Fatalf("expected port=9000, got %+v", cfg.Port)
	}
	if cfg.MQTT == nil || cfg.MQTT.Server == nil || *cfg.MQTT.Server != "broker.local" {
		t.Fatalf("expected mqtt.server=broker.local, got %+v", cfg.MQTT)
	}
	if cfg.BuzzerEnabled != nil {
		t.Fatalf("expected buzzer_enabled to stay unset, got %v", *cfg.BuzzerEnabled)
	}
}

func TestWriteDefaultConfigFileThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	if err := WriteDefaultConfigFile(path); err != nil {
		t.Fatalf("WriteDefaultConfigFile: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("reloading written default: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected a parseable default config file")
	}
	if cfg.MuteDurationSeconds == nil || *cfg.MuteDurationSeconds != 600 {
		t.Fatalf("expected default mute_duration_seconds=600, got %+v", cfg.MuteDurationSeconds)
	}
}

func TestResolveConfigPathHonorsEnvVar(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/tmp/custom-config.yml")
	if got := ResolveConfigPath(); got != "/tmp/custom-config.yml" {
		t.Errorf("ResolveConfigPath() = %q, want override", got)
	}
}

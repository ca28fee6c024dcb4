package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_KEY", "value")
	if got := GetEnv("TEST_KEY", "default"); got != "value" {
		t.Errorf("GetEnv() = %q, want 'value'", got)
	}
	if got := GetEnv("TEST_MISSING", "default"); got != "default" {
		t.Errorf("GetEnv() = %q, want 'default'", got)
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "45s")
	if got := GetDurationEnv("TEST_DURATION", time.Second); got != 45*time.Second {
		t.Errorf("GetDurationEnv() = %v, want 45s", got)
	}

	t.Setenv("TEST_DURATION", "not-a-duration")
	if got := GetDurationEnv("TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("GetDurationEnv() with invalid value = %v, want default", got)
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "7")
	if got := GetIntEnv("TEST_INT", 1); got != 7 {
		t.Errorf("GetIntEnv() = %d, want 7", got)
	}
}

func TestGetSecretFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("  hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := GetSecretFile(path); got != "hunter2" {
		t.Errorf("GetSecretFile() = %q, want trimmed secret", got)
	}
	if got := GetSecretFile(""); got != "" {
		t.Errorf("GetSecretFile(\"\") = %q, want empty", got)
	}
}

func TestLoadWorkerConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.yaml")
	content := `
address: http://topchef:8080
service_id: svc-1
checkin_interval: 10s
idle_interval: 250ms
listeners:
  - http://listener:9000/events
command: ["python", "process.py"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWorkerConfigFile(path)
	if err != nil {
		t.Fatalf("LoadWorkerConfigFile failed: %v", err)
	}
	if cfg.Address != "http://topchef:8080" {
		t.Errorf("unexpected address %q", cfg.Address)
	}
	if cfg.CheckinInterval != 10*time.Second {
		t.Errorf("unexpected checkin interval %v", cfg.CheckinInterval)
	}
	if cfg.IdleInterval != 250*time.Millisecond {
		t.Errorf("unexpected idle interval %v", cfg.IdleInterval)
	}
	if len(cfg.Listeners) != 1 || cfg.Listeners[0] != "http://listener:9000/events" {
		t.Errorf("unexpected listeners %v", cfg.Listeners)
	}
	if len(cfg.Command) != 2 || cfg.Command[0] != "python" {
		t.Errorf("unexpected command %v", cfg.Command)
	}
}

func TestLoadServiceManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	content := `
name: nmr
description: spectrometer control
job_registration_schema:
  type: object
  properties:
    value:
      type: integer
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	manifest, err := LoadServiceManifest(path)
	if err != nil {
		t.Fatalf("LoadServiceManifest failed: %v", err)
	}
	if manifest.Name != "nmr" {
		t.Errorf("unexpected name %q", manifest.Name)
	}
	if manifest.JobRegistrationSchema["type"] != "object" {
		t.Errorf("unexpected schema %v", manifest.JobRegistrationSchema)
	}
}

func TestLoadServiceManifestMissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	if err := os.WriteFile(path, []byte("description: nameless\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadServiceManifest(path); err == nil {
		t.Error("expected an error for a manifest without a name")
	}
}

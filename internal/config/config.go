// Package config provides configuration loading from environment variables
// and YAML files for the worker binary.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WorkerConfig holds configuration for a worker bound to one service.
type WorkerConfig struct {
	Address         string        `yaml:"address"`          // server root, e.g. http://topchef:8080
	ServiceID       string        `yaml:"service_id"`       // bound service; empty until registered
	CheckinInterval time.Duration `yaml:"checkin_interval"` // wait between checkins
	IdleInterval    time.Duration `yaml:"idle_interval"`    // wait when the queue is empty; 0 = busy-poll
	HTTPTimeout     time.Duration `yaml:"http_timeout"`     // per-request timeout
	AdminPort       string        `yaml:"admin_port"`       // /healthz and /metrics; empty disables
	Listeners       []string      `yaml:"listeners"`        // lifecycle event callback URLs
	SigningKeyFile  string        `yaml:"signing_key_file"` // HMAC key for event signing
	Command         []string      `yaml:"command"`          // task subprocess and its arguments
}

// LoadWorkerConfig loads worker configuration from environment variables.
func LoadWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		Address:         GetEnv("TOPCHEF_ADDRESS", "http://localhost:5000"),
		ServiceID:       GetEnv("TOPCHEF_SERVICE_ID", ""),
		CheckinInterval: GetDurationEnv("TOPCHEF_CHECKIN_INTERVAL", 30*time.Second),
		IdleInterval:    GetDurationEnv("TOPCHEF_IDLE_INTERVAL", 0),
		HTTPTimeout:     GetDurationEnv("TOPCHEF_HTTP_TIMEOUT", 30*time.Second),
		AdminPort:       GetEnv("TOPCHEF_ADMIN_PORT", ""),
		SigningKeyFile:  GetEnv("TOPCHEF_SIGNING_KEY_FILE", ""),
	}
}

// LoadWorkerConfigFile loads worker configuration from a YAML file, layered
// over the environment defaults.
func LoadWorkerConfigFile(path string) (*WorkerConfig, error) {
	cfg := LoadWorkerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ServiceManifest describes a service registration on disk.
type ServiceManifest struct {
	Name                  string         `yaml:"name"`
	Description           string         `yaml:"description"`
	JobRegistrationSchema map[string]any `yaml:"job_registration_schema"`
	JobResultSchema       map[string]any `yaml:"job_result_schema"`
}

// LoadServiceManifest loads a service manifest from a YAML file.
func LoadServiceManifest(path string) (*ServiceManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest ServiceManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("manifest is missing a service name")
	}
	if manifest.JobRegistrationSchema == nil {
		return nil, fmt.Errorf("manifest is missing a job registration schema")
	}
	return &manifest, nil
}

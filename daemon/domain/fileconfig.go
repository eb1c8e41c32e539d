package domain

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config file path resolution constants. Kept local to this file (rather
// than in the constants package) to avoid an import cycle, since
// constants.topics.go references domain.Topic[T].
const (
	configEnvVar = "CONFIG_PATH"
	configAppDir = "hmi-core"
	configFile   = "config.yml"
)

// FileConfig represents the YAML configuration file structure. Values set
// in the config file serve as defaults that can be overridden by
// environment variables. Pointer fields distinguish "absent" from "zero
// value" so a partial file only overrides the keys it actually sets.
type FileConfig struct {
	Port *int `yaml:"port,omitempty"`

	MQTT *FileConfigMQTT `yaml:"mqtt,omitempty"`

	MuteDurationSeconds *int  `yaml:"mute_duration_seconds,omitempty"`
	BuzzerEnabled       *bool `yaml:"buzzer_enabled,omitempty"`

	SupabaseURL     *string `yaml:"supabase_url,omitempty"`
	SupabaseAnonKey *string `yaml:"supabase_anon_key,omitempty"`
}

// FileConfigMQTT holds MQTT-specific settings from the config file.
type FileConfigMQTT struct {
	Server          *string `yaml:"server,omitempty"`
	Port            *int    `yaml:"port,omitempty"`
	UseSecureClient *bool   `yaml:"use_secure_client,omitempty"`
	ClientID        *string `yaml:"client_id,omitempty"`
	Username        *string `yaml:"username,omitempty"`
	Password        *string `yaml:"password,omitempty"`
}

// ResolveConfigPath applies spec.md §6's resolution order: the CONFIG_PATH
// environment variable, else the platform-appropriate application config
// directory.
func ResolveConfigPath() string {
	if p := os.Getenv(configEnvVar); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, configAppDir, configFile)
}

// LoadConfigFile reads and parses a YAML config file. Returns (nil, nil)
// without error if the file does not exist, so the caller can tell "missing"
// apart from "malformed" and apply the "write defaults, continue" policy.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a trusted, operator-controlled config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}

// WriteDefaultConfigFile writes a commented default template to path,
// creating parent directories as needed. Called when the config file is
// missing so the operator has something to edit in place.
func WriteDefaultConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigTemplate), 0o644) //nolint:gosec // operator-readable config
}

const defaultConfigTemplate = `# hmi-core configuration
# port: 8043

mqtt:
  server: ""
  port: 8883
  use_secure_client: true
  client_id: hmi-cli
  username: ""
  password: ""

mute_duration_seconds: 600
buzzer_enabled: true

# supabase_url: ""
# supabase_anon_key: ""
`

package web

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes Go duration strings like "24h" from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("web: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config holds the web server settings.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr"`
	// DataDir holds the session database.
	DataDir string `yaml:"data_dir"`
	// MaxUploadBytes caps the size of an uploaded document.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// SessionTTL is how long an idle session survives before sweeping.
	SessionTTL Duration `yaml:"session_ttl"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		DataDir:        "data",
		MaxUploadBytes: 50 << 20,
		SessionTTL:     Duration(24 * time.Hour),
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("web: reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("web: parsing config %s: %w", path, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultConfig().DataDir
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}
	return cfg, nil
}

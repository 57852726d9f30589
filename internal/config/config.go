package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Export   ExportConfig   `mapstructure:"export"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SecurityConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Policy      string `mapstructure:"policy"`
	Mode        string `mapstructure:"mode"`
	Certificate string `mapstructure:"certificate"`
	PrivateKey  string `mapstructure:"private_key"`
}

type ExportConfig struct {
	Namespaces  []int  `mapstructure:"namespaces"`
	Values      bool   `mapstructure:"values"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TracingConfig struct {
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			Policy:      "Basic256Sha256",
			Mode:        "SignAndEncrypt",
			Certificate: "cert.der",
			PrivateKey:  "key.pem",
		},
		Tracing: TracingConfig{SampleRate: 1.0},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Security.Enabled {
		if c.Security.Certificate == "" {
			warnings = append(warnings, "security is enabled but no certificate is configured")
		}
		if c.Security.PrivateKey == "" {
			warnings = append(warnings, "security is enabled but no private key is configured")
		}
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("tracing sample rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	for _, ns := range c.Export.Namespaces {
		if ns < 0 || ns > 65535 {
			warnings = append(warnings, fmt.Sprintf("namespace ordinal %d is outside the valid uint16 range", ns))
		}
	}

	if c.Server.Timeout < 0 {
		warnings = append(warnings, fmt.Sprintf("server timeout %s is negative", c.Server.Timeout))
	}

	return warnings
}

// Load reads configuration from file and environment. An empty path skips
// the file and uses defaults plus UAEXPORT_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("UAEXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshalling config: %w", err)
		}
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config is relay's on-disk configuration: everything runtime.Options,
// admin.Config and telemetry.TracingConfig need at process start,
// loaded from a single YAML or JSON file via Load.
type Config struct {
	// Flavor is the default process execution substrate: "os" or
	// "thread" (spec §4.6).
	Flavor string `yaml:"flavor" json:"flavor"`

	Admin   AdminConfig   `yaml:"admin" json:"admin"`
	Audit   AuditConfig   `yaml:"audit" json:"audit"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// AdminConfig configures the admin HTTP surface (pkg/admin). Addr empty
// disables it.
type AdminConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// AuditConfig selects and configures an audit recorder (pkg/audit).
// Driver empty disables recording (audit.NoopRecorder).
type AuditConfig struct {
	Driver  string `yaml:"driver" json:"driver"`
	DSN     string `yaml:"dsn" json:"dsn"`
	Workers int    `yaml:"workers" json:"workers"`
}

// TracingConfig configures OpenTelemetry export (pkg/telemetry).
type TracingConfig struct {
	Exporter   string  `yaml:"exporter" json:"exporter"`
	Endpoint   string  `yaml:"endpoint" json:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
}

// Default returns relay's out-of-the-box configuration: thread-flavored
// processes, no admin surface, no audit recording, stdout tracing at
// full sample rate.
func Default() Config {
	return Config{
		Flavor:  "thread",
		Tracing: TracingConfig{Exporter: "stdout", SampleRate: 1.0},
	}
}

// Load reads path, decodes it over Default() as either YAML or JSON
// depending on its extension, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := LoadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	case ".json":
		if err := LoadJSON(path, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("config: unsupported extension %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects field values Load can't just default its way around.
func (c Config) Validate() error {
	switch c.Flavor {
	case "os", "thread":
	default:
		return fmt.Errorf(`config: flavor must be "os" or "thread", got %q`, c.Flavor)
	}
	switch c.Audit.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf(`config: audit.driver must be "sqlite", "postgres", or empty, got %q`, c.Audit.Driver)
	}
	if c.Audit.Driver != "" && c.Audit.DSN == "" {
		return fmt.Errorf("config: audit.dsn is required when audit.driver is set")
	}
	switch c.Tracing.Exporter {
	case "", "jaeger", "zipkin", "stdout", "none":
	default:
		return fmt.Errorf(`config: tracing.exporter must be "jaeger", "zipkin", "stdout", "none", or empty, got %q`, c.Tracing.Exporter)
	}
	return nil
}

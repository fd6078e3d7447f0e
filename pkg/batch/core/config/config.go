// Package config provides the configuration structures of the demo runner and the
// loader that layers defaults, embedded YAML, a .env file and environment overrides.
package config

// EmbeddedConfig holds the content of the configuration file embedded in the binary.
type EmbeddedConfig []byte

const (
	RepositoryInMemory = "inmemory"
	RepositorySQLite   = "sqlite"

	MetricsBackendNone       = "none"
	MetricsBackendPrometheus = "prometheus"
	MetricsBackendOTel       = "otel"
)

// BatchConfig holds settings of the demo job itself. The job name is fixed and not configurable.
type BatchConfig struct {
	// InputPath names the optional line-oriented input, resolved against the working directory.
	InputPath string `yaml:"input_path"`
	// ChunkSize is the number of items written per chunk.
	ChunkSize int `yaml:"chunk_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "SILENT").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// InfrastructureConfig selects infrastructure implementations.
type InfrastructureConfig struct {
	// JobRepository is "inmemory" or "sqlite" (an in-memory SQLite database).
	JobRepository string `yaml:"job_repository"`
}

// MetricsConfig selects the metric backend and whether spans are recorded.
type MetricsConfig struct {
	Backend        string `yaml:"backend"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
}

// RunnerConfig holds all configuration under the "runner" top-level key.
type RunnerConfig struct {
	Batch          BatchConfig          `yaml:"batch"`
	System         SystemConfig         `yaml:"system"`
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Runner RunnerConfig `yaml:"runner"`
}

// NewConfig returns a Config populated with defaults. The defaults alone
// reproduce the standard behavior: the input is "input.txt" in the working directory.
func NewConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			Batch: BatchConfig{
				InputPath: "input.txt",
				ChunkSize: 10,
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Infrastructure: InfrastructureConfig{
				JobRepository: RepositoryInMemory,
			},
			Metrics: MetricsConfig{
				Backend: MetricsBackendNone,
			},
		},
	}
}

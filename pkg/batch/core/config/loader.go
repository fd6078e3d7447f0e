package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

const moduleName = "config"

// LoadConfig builds the configuration in four layers:
//
//  1. defaults from NewConfig
//  2. the embedded YAML, after ${VAR} expansion
//  3. variables from the .env file at envFilePath, skipped when envFilePath is empty
//     (a missing file is not an error)
//  4. environment overrides named after the yaml tag path, e.g. RUNNER_BATCH_INPUT_PATH
//
// The result is validated before it is returned.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig, NewOsEnvironmentExpander())
}

func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	}

	cfg := NewConfig()

	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to expand environment placeholders", err, false, false)
	}

	var yamlConfig Config
	if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err, false, false)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false, false)
	}

	if err := Validate(cfg); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid configuration", err, false, false)
	}
	return cfg, nil
}

// Validate reports every problem in cfg at once.
func Validate(cfg *Config) error {
	var result *multierror.Error

	batch := cfg.Runner.Batch
	if strings.TrimSpace(batch.InputPath) == "" {
		result = multierror.Append(result, fmt.Errorf("runner.batch.input_path must not be empty"))
	}
	if batch.ChunkSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("runner.batch.chunk_size must be positive, got %d", batch.ChunkSize))
	}
	if _, ok := logger.ParseLevel(cfg.Runner.System.Logging.Level); !ok {
		result = multierror.Append(result, fmt.Errorf("runner.system.logging.level '%s' is not a known level", cfg.Runner.System.Logging.Level))
	}
	switch cfg.Runner.Infrastructure.JobRepository {
	case RepositoryInMemory, RepositorySQLite:
	default:
		result = multierror.Append(result, fmt.Errorf("runner.infrastructure.job_repository '%s' is not supported", cfg.Runner.Infrastructure.JobRepository))
	}
	switch cfg.Runner.Metrics.Backend {
	case MetricsBackendNone, MetricsBackendPrometheus, MetricsBackendOTel:
	default:
		result = multierror.Append(result, fmt.Errorf("runner.metrics.backend '%s' is not supported", cfg.Runner.Metrics.Backend))
	}

	return result.ErrorOrNil()
}

// mergeConfig copies every non-zero value of source into dest.
func mergeConfig(dest, source *Config) {
	d, s := &dest.Runner, &source.Runner

	if s.Batch.InputPath != "" {
		d.Batch.InputPath = s.Batch.InputPath
	}
	if s.Batch.ChunkSize != 0 {
		d.Batch.ChunkSize = s.Batch.ChunkSize
	}
	if s.System.Timezone != "" {
		d.System.Timezone = s.System.Timezone
	}
	if s.System.Logging.Level != "" {
		d.System.Logging.Level = s.System.Logging.Level
	}
	if s.Infrastructure.JobRepository != "" {
		d.Infrastructure.JobRepository = s.Infrastructure.JobRepository
	}
	if s.Metrics.Backend != "" {
		d.Metrics.Backend = s.Metrics.Backend
	}
	if s.Metrics.TracingEnabled {
		d.Metrics.TracingEnabled = true
	}
}

// loadStructFromEnv walks val and sets each field whose environment variable exists.
// Variable names join the upper-cased yaml tags with "_".
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField converts value to the field's kind (string, int, float, bool).
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}

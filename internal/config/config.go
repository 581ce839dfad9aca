// Package config loads the zenblog configuration file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

const CurrentVersion = "1"

// Config represents the complete configuration structure
type Config struct {
	Version string        `yaml:"version" default:"1"`
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Editor  EditorConfig  `yaml:"editor"`
	Logging LoggingConfig `yaml:"logging"`
}

type StorageConfig struct {
	// Driver is one of sqlite, file or memory.
	Driver      string `yaml:"driver" default:"sqlite"`
	Path        string `yaml:"path" default:"~/.zenblog"`
	Compression string `yaml:"compression" default:"zstd"`
}

type RemoteConfig struct {
	// Provider is github or s3.
	Provider        string        `yaml:"provider" default:"github"`
	GitHubAPI       string        `yaml:"github_api" default:"https://api.github.com"`
	Timeout         time.Duration `yaml:"timeout" default:"15s"`
	S3Endpoint      string        `yaml:"s3_endpoint" default:""`
	S3Region        string        `yaml:"s3_region" default:"auto"`
	PushConcurrency int           `yaml:"push_concurrency" default:"4"`
}

type EditorConfig struct {
	AutosaveInterval time.Duration `yaml:"autosave_interval" default:"5s"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
	// File enables an additional rotating JSON log file.
	File       string `yaml:"file" default:""`
	MaxSizeMB  int    `yaml:"max_size_mb" default:"10"`
	MaxBackups int    `yaml:"max_backups" default:"3"`
}

// Environment variables that override file values.
const (
	EnvStorageDriver  = "ZENBLOG_STORAGE_DRIVER"
	EnvStoragePath    = "ZENBLOG_STORAGE_PATH"
	EnvRemoteProvider = "ZENBLOG_REMOTE_PROVIDER"
	EnvGitHubAPI      = "ZENBLOG_GITHUB_API"
	EnvS3Endpoint     = "ZENBLOG_S3_ENDPOINT"
	EnvS3Region       = "ZENBLOG_S3_REGION"
	EnvLogLevel       = "ZENBLOG_LOG_LEVEL"
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the yaml file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Storage.Path, err = ExpandPath(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Logging.File != "" {
		if cfg.Logging.File, err = ExpandPath(cfg.Logging.File); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadEnv loads .env style files into the process environment. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported configuration version %q", c.Version)
	}

	switch c.Storage.Driver {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Remote.Provider {
	case "github", "s3":
	default:
		return fmt.Errorf("unknown remote provider %q", c.Remote.Provider)
	}

	if c.Editor.AutosaveInterval <= 0 {
		return fmt.Errorf("editor.autosave_interval must be positive, got %s", c.Editor.AutosaveInterval)
	}
	if c.Remote.PushConcurrency <= 0 {
		return fmt.Errorf("remote.push_concurrency must be positive, got %d", c.Remote.PushConcurrency)
	}

	return nil
}

func applyEnv(c *Config) {
	overrides := map[string]*string{
		EnvStorageDriver:  &c.Storage.Driver,
		EnvStoragePath:    &c.Storage.Path,
		EnvRemoteProvider: &c.Remote.Provider,
		EnvGitHubAPI:      &c.Remote.GitHubAPI,
		EnvS3Endpoint:     &c.Remote.S3Endpoint,
		EnvS3Region:       &c.Remote.S3Region,
		EnvLogLevel:       &c.Logging.Level,
	}
	for env, field := range overrides {
		if v, ok := os.LookupEnv(env); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if d, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(d))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}

// Package config provides configuration loading and validation for the symtab CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/safeconv"
	"github.com/Sumatoshi-tech/symtab/pkg/textutil"
)

// Sentinel validation errors.
var (
	ErrInvalidCapacity    = errors.New("intern capacity must not be negative")
	ErrInvalidChunkSize   = errors.New("invalid intern chunk size")
	ErrInvalidTop         = errors.New("report top must not be negative")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidLogFormat   = errors.New("unknown log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be between 0 and 1")
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default configuration values.
const (
	DefaultBackend     = string(backend.KindBucket)
	DefaultCapacity    = 0
	DefaultChunkSize   = "64KiB"
	DefaultTokens      = string(textutil.ModeWords)
	DefaultFormat      = "table"
	DefaultTop         = 10
	DefaultColor       = true
	DefaultLogLevel    = "info"
	DefaultLogFormat   = LogFormatText
	DefaultSampleRatio = 0.0
)

// Config holds all configuration for the symtab CLI.
type Config struct {
	Intern    InternConfig    `mapstructure:"intern"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// InternConfig holds interner construction and tokenization settings.
type InternConfig struct {
	Backend   string `mapstructure:"backend"`
	ChunkSize string `mapstructure:"chunk_size"`
	Tokens    string `mapstructure:"tokens"`
	Capacity  int    `mapstructure:"capacity"`
}

// ReportConfig holds report rendering settings.
type ReportConfig struct {
	Format string `mapstructure:"format"`
	Top    int    `mapstructure:"top"`
	Color  bool   `mapstructure:"color"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OTLP export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
}

// ChunkSizeBytes parses the humanized chunk size (e.g. "64KiB", "1MB") into
// bytes.
func (c InternConfig) ChunkSizeBytes() (int, error) {
	parsed, err := humanize.ParseBytes(c.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChunkSize, c.ChunkSize)
	}

	if parsed == 0 || parsed > uint64(safeconv.MaxInt) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChunkSize, c.ChunkSize)
	}

	return int(parsed), nil
}

// SlogLevel returns the configured log level. Falls back to info for values
// that fail to parse; validation rejects those at load time.
func (c LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Level))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	// Set defaults.
	setDefaults(viperCfg)

	// Read config file.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("symtab")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/symtab")
	}

	// Read environment variables.
	viperCfg.SetEnvPrefix("SYMTAB")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file.
	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Intern defaults.
	viperCfg.SetDefault("intern.backend", DefaultBackend)
	viperCfg.SetDefault("intern.capacity", DefaultCapacity)
	viperCfg.SetDefault("intern.chunk_size", DefaultChunkSize)
	viperCfg.SetDefault("intern.tokens", DefaultTokens)

	// Report defaults.
	viperCfg.SetDefault("report.format", DefaultFormat)
	viperCfg.SetDefault("report.top", DefaultTop)
	viperCfg.SetDefault("report.color", DefaultColor)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.debug_trace", false)
}

// validateConfig validates the configuration. Backend and token mode names
// are checked against the canonical parsers so the accepted sets never drift.
func validateConfig(config *Config) error {
	_, kindErr := backend.ParseKind(config.Intern.Backend)
	if kindErr != nil {
		return kindErr
	}

	_, modeErr := textutil.ParseMode(config.Intern.Tokens)
	if modeErr != nil {
		return modeErr
	}

	if config.Intern.Capacity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, config.Intern.Capacity)
	}

	_, chunkErr := config.Intern.ChunkSizeBytes()
	if chunkErr != nil {
		return chunkErr
	}

	if config.Report.Top < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTop, config.Report.Top)
	}

	var level slog.Level

	levelErr := level.UnmarshalText([]byte(config.Logging.Level))
	if levelErr != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if config.Logging.Format != LogFormatText && config.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}

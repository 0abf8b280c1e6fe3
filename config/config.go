// Package config holds the bridge settings, read by viper from an optional config file and
// TOKBRIDGE_* environment variables.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/vtbh/tokenbridge/encoder"
	"github.com/vtbh/tokenbridge/hub"
)

// EnvPrefix prefixes environment variables, e.g. TOKBRIDGE_DEFAULT_MAX_LENGTH.
const EnvPrefix = "TOKBRIDGE"

// Settings of the bridge.
type Settings struct {
	// DefaultMaxLength is used when the host loads a tokenizer without a max length.
	DefaultMaxLength int `mapstructure:"default_max_length"`

	// BatchParallelism is passed to encoder.WithParallelism.
	BatchParallelism int `mapstructure:"batch_parallelism"`

	// MaxConcurrentCalls bounds simultaneous tokenization calls across handles, 0 for no limit.
	MaxConcurrentCalls int `mapstructure:"max_concurrent_calls"`

	// PadTokenID, if set, overrides the pad token id of every loaded tokenizer.
	PadTokenID *int64 `mapstructure:"pad_token_id"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// HubCacheDir is the HuggingFace cache used to resolve "hf://owner/name" paths.
	HubCacheDir string `mapstructure:"hub_cache_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_max_length", encoder.DefaultMaxLength)
	v.SetDefault("batch_parallelism", 1)
	v.SetDefault("max_concurrent_calls", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("hub_cache_dir", hub.DefaultCacheDir())
}

// Default returns the settings from defaults and environment variables only.
func Default() (*Settings, error) {
	return Load("")
}

// Load reads settings from configPath (yaml, json or toml, by extension) if not empty, then
// applies TOKBRIDGE_* environment variables on top of the defaults.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default, so it stays nil unless the file or the environment sets it.
	if err := v.BindEnv("pad_token_id"); err != nil {
		return nil, errors.Wrap(err, "failed to bind pad_token_id")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %q", configPath)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Wrap(err, "unable to decode settings")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	if s.DefaultMaxLength <= 0 {
		return errors.Errorf("default_max_length must be > 0, got %d", s.DefaultMaxLength)
	}
	if s.BatchParallelism < 0 {
		return errors.Errorf("batch_parallelism must be >= 0, got %d", s.BatchParallelism)
	}
	if s.PadTokenID != nil && *s.PadTokenID < 0 {
		return errors.Errorf("pad_token_id must be >= 0, got %d", *s.PadTokenID)
	}
	if s.MaxConcurrentCalls < 0 {
		return errors.Errorf("max_concurrent_calls must be >= 0, got %d", s.MaxConcurrentCalls)
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log_level %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return errors.Errorf("log_format must be \"console\" or \"json\", got %q", s.LogFormat)
	}
	return nil
}

// Logger returns a logger writing to stderr with the configured level and format.
func (s *Settings) Logger() zerolog.Logger {
	return s.LoggerTo(os.Stderr)
}

// LoggerTo is like Logger, writing to w.
func (s *Settings) LoggerTo(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if s.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// EncoderOptions returns the encoder options implied by the settings.
func (s *Settings) EncoderOptions(logger zerolog.Logger) []encoder.Option {
	opts := []encoder.Option{
		encoder.WithParallelism(s.BatchParallelism),
		encoder.WithLogger(logger),
	}
	if s.PadTokenID != nil {
		opts = append(opts, encoder.WithPadTokenID(*s.PadTokenID))
	}
	return opts
}

package mobile

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/vtbh/tokenbridge/config"
	"github.com/vtbh/tokenbridge/encoder"
	"github.com/vtbh/tokenbridge/hub"
)

var (
	defaultMu     sync.Mutex
	defaultBridge *Bridge
)

// bridge returns the shared Bridge, created on first use from defaults and TOKBRIDGE_*
// environment variables. Invalid environment settings fall back to built-in defaults.
func bridge() *Bridge {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBridge == nil {
		defaultBridge = newDefaultBridge()
	}
	return defaultBridge
}

func newDefaultBridge() *Bridge {
	settings, err := config.Default()
	if err != nil {
		settings = builtinSettings()
		logger := settings.Logger()
		logger.Warn().Err(err).Msg("invalid environment settings, using defaults")
	}
	return NewBridge(settings, zerolog.Nop())
}

func builtinSettings() *config.Settings {
	return &config.Settings{
		DefaultMaxLength: encoder.DefaultMaxLength,
		BatchParallelism: 1,
		LogLevel:         "info",
		LogFormat:        "console",
		HubCacheDir:      hub.DefaultCacheDir(),
	}
}

// Configure reads the settings from configPath (and TOKBRIDGE_* environment variables), and
// enables logging to stderr. Tokenizers loaded afterwards use the new settings.
func Configure(configPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := settings.Logger()
	bridge().Reconfigure(settings, logger)
	logger.Info().Str("config", configPath).Msg("bridge configured")
	return nil
}

// LoadTokenizer loads the tokenizer at path and returns its handle. See Bridge.LoadTokenizer.
func LoadTokenizer(path string, maxLength int) (string, error) {
	return bridge().LoadTokenizer(path, maxLength)
}

// LoadTokenizerDefault loads the tokenizer at path with the configured default max length.
func LoadTokenizerDefault(path string) (string, error) {
	return bridge().LoadTokenizerDefault(path)
}

// SetMaxLength changes the max length of the tokenizer behind handle.
func SetMaxLength(handle string, maxLength int) error {
	return bridge().SetMaxLength(handle, maxLength)
}

// MaxLength returns the current max length of the tokenizer behind handle.
func MaxLength(handle string) (int, error) {
	return bridge().MaxLength(handle)
}

// Tokenize returns the JSON encoded TokenData of text.
func Tokenize(handle, text string) ([]byte, error) {
	return bridge().Tokenize(handle, text)
}

// TokenizeBatch takes a JSON array of strings and returns a JSON array of TokenData.
func TokenizeBatch(handle string, textsJSON []byte) ([]byte, error) {
	return bridge().TokenizeBatch(handle, textsJSON)
}

// Release frees the tokenizer behind handle.
func Release(handle string) error {
	return bridge().Release(handle)
}

// SetMaxConcurrentCalls bounds simultaneous tokenization calls, n <= 0 for no limit.
func SetMaxConcurrentCalls(n int) {
	bridge().SetMaxConcurrentCalls(n)
}

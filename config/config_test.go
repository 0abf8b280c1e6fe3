package config

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vtbh/tokenbridge/encoder"
	"github.com/vtbh/tokenbridge/internal/testutil"
)

func TestDefault(t *testing.T) {
	settings, err := Default()
	require.NoError(t, err)
	assert.Equal(t, encoder.DefaultMaxLength, settings.DefaultMaxLength)
	assert.Equal(t, 1, settings.BatchParallelism)
	assert.Equal(t, 0, settings.MaxConcurrentCalls)
	assert.Nil(t, settings.PadTokenID)
	assert.Len(t, settings.EncoderOptions(settings.Logger()), 2, "no pad override by default")
	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, "console", settings.LogFormat)
	assert.NotEmpty(t, settings.HubCacheDir)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "tokbridge.yaml", `
default_max_length: 128
batch_parallelism: 4
pad_token_id: 1
log_level: debug
`)
	t.Setenv("TOKBRIDGE_MAX_CONCURRENT_CALLS", "2")
	t.Setenv("TOKBRIDGE_LOG_FORMAT", "json")

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, settings.DefaultMaxLength)
	assert.Equal(t, 4, settings.BatchParallelism)
	assert.Equal(t, 2, settings.MaxConcurrentCalls)
	require.NotNil(t, settings.PadTokenID)
	assert.Equal(t, int64(1), *settings.PadTokenID)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, "json", settings.LogFormat)
	assert.Len(t, settings.EncoderOptions(settings.Logger()), 3)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	for _, content := range []string{
		"default_max_length: 0\n",
		"batch_parallelism: -1\n",
		"max_concurrent_calls: -3\n",
		"pad_token_id: -1\n",
		"log_level: loud\n",
		"log_format: xml\n",
	} {
		path := testutil.WriteFile(t, t.TempDir(), "tokbridge.yaml", content)
		_, err := Load(path)
		assert.Error(t, err, "content %q", content)
	}
}

func TestLoggerTo(t *testing.T) {
	settings := &Settings{LogLevel: "warn", LogFormat: "json"}
	var buf bytes.Buffer
	logger := settings.LoggerTo(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("file", "tokenizer.json").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"file":"tokenizer.json"`)
	assert.Len(t, settings.EncoderOptions(logger), 2, "no pad override")
}

func TestPadTokenIDFromEnv(t *testing.T) {
	t.Setenv("TOKBRIDGE_PAD_TOKEN_ID", "0")
	settings, err := Default()
	require.NoError(t, err)
	require.NotNil(t, settings.PadTokenID)
	assert.Equal(t, int64(0), *settings.PadTokenID)
	assert.Len(t, settings.EncoderOptions(settings.Logger()), 3)
}

func TestZeroSettingsDoNotOverridePad(t *testing.T) {
	e, err := encoder.Load(testutil.WordPieceDir(t), 3, (&Settings{}).EncoderOptions(zerolog.Nop())...)
	require.NoError(t, err)
	assert.Equal(t, int64(0), e.PadTokenID(), "[PAD] of tokenizer.json")

	padID := int64(4)
	settings := &Settings{PadTokenID: &padID}
	e, err = encoder.Load(testutil.WordPieceDir(t), 3, settings.EncoderOptions(zerolog.Nop())...)
	require.NoError(t, err)
	data, err := e.Encode("hello")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 4}, data.InputIDs)
}

package mobile

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vtbh/tokenbridge/encoder"
	"github.com/vtbh/tokenbridge/internal/testutil"
)

func TestPackageFunctions(t *testing.T) {
	configPath := testutil.WriteFile(t, t.TempDir(), "bridge.yaml", "default_max_length: 3\nlog_level: error\n")
	require.NoError(t, Configure(configPath))

	handle, err := LoadTokenizerDefault(testutil.WordPieceDir(t))
	require.NoError(t, err)
	defer func() { _ = Release(handle) }()

	payload, err := Tokenize(handle, "hello")
	require.NoError(t, err)
	assert.JSONEq(t, `{"input_ids": [2, 0, 0], "attention_mask": [1, 0, 0], "length": 1}`, string(payload))

	require.NoError(t, SetMaxLength(handle, 1))
	maxLength, err := MaxLength(handle)
	require.NoError(t, err)
	assert.Equal(t, 1, maxLength)

	payload, err = TokenizeBatch(handle, []byte(`["world", "token"]`))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"input_ids": [3], "attention_mask": [1], "length": 1},
		{"input_ids": [5], "attention_mask": [1], "length": 1}]`, string(payload))

	SetMaxConcurrentCalls(4)

	other, err := LoadTokenizer(testutil.WordPieceDir(t), 2)
	require.NoError(t, err)
	require.NoError(t, Release(other))
	assert.True(t, errors.Is(Release(other), ErrUnknownHandle))

	assert.Error(t, Configure("/nonexistent/bridge.yaml"))
}

func TestDefaultBridgeWithInvalidEnvironment(t *testing.T) {
	t.Setenv("TOKBRIDGE_LOG_LEVEL", "loud")
	t.Setenv("TOKBRIDGE_DEFAULT_MAX_LENGTH", "-2")
	b := newDefaultBridge()
	require.NoError(t, b.settings.Validate())
	assert.Equal(t, encoder.DefaultMaxLength, b.settings.DefaultMaxLength)
	assert.Nil(t, b.settings.PadTokenID)

	handle, err := b.LoadTokenizer(testutil.WordPieceDir(t), 2)
	require.NoError(t, err)
	payload, err := b.Tokenize(handle, "hello world")
	require.NoError(t, err)
	assert.JSONEq(t, `{"input_ids": [2, 3], "attention_mask": [1, 1], "length": 2}`, string(payload))
}

package mobile

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vtbh/tokenbridge/config"
	"github.com/vtbh/tokenbridge/encoder"
	"github.com/vtbh/tokenbridge/internal/testutil"
)

func newTestBridge(t *testing.T, cacheDir string) *Bridge {
	t.Helper()
	settings := builtinSettings()
	settings.DefaultMaxLength = 5
	settings.HubCacheDir = cacheDir
	return NewBridge(settings, zerolog.Nop())
}

func decode[T any](t *testing.T, payload []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(payload, &v))
	return v
}

func TestTokenize(t *testing.T) {
	b := newTestBridge(t, t.TempDir())
	handle, err := b.LoadTokenizer(testutil.WordPieceDir(t), 4)
	require.NoError(t, err)
	require.NotEmpty(t, handle)
	assert.Equal(t, 1, b.Len())

	payload, err := b.Tokenize(handle, "hello world")
	require.NoError(t, err)
	assert.JSONEq(t, `{"input_ids": [2, 3, 0, 0], "attention_mask": [1, 1, 0, 0], "length": 2}`, string(payload))

	require.NoError(t, b.SetMaxLength(handle, 2))
	maxLength, err := b.MaxLength(handle)
	require.NoError(t, err)
	assert.Equal(t, 2, maxLength)

	data := decode[encoder.TokenData](t, must(b.Tokenize(handle, "hello worlds")))
	assert.Equal(t, []int64{2, 3}, data.InputIDs)
	assert.Equal(t, 2, data.Length)
	data = decode[encoder.TokenData](t, must(b.Tokenize(handle, "hello world")))
	assert.Equal(t, []int64{2, 3}, data.InputIDs)
	assert.Equal(t, []int64{1, 1}, data.AttentionMask)

	err = b.SetMaxLength(handle, 0)
	assert.True(t, errors.Is(err, encoder.ErrInvalidArgument))
	maxLength, err = b.MaxLength(handle)
	require.NoError(t, err)
	assert.Equal(t, 2, maxLength)
}

func must(payload []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return payload
}

func TestLoadTokenizerDefault(t *testing.T) {
	b := newTestBridge(t, t.TempDir())
	handle, err := b.LoadTokenizerDefault(testutil.WordPieceDir(t))
	require.NoError(t, err)
	maxLength, err := b.MaxLength(handle)
	require.NoError(t, err)
	assert.Equal(t, 5, maxLength)

	_, err = b.LoadTokenizer(testutil.WordPieceDir(t), 0)
	assert.True(t, errors.Is(err, encoder.ErrInvalidArgument))

	_, err = b.LoadTokenizer("/nonexistent/tokenizer.json", 4)
	assert.True(t, errors.Is(err, encoder.ErrLoad))
	assert.Equal(t, 1, b.Len(), "failed loads create no handle")
}

func TestLoadFromHubCache(t *testing.T) {
	cacheDir := testutil.HubCache(t, "acme/tiny", map[string]string{"tokenizer.json": testutil.WordPieceJSON})
	b := newTestBridge(t, cacheDir)

	for _, path := range []string{"hf://acme/tiny", "hf://acme/tiny@main", "hf://acme/tiny@" + testutil.CacheCommit} {
		handle, err := b.LoadTokenizer(path, 3)
		require.NoError(t, err, path)
		data := decode[encoder.TokenData](t, must(b.Tokenize(handle, "token")))
		assert.Equal(t, []int64{5, 0, 0}, data.InputIDs, path)
	}

	_, err := b.LoadTokenizer("hf://acme/tiny@unknown", 3)
	assert.True(t, errors.Is(err, encoder.ErrLoad))
	_, err = b.LoadTokenizer("hf://acme/other", 3)
	assert.True(t, errors.Is(err, encoder.ErrLoad))
}

func TestTokenizeBatch(t *testing.T) {
	b := newTestBridge(t, t.TempDir())
	handle, err := b.LoadTokenizer(testutil.WordPieceDir(t), 3)
	require.NoError(t, err)

	batch := decode[[]encoder.TokenData](t, must(b.TokenizeBatch(handle, []byte(`["hello", "", "token world hello worlds"]`))))
	require.Len(t, batch, 3)
	assert.Equal(t, encoder.TokenData{InputIDs: []int64{2, 0, 0}, AttentionMask: []int64{1, 0, 0}, Length: 1}, batch[0])
	assert.Equal(t, encoder.TokenData{InputIDs: []int64{0, 0, 0}, AttentionMask: []int64{0, 0, 0}, Length: 0}, batch[1])
	assert.Equal(t, encoder.TokenData{InputIDs: []int64{5, 3, 2}, AttentionMask: []int64{1, 1, 1}, Length: 3}, batch[2])

	for _, input := range []string{`not json`, `{"text": "hello"}`, `[1, 2]`} {
		_, err = b.TokenizeBatch(handle, []byte(input))
		assert.True(t, errors.Is(err, encoder.ErrInvalidArgument), input)
	}

	payload, err := b.TokenizeBatch(handle, []byte(`[]`))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(payload))
}

func TestRelease(t *testing.T) {
	b := newTestBridge(t, t.TempDir())
	handle, err := b.LoadTokenizer(testutil.WordPieceDir(t), 4)
	require.NoError(t, err)

	require.NoError(t, b.Release(handle))
	assert.Equal(t, 0, b.Len())

	err = b.Release(handle)
	assert.True(t, errors.Is(err, ErrUnknownHandle))
	_, err = b.Tokenize(handle, "hello")
	assert.True(t, errors.Is(err, ErrUnknownHandle))
	_, err = b.TokenizeBatch(handle, []byte(`["hello"]`))
	assert.True(t, errors.Is(err, ErrUnknownHandle))
	assert.True(t, errors.Is(b.SetMaxLength(handle, 3), ErrUnknownHandle))
	_, err = b.MaxLength("never-issued")
	assert.True(t, errors.Is(err, ErrUnknownHandle))
}

func TestConcurrentCalls(t *testing.T) {
	b := newTestBridge(t, t.TempDir())
	b.SetMaxConcurrentCalls(2)
	handle, err := b.LoadTokenizer(testutil.WordPieceDir(t), 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%4 == 0 {
				assert.NoError(t, b.SetMaxLength(handle, 4))
				return
			}
			payload, err := b.Tokenize(handle, "hello world")
			if assert.NoError(t, err) {
				data := decode[encoder.TokenData](t, payload)
				assert.Equal(t, []int64{2, 3, 0, 0}, data.InputIDs)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.calls.InUse())
	assert.Equal(t, 2, b.calls.Capacity())
}

func TestReconfigure(t *testing.T) {
	b := newTestBridge(t, t.TempDir())
	padID := int64(7)
	settings := &config.Settings{
		DefaultMaxLength:   3,
		BatchParallelism:   4,
		MaxConcurrentCalls: 1,
		PadTokenID:         &padID,
		LogLevel:           "debug",
		LogFormat:          "json",
	}
	require.NoError(t, settings.Validate())
	b.Reconfigure(settings, zerolog.Nop())
	assert.Equal(t, 1, b.calls.Capacity())

	handle, err := b.LoadTokenizerDefault(testutil.WordPieceDir(t))
	require.NoError(t, err)
	data := decode[encoder.TokenData](t, must(b.Tokenize(handle, "world")))
	assert.Equal(t, []int64{3, 7, 7}, data.InputIDs, "pad_token_id override")
}

package hub

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vtbh/tokenbridge/internal/testutil"
)

func TestCleanRelativeFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"foo/bar", "foo/bar"},
		{"foo/../bar", "bar"},
		{"foo/./bar", "foo/bar"},
		{"/foo/bar", "foo/bar"},
		{"foo//bar", "foo/bar"},
		{"foo/bar/..", "foo"},
		{"../foo/bar", "foo/bar"},
		{"foo/../../../..", "."},
		{"foo/../../../bar", "bar"},
		{"", "."},
		{".", "."},
		{"..", "."},
	}

	for _, tc := range testCases {
		expected := filepath.FromSlash(tc.expected)
		got := cleanRelativeFilePath(tc.input)
		assert.Equal(t, expected, got, "cleanRelativeFilePath(%q)", tc.input)
	}
}

func makeCache(t *testing.T) string {
	return testutil.HubCache(t, "acme/tiny", map[string]string{"tokenizer.json": "{}"})
}

func TestLocalFile(t *testing.T) {
	cacheDir := makeCache(t)
	repo := New("acme/tiny").WithCacheDir(cacheDir)

	snapshot, err := repo.SnapshotDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cacheDir, "models--acme--tiny", "snapshots", testutil.CacheCommit), snapshot)

	p, err := repo.LocalFile("tokenizer.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(snapshot, "tokenizer.json"), p)
	assert.True(t, repo.HasFile("tokenizer.json"))
	assert.True(t, repo.HasFile("../../tokenizer.json"), "paths can't escape the snapshot")
	assert.False(t, repo.HasFile("tokenizer.model"))

	byHash := New("acme/tiny").WithCacheDir(cacheDir).WithRevision(testutil.CacheCommit)
	assert.True(t, byHash.HasFile("tokenizer.json"))
}

func TestLocalFileErrors(t *testing.T) {
	cacheDir := makeCache(t)

	_, err := New("acme/tiny").WithCacheDir(cacheDir).WithRevision("v2").LocalFile("tokenizer.json")
	assert.Error(t, err)

	_, err = New("acme/other").WithCacheDir(cacheDir).SnapshotDir()
	assert.Error(t, err)

	_, err = New("acme/tiny").WithCacheDir(cacheDir).WithType(RepoTypeDataset).SnapshotDir()
	assert.Error(t, err)

	_, err = New("acme/tiny").WithCacheDir("~no-such-user-xyz/cache").SnapshotDir()
	assert.Error(t, err)
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("HF_HUB_CACHE", "")
	t.Setenv("HF_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "huggingface", "hub"), DefaultCacheDir())

	t.Setenv("HF_HOME", "/hf")
	assert.Equal(t, filepath.Join("/hf", "hub"), DefaultCacheDir())

	t.Setenv("HF_HUB_CACHE", "/hubcache")
	assert.Equal(t, "/hubcache", DefaultCacheDir())
}

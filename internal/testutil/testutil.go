// Package testutil writes small tokenizer fixtures for tests.
//
// The fixtures are tiny but real: the tokenizer.json is parsed by the same library used in
// production, and the tiktoken config selects an embedded encoding, so tests need no network and
// no model downloads.
//
// Typical usage:
//
//	func TestLoad(t *testing.T) {
//	    dir := testutil.WordPieceDir(t)
//	    enc, err := encoder.Load(dir, 8)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WordPieceJSON is a minimal BERT-like tokenizer.json: "[PAD]" is 0, "[UNK]" is 1 and the vocabulary
// is hello=2, world=3, ##s=4, token=5.
const WordPieceJSON = `{
  "version": "1.0",
  "truncation": null,
  "padding": null,
  "added_tokens": [
    {"id": 0, "content": "[PAD]", "single_word": false, "lstrip": false, "rstrip": false, "normalized": false, "special": true},
    {"id": 1, "content": "[UNK]", "single_word": false, "lstrip": false, "rstrip": false, "normalized": false, "special": true}
  ],
  "normalizer": null,
  "pre_tokenizer": {"type": "BertPreTokenizer"},
  "post_processor": null,
  "decoder": {"type": "WordPiece", "prefix": "##", "cleanup": true},
  "model": {
    "type": "WordPiece",
    "unk_token": "[UNK]",
    "continuing_subword_prefix": "##",
    "max_input_chars_per_word": 100,
    "vocab": {"[PAD]": 0, "[UNK]": 1, "hello": 2, "world": 3, "##s": 4, "token": 5}
  }
}`

// TiktokenConfig is a tokenizer_config.json selecting cl100k_base, padding with <|endoftext|> (100257).
const TiktokenConfig = `{"tokenizer_class": "TiktokenTokenizer", "encoding_name": "cl100k_base", "pad_token": "<|endoftext|>"}`

// CacheCommit is the commit hash used by HubCache.
const CacheCommit = "0123456789abcdef0123456789abcdef01234567"

// WriteFile writes content to dir/name and returns its path.
func WriteFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		tb.Fatalf("creating directory for %q: %v", p, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		tb.Fatalf("writing %q: %v", p, err)
	}
	return p
}

// WordPieceDir returns a temporary directory holding WordPieceJSON as tokenizer.json.
func WordPieceDir(tb testing.TB) string {
	tb.Helper()
	dir := tb.TempDir()
	WriteFile(tb, dir, "tokenizer.json", WordPieceJSON)
	return dir
}

// TiktokenDir returns a temporary directory holding the given tokenizer_config.json content.
func TiktokenDir(tb testing.TB, config string) string {
	tb.Helper()
	dir := tb.TempDir()
	WriteFile(tb, dir, "tokenizer_config.json", config)
	return dir
}

// HubCache returns a temporary HuggingFace cache holding repoID ("owner/name") at CacheCommit,
// referenced by revision "main", with the given files (name -> content) in its snapshot.
func HubCache(tb testing.TB, repoID string, repoFiles map[string]string) string {
	tb.Helper()
	cacheDir := tb.TempDir()
	repoDir := filepath.Join(cacheDir, "models--"+strings.ReplaceAll(repoID, "/", "--"))
	WriteFile(tb, repoDir, filepath.Join("refs", "main"), CacheCommit+"\n")
	for name, content := range repoFiles {
		WriteFile(tb, repoDir, filepath.Join("snapshots", CacheCommit, name), content)
	}
	return cacheDir
}

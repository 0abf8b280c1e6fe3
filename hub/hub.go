// Package hub resolves files of HuggingFace Hub repositories (models, tokenizers, datasets) that are
// already present in the local cache, without using the network.
//
// It shares the cache structure of the huggingface_hub python library (usually under
// "~/.cache/huggingface/hub"), so files downloaded by Python programs can be used directly:
//
//	models--owner--name/
//	├── refs/main                 # holds the commit hash of revision "main"
//	└── snapshots/<commit-hash>/  # the repository files at that commit
package hub

import (
	"os"
	"path"
	"path/filepath"
)

// RepoIdSeparator is used to separate repository/model names parts when mapping to file names.
// Likely only for internal use.
const RepoIdSeparator = "--"

// RepoType supported by HuggingFace-Hub
type RepoType string

const (
	RepoTypeDataset RepoType = "datasets"
	RepoTypeSpace   RepoType = "spaces"
	RepoTypeModel   RepoType = "models"
)

func getEnvOr(key, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}

// DefaultCacheDir for HuggingFace Hub, same used by the python library.
//
// It is `${HF_HUB_CACHE}` if set, else `${HF_HOME}/hub` if HF_HOME is set, else
// `${XDG_CACHE_HOME}/huggingface/hub`, with XDG_CACHE_HOME defaulting to `~/.cache`.
func DefaultCacheDir() string {
	if dir := os.Getenv("HF_HUB_CACHE"); dir != "" {
		return dir
	}
	if dir := os.Getenv("HF_HOME"); dir != "" {
		return filepath.Join(dir, "hub")
	}
	cacheDir := getEnvOr("XDG_CACHE_HOME", filepath.Join(os.Getenv("HOME"), ".cache"))
	return filepath.Join(cacheDir, "huggingface", "hub")
}

// cleanRelativeFilePath makes fileName relative to the repository root, dropping any attempt to
// escape it with "..", and converts it to the OS separator.
func cleanRelativeFilePath(fileName string) string {
	cleaned := path.Clean("/" + fileName)[1:]
	if cleaned == "" {
		cleaned = "."
	}
	return filepath.FromSlash(cleaned)
}

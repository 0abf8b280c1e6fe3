package hub

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/vtbh/tokenbridge/internal/files"
)

var commitHashRegex = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Repo whose files one wants to use from the local cache. Create it with New.
type Repo struct {
	// ID of the Repo may include owner/model. E.g.: FacebookAI/xlm-roberta-base
	ID string

	// repoType of the repository, usually RepoTypeModel.
	repoType RepoType

	// revision to use, usually set to "main", but it can be a commit-hash.
	revision string

	// cacheDir is where the files were downloaded to.
	cacheDir string

	// err holds a configuration error, reported by the methods that read the cache.
	err error
}

// New creates a reference to a HuggingFace repository given its id.
//
// It uses the default cache directory (see DefaultCacheDir). Use Repo.WithCacheDir to change it.
//
// The id typically include owner/model. E.g.: "google/gemma-2-2b-it"
//
// It defaults to being a RepoTypeModel repository at revision "main".
func New(id string) *Repo {
	return &Repo{
		ID:       id,
		repoType: RepoTypeModel,
		revision: "main",
		cacheDir: DefaultCacheDir(),
	}
}

// WithType sets the repository type.
func (r *Repo) WithType(repoType RepoType) *Repo {
	r.repoType = repoType
	return r
}

// WithRevision sets the revision to use for this Repo, defaults to "main", but can be set to a commit-hash value.
func (r *Repo) WithRevision(revision string) *Repo {
	r.revision = revision
	return r
}

// WithCacheDir sets the cacheDir to the given directory. A leading "~" is expanded.
func (r *Repo) WithCacheDir(cacheDir string) *Repo {
	newCacheDir, err := files.ReplaceTildeInDir(cacheDir)
	if err != nil {
		r.err = errors.WithMessagef(err, "cache directory for repo %q", r.ID)
		return r
	}
	r.cacheDir = filepath.Clean(newCacheDir)
	return r
}

// Revision returns the configured revision.
func (r *Repo) Revision() string {
	return r.revision
}

// CacheDir returns the configured cache directory.
func (r *Repo) CacheDir() string {
	return r.cacheDir
}

// flatFolderName returns a serialized version of a hf.co repo name and type, safe for disk storage
// as a single non-nested folder.
//
// Based on github.com/huggingface/huggingface_hub repo_folder_name.
func (r *Repo) flatFolderName() string {
	parts := []string{string(r.repoType)}
	parts = append(parts, strings.Split(r.ID, "/")...)
	return strings.Join(parts, RepoIdSeparator)
}

// repoCacheDir joins cacheDir and flatFolderName to return the cache subdirectory for the repository.
func (r *Repo) repoCacheDir() string {
	return filepath.Join(r.cacheDir, r.flatFolderName())
}

// readCommitHashForRevision finds the commit-hash for the revision in "refs/<revision>".
// The revision can be itself a commit-hash, in which case it is returned directly.
func (r *Repo) readCommitHashForRevision() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	refPath := filepath.Join(r.repoCacheDir(), "refs", r.revision)
	if !files.Exists(refPath) {
		if commitHashRegex.MatchString(r.revision) {
			return r.revision, nil
		}
		return "", errors.Errorf("revision %q of repo %q not found in cache %q", r.revision, r.ID, r.cacheDir)
	}
	contents, err := os.ReadFile(refPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed reading %q", refPath)
	}
	commitHash := strings.TrimSpace(string(contents))
	if commitHash == "" {
		return "", errors.Errorf("empty reference file %q", refPath)
	}
	return commitHash, nil
}

// SnapshotDir returns the snapshot directory for this repo at its revision.
func (r *Repo) SnapshotDir() (string, error) {
	commitHash, err := r.readCommitHashForRevision()
	if err != nil {
		return "", err
	}
	snapshotDir := filepath.Join(r.repoCacheDir(), "snapshots", commitHash)
	if !files.IsDir(snapshotDir) {
		return "", errors.Errorf("snapshot %q of repo %q not found in cache %q", commitHash, r.ID, r.cacheDir)
	}
	return snapshotDir, nil
}

// LocalFile returns the path to fileName in the repository snapshot. The returned path can be
// read, but shouldn't be modified, since other programs may share the cache.
func (r *Repo) LocalFile(fileName string) (string, error) {
	snapshotDir, err := r.SnapshotDir()
	if err != nil {
		return "", err
	}
	localPath := filepath.Join(snapshotDir, cleanRelativeFilePath(fileName))
	if !files.Exists(localPath) {
		return "", errors.Errorf("file %q not found in repo %q at revision %q", fileName, r.ID, r.revision)
	}
	return localPath, nil
}

// HasFile returns whether fileName is present in the cached snapshot.
func (r *Repo) HasFile(fileName string) bool {
	_, err := r.LocalFile(fileName)
	return err == nil
}

// String implements fmt.Stringer.
func (r *Repo) String() string {
	return r.ID
}

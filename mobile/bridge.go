// Package mobile is the host boundary of the tokenizer bridge, meant to be bound with
// `gomobile bind` for Android and iOS frontends.
//
// Signatures only use types gomobile can bind (string, int, []byte, error): tokenizers are
// referenced by opaque string handles and results are JSON encoded TokenData:
//
//	{"input_ids": [...], "attention_mask": [...], "length": 3}
//
// Every call is synchronous. A handle may be used from several threads: SetMaxLength is
// serialized against tokenization on the same handle.
package mobile

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/vtbh/tokenbridge/config"
	"github.com/vtbh/tokenbridge/encoder"
	"github.com/vtbh/tokenbridge/hub"
	"github.com/vtbh/tokenbridge/internal/xsync"
)

// HubScheme prefixes paths resolved from the local HuggingFace cache: "hf://owner/name", optionally
// followed by "@revision".
const HubScheme = "hf://"

// ErrUnknownHandle is returned for handles that were released or never issued.
var ErrUnknownHandle = errors.New("unknown tokenizer handle")

// entry is one loaded tokenizer. mu serializes SetMaxLength against tokenization.
type entry struct {
	mu  sync.Mutex
	enc *encoder.Encoder
}

// Bridge holds the loaded tokenizers of one host. Most hosts use the package level functions,
// which share a default Bridge.
type Bridge struct {
	mu       sync.RWMutex
	handles  map[string]*entry
	settings *config.Settings
	logger   zerolog.Logger
	calls    *xsync.Semaphore
}

// NewBridge creates a Bridge with the given settings.
func NewBridge(settings *config.Settings, logger zerolog.Logger) *Bridge {
	return &Bridge{
		handles:  make(map[string]*entry),
		settings: settings,
		logger:   logger,
		calls:    xsync.NewSemaphore(settings.MaxConcurrentCalls),
	}
}

// Reconfigure replaces the settings and logger. Already loaded tokenizers keep their options;
// the concurrency limit applies immediately.
func (b *Bridge) Reconfigure(settings *config.Settings, logger zerolog.Logger) {
	b.mu.Lock()
	b.settings = settings
	b.logger = logger
	b.mu.Unlock()
	b.calls.Resize(settings.MaxConcurrentCalls)
}

// SetMaxConcurrentCalls bounds simultaneous tokenization calls across handles, n <= 0 for no limit.
func (b *Bridge) SetMaxConcurrentCalls(n int) {
	b.calls.Resize(n)
}

// LoadTokenizer loads the tokenizer at path and returns its handle. path is a file or directory
// (see encoder.Load) or "hf://owner/name[@revision]" for the local HuggingFace cache.
func (b *Bridge) LoadTokenizer(path string, maxLength int) (string, error) {
	b.mu.RLock()
	settings, logger := b.settings, b.logger
	b.mu.RUnlock()

	opts := settings.EncoderOptions(logger)
	var enc *encoder.Encoder
	var err error
	if repoID, found := strings.CutPrefix(path, HubScheme); found {
		id, revision, hasRevision := strings.Cut(repoID, "@")
		repo := hub.New(id).WithCacheDir(settings.HubCacheDir)
		if hasRevision {
			repo = repo.WithRevision(revision)
		}
		enc, err = encoder.LoadRepo(repo, maxLength, opts...)
	} else {
		enc, err = encoder.Load(path, maxLength, opts...)
	}
	if err != nil {
		return "", err
	}

	handle := uuid.NewString()
	b.mu.Lock()
	b.handles[handle] = &entry{enc: enc}
	b.mu.Unlock()
	logger.Debug().Str("handle", handle).Str("path", path).Msg("handle created")
	return handle, nil
}

// LoadTokenizerDefault is LoadTokenizer with the configured default max length.
func (b *Bridge) LoadTokenizerDefault(path string) (string, error) {
	b.mu.RLock()
	maxLength := b.settings.DefaultMaxLength
	b.mu.RUnlock()
	return b.LoadTokenizer(path, maxLength)
}

// Release forgets the handle. Releasing an unknown handle is an error.
func (b *Bridge) Release(handle string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.handles[handle]; !found {
		return errors.Wrapf(ErrUnknownHandle, "handle %q", handle)
	}
	delete(b.handles, handle)
	return nil
}

// Len returns the number of live handles.
func (b *Bridge) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handles)
}

func (b *Bridge) lookup(handle string) (*entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, found := b.handles[handle]
	if !found {
		return nil, errors.Wrapf(ErrUnknownHandle, "handle %q", handle)
	}
	return e, nil
}

// SetMaxLength changes the max length of the handle's tokenizer.
func (b *Bridge) SetMaxLength(handle string, maxLength int) error {
	e, err := b.lookup(handle)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.SetMaxLength(maxLength)
}

// MaxLength returns the current max length of the handle's tokenizer.
func (b *Bridge) MaxLength(handle string) (int, error) {
	e, err := b.lookup(handle)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.MaxLength(), nil
}

// Tokenize encodes text and returns the JSON encoded TokenData.
func (b *Bridge) Tokenize(handle, text string) ([]byte, error) {
	e, err := b.lookup(handle)
	if err != nil {
		return nil, err
	}
	var out []byte
	err = b.calls.Do(func() error {
		e.mu.Lock()
		data, err := e.enc.Encode(text)
		e.mu.Unlock()
		if err != nil {
			return err
		}
		out, err = json.Marshal(data)
		return errors.Wrap(err, "failed to serialize token data")
	})
	return out, err
}

// TokenizeBatch encodes a JSON array of strings and returns a JSON array of TokenData, in order.
// If any text fails, the whole call fails.
func (b *Bridge) TokenizeBatch(handle string, textsJSON []byte) ([]byte, error) {
	e, err := b.lookup(handle)
	if err != nil {
		return nil, err
	}
	var texts []string
	if err := json.Unmarshal(textsJSON, &texts); err != nil {
		return nil, &encoder.Error{Kind: encoder.ErrInvalidArgument, Op: "tokenize_batch",
			Err: errors.Wrap(err, "texts must be a JSON array of strings")}
	}
	var out []byte
	err = b.calls.Do(func() error {
		e.mu.Lock()
		batch, err := e.enc.EncodeBatch(texts)
		e.mu.Unlock()
		if err != nil {
			return err
		}
		out, err = json.Marshal(batch)
		return errors.Wrap(err, "failed to serialize token data")
	})
	return out, err
}

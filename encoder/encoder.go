// Package encoder turns text into fixed-shape token tensors.
//
// An Encoder wraps a tokenizer (see package tokenizers) and a target sequence length. Every
// encoded text yields exactly MaxLength ids and MaxLength attention mask values: longer token
// sequences are truncated on the right, shorter ones are padded on the right with the pad token
// id of the loaded configuration.
//
// An Encoder does no locking of its own. Either confine it to one goroutine, or serialize
// SetMaxLength against the Encode methods.
package encoder

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
	"github.com/vtbh/tokenbridge/hub"
	"github.com/vtbh/tokenbridge/tokenizers"
	"github.com/vtbh/tokenbridge/tokenizers/api"
)

// DefaultMaxLength is the sequence length used by callers that don't choose one.
const DefaultMaxLength = 1024

// TokenData is the fixed-shape encoding of one text.
type TokenData struct {
	// InputIDs holds exactly MaxLength token ids: the first Length are the text's tokens, the rest
	// is the pad token id.
	InputIDs []int64 `json:"input_ids"`

	// AttentionMask has the same length as InputIDs: 1 for real tokens, 0 for padding.
	AttentionMask []int64 `json:"attention_mask"`

	// Length is the number of real (non-padding) tokens.
	Length int `json:"length"`
}

// Encoder produces TokenData of a fixed length. Create it with Load, LoadRepo or New.
type Encoder struct {
	tok       api.Tokenizer
	maxLength int
	padID     int64
	source    string

	parallelism int
	logger      zerolog.Logger
}

// Load creates an Encoder from the tokenizer files at path (see tokenizers.Load for the accepted
// layouts), producing sequences of maxLength tokens.
//
// The pad token id is taken from the configuration, unless WithPadTokenID is given. If the
// tokenizer library has its own truncation policy, it's set to right-side, longest-first
// truncation at maxLength.
//
// Errors are of kind ErrInvalidArgument for maxLength <= 0 and ErrLoad otherwise.
func Load(path string, maxLength int, opts ...Option) (*Encoder, error) {
	const op = "load"
	if maxLength <= 0 {
		return nil, invalidMaxLength(op, maxLength)
	}
	loaded, err := tokenizers.Load(path)
	if err != nil {
		return nil, newError(ErrLoad, op, err)
	}
	return fromLoaded(op, loaded, maxLength, opts)
}

// LoadRepo is like Load, but takes the tokenizer files from a repository in the local
// HuggingFace cache.
func LoadRepo(repo *hub.Repo, maxLength int, opts ...Option) (*Encoder, error) {
	const op = "load_repo"
	if maxLength <= 0 {
		return nil, invalidMaxLength(op, maxLength)
	}
	loaded, err := tokenizers.NewFromRepo(repo)
	if err != nil {
		return nil, newError(ErrLoad, op, err)
	}
	return fromLoaded(op, loaded, maxLength, opts)
}

func fromLoaded(op string, loaded *tokenizers.Loaded, maxLength int, opts []Option) (*Encoder, error) {
	o := newOptions(opts)
	var padID int64
	if o.padID != nil {
		padID = *o.padID
	} else {
		id, err := loaded.PadTokenID()
		if err != nil {
			return nil, newError(ErrLoad, op, errors.WithMessage(err, "use WithPadTokenID to set one"))
		}
		padID = int64(id)
	}
	e, err := newEncoder(op, loaded.Tokenizer, maxLength, padID, o)
	if err != nil {
		return nil, err
	}
	e.source = loaded.File
	e.logger.Info().
		Str("class", loaded.Class).
		Str("file", loaded.File).
		Str("size", humanize.Bytes(uint64(loaded.Size))).
		Int64("pad_id", padID).
		Int("max_length", maxLength).
		Msg("tokenizer loaded")
	return e, nil
}

// New creates an Encoder over an already built tokenizer, e.g. a custom api.Tokenizer
// implementation. padID is the id used for padding.
func New(tok api.Tokenizer, maxLength int, padID int64, opts ...Option) (*Encoder, error) {
	return newEncoder("new", tok, maxLength, padID, newOptions(opts))
}

func newEncoder(op string, tok api.Tokenizer, maxLength int, padID int64, o *options) (*Encoder, error) {
	if tok == nil {
		return nil, newError(ErrInvalidArgument, op, errors.New("tokenizer is nil"))
	}
	if maxLength <= 0 {
		return nil, invalidMaxLength(op, maxLength)
	}
	if padID < 0 {
		return nil, newError(ErrInvalidArgument, op, errors.Errorf("pad token id must be >= 0, got %d", padID))
	}
	if err := configureTruncation(tok, maxLength); err != nil {
		return nil, newError(ErrLoad, op, err)
	}
	return &Encoder{
		tok:         tok,
		maxLength:   maxLength,
		padID:       padID,
		parallelism: o.parallelism,
		logger:      o.logger,
	}, nil
}

// configureTruncation sets the tokenizer's own truncation, if it has one.
func configureTruncation(tok api.Tokenizer, maxLength int) error {
	truncator, ok := tok.(api.Truncator)
	if !ok {
		return nil
	}
	if err := truncator.SetTruncation(api.RightLongestFirst(maxLength)); err != nil {
		return errors.WithMessagef(err, "failed to set truncation to %d", maxLength)
	}
	return nil
}

// MaxLength returns the current target sequence length.
func (e *Encoder) MaxLength() int {
	return e.maxLength
}

// PadTokenID returns the id used for padding.
func (e *Encoder) PadTokenID() int64 {
	return e.padID
}

// Tokenizer returns the underlying tokenizer.
func (e *Encoder) Tokenizer() api.Tokenizer {
	return e.tok
}

// Source returns the file the tokenizer was loaded from, empty for encoders created with New.
func (e *Encoder) Source() string {
	return e.source
}

// SetMaxLength changes the target sequence length for subsequent Encode and EncodeBatch calls.
//
// It fails with ErrInvalidArgument if maxLength <= 0 or the tokenizer's truncation can't be
// reconfigured; the Encoder is unchanged in that case.
func (e *Encoder) SetMaxLength(maxLength int) error {
	const op = "set_max_length"
	if maxLength <= 0 {
		return invalidMaxLength(op, maxLength)
	}
	if err := configureTruncation(e.tok, maxLength); err != nil {
		return newError(ErrInvalidArgument, op, err)
	}
	previous := e.maxLength
	e.maxLength = maxLength
	e.logger.Debug().Int("from", previous).Int("to", maxLength).Msg("max length changed")
	return nil
}

// Encode converts text to exactly MaxLength token ids and mask values, without special tokens.
//
// It fails with ErrEncode if the tokenizer rejects the text.
func (e *Encoder) Encode(text string) (TokenData, error) {
	ids, err := e.rawIDs(text)
	if err != nil {
		return TokenData{}, newError(ErrEncode, "encode", err)
	}
	return fixedShape(ids, e.maxLength, e.padID), nil
}

// EncodeBatch encodes each text as Encode would, preserving order.
//
// It is fail-fast: if any text fails, no results are returned and the error is the one of the
// first failing text, independent of parallelism.
func (e *Encoder) EncodeBatch(texts []string) ([]TokenData, error) {
	const op = "encode_batch"
	maxLength, padID := e.maxLength, e.padID
	results := make([]TokenData, len(texts))

	if e.parallelism <= 1 || len(texts) < 2 {
		for i, text := range texts {
			ids, err := e.rawIDs(text)
			if err != nil {
				return nil, e.batchError(op, i, len(texts), err)
			}
			results[i] = fixedShape(ids, maxLength, padID)
		}
		return results, nil
	}

	errs := make([]error, len(texts))
	iterator := iter.Iterator[string]{MaxGoroutines: e.parallelism}
	iterator.ForEachIdx(texts, func(i int, text *string) {
		ids, err := e.rawIDs(*text)
		if err != nil {
			errs[i] = err
			return
		}
		results[i] = fixedShape(ids, maxLength, padID)
	})
	for i, err := range errs {
		if err != nil {
			return nil, e.batchError(op, i, len(texts), err)
		}
	}
	return results, nil
}

func (e *Encoder) batchError(op string, index, size int, err error) error {
	e.logger.Debug().Err(err).Int("index", index).Int("batch_size", size).Msg("batch encoding failed")
	return newError(ErrEncode, op, errors.WithMessagef(err, "batch item %d", index))
}

// rawIDs calls the tokenizer, turning a panic of the library into an error.
func (e *Encoder) rawIDs(text string) (ids []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			ids, err = nil, errors.Errorf("tokenizer panicked: %v", r)
		}
	}()
	return e.tok.Encode(text, false)
}

// fixedShape truncates ids on the right to maxLength, or right-pads them with padID.
func fixedShape(ids []int, maxLength int, padID int64) TokenData {
	n := min(len(ids), maxLength)
	data := TokenData{
		InputIDs:      make([]int64, maxLength),
		AttentionMask: make([]int64, maxLength),
		Length:        n,
	}
	for i := range maxLength {
		if i < n {
			data.InputIDs[i] = int64(ids[i])
			data.AttentionMask[i] = 1
		} else {
			data.InputIDs[i] = padID
		}
	}
	return data
}

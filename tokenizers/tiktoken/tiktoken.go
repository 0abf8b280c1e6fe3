// Package tiktoken implements an api.Tokenizer over OpenAI's BPE encodings (cl100k_base,
// o200k_base, ...), using github.com/pkoukk/tiktoken-go with the embedded offline BPE ranks, so
// nothing is downloaded at runtime.
//
// The encoding is selected by the "encoding_name" field of tokenizer_config.json, with
// "tokenizer_class": "TiktokenTokenizer".
package tiktoken

import (
	"sync"

	"github.com/pkg/errors"
	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/vtbh/tokenbridge/tokenizers/api"
)

// DefaultEncoding is used when the config doesn't set "encoding_name".
const DefaultEncoding = "cl100k_base"

// EndOfText is the special token shared by the OpenAI encodings.
const EndOfText = "<|endoftext|>"

var offlineLoaderOnce sync.Once

// allSpecial allows special token strings to map to their ids, used for lookups only.
var allSpecial = []string{"all"}

// Tokenizer implements api.Tokenizer and api.Vocabulary over a tiktoken encoding.
type Tokenizer struct {
	enc      *tiktoken.Tiktoken
	encoding string
	padToken string
}

// Compile time assert that tiktoken.Tokenizer implements the capability interfaces.
var (
	_ api.Tokenizer  = &Tokenizer{}
	_ api.Vocabulary = &Tokenizer{}
)

// New creates a Tokenizer for the encoding named by config. No files are needed.
//
// It implements a tokenizers.TokenizerConstructor function signature.
func New(config *api.Config, _ api.FileSet) (api.Tokenizer, error) {
	name, padToken := DefaultEncoding, ""
	if config != nil {
		if config.EncodingName != "" {
			name = config.EncodingName
		}
		padToken = string(config.PadToken)
	}
	return NewEncoding(name, padToken)
}

// NewEncoding creates a Tokenizer for the given encoding name. padToken may be empty.
func NewEncoding(name, padToken string) (*Tokenizer, error) {
	offlineLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown tiktoken encoding %q", name)
	}
	return &Tokenizer{enc: enc, encoding: name, padToken: padToken}, nil
}

// Encode returns the text encoded into a sequence of ids. Special token strings in text are
// encoded as plain text. OpenAI encodings have no boundary tokens, so addSpecialTokens is ignored.
func (t *Tokenizer) Encode(text string, _ bool) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

// Decode returns the text from a sequence of ids.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

// TokenID returns the id of token if it encodes to exactly one id, special tokens included.
func (t *Tokenizer) TokenID(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	ids := t.enc.Encode(token, allSpecial, nil)
	if len(ids) != 1 {
		return 0, false
	}
	return ids[0], true
}

// SpecialTokenID returns the id for the given special token, or an error if not known.
//
// Only end-of-sentence (<|endoftext|>) is intrinsic to the encodings; pad is known if the config
// named a pad token.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	var content string
	switch token {
	case api.TokEndOfSentence:
		content = EndOfText
	case api.TokPad:
		content = t.padToken
	}
	if id, found := t.TokenID(content); found {
		return id, nil
	}
	return 0, errors.Errorf("special token %s not defined for tiktoken encoding %q", token, t.encoding)
}

// Encoding returns the encoding name, e.g. "cl100k_base".
func (t *Tokenizer) Encoding() string {
	return t.encoding
}

// Package hftokenizer implements an api.Tokenizer for HuggingFace "tokenizer.json" files, using the
// pure Go port of the tokenizers library (github.com/sugarme/tokenizer).
package hftokenizer

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/vtbh/tokenbridge/tokenizers/api"
)

// wellKnownPadTokens are tried, in order, when neither tokenizer.json nor the config name a pad token.
var wellKnownPadTokens = []string{"<pad>", "[PAD]", "<|pad|>"}

// Tokenizer implements api.Tokenizer, api.Truncator and api.Vocabulary over a tokenizer.json file.
type Tokenizer struct {
	tk   *tokenizer.Tokenizer
	file string

	vocab       map[string]int
	addedTokens map[string]int
	special     map[api.SpecialToken]int
}

// Compile time assert that hftokenizer.Tokenizer implements the capability interfaces.
var (
	_ api.Tokenizer  = &Tokenizer{}
	_ api.Truncator  = &Tokenizer{}
	_ api.Vocabulary = &Tokenizer{}
)

// fileMeta holds the parts of tokenizer.json the library doesn't expose.
type fileMeta struct {
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
	Padding *struct {
		PadID    int    `json:"pad_id"`
		PadToken string `json:"pad_token"`
	} `json:"padding"`
	Model struct {
		Type     string          `json:"type"`
		UnkToken string          `json:"unk_token"`
		Vocab    json.RawMessage `json:"vocab"`
	} `json:"model"`
}

// New creates a Tokenizer from the "tokenizer.json" entry of files.
// The config (possibly empty) names special tokens.
//
// It implements a tokenizers.TokenizerConstructor function signature.
func New(config *api.Config, files api.FileSet) (api.Tokenizer, error) {
	tokenizerFile, found := files.Path(api.FileTokenizerJSON)
	if !found {
		return nil, errors.Errorf("%q file not found", api.FileTokenizerJSON)
	}
	return NewFromFile(tokenizerFile, config)
}

// NewFromFile loads tokenizerFile, a HuggingFace tokenizer.json. config may be nil.
func NewFromFile(tokenizerFile string, config *api.Config) (*Tokenizer, error) {
	content, err := os.ReadFile(tokenizerFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer file %q", tokenizerFile)
	}
	var meta fileMeta
	if err = json.Unmarshal(content, &meta); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer file %q", tokenizerFile)
	}
	tk, err := pretrained.FromFile(tokenizerFile)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create tokenizer from %q", tokenizerFile)
	}
	t := &Tokenizer{
		tk:          tk,
		file:        tokenizerFile,
		addedTokens: make(map[string]int, len(meta.AddedTokens)),
		special:     make(map[api.SpecialToken]int),
	}
	for _, added := range meta.AddedTokens {
		t.addedTokens[added.Content] = added.ID
	}
	t.vocab, err = parseVocab(meta.Model.Vocab)
	if err != nil {
		return nil, errors.WithMessagef(err, "model vocabulary of %q", tokenizerFile)
	}
	t.registerSpecialTokens(&meta, config)
	return t, nil
}

// parseVocab accepts both the map form (BPE, WordPiece, WordLevel) and the list form (Unigram,
// where the id is the position in the list).
func parseVocab(raw json.RawMessage) (map[string]int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]int{}, nil
	}
	var asMap map[string]int
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap, nil
	}
	var asList [][]any
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil, errors.Wrap(err, "vocab is neither a token->id map nor a list of [token, score]")
	}
	vocab := make(map[string]int, len(asList))
	for id, entry := range asList {
		if len(entry) == 0 {
			continue
		}
		if piece, ok := entry[0].(string); ok {
			vocab[piece] = id
		}
	}
	return vocab, nil
}

func (t *Tokenizer) registerSpecialTokens(meta *fileMeta, config *api.Config) {
	if config == nil {
		config = &api.Config{}
	}
	named := map[api.SpecialToken]string{
		api.TokBeginningOfSentence: string(config.BosToken),
		api.TokEndOfSentence:       string(config.EosToken),
		api.TokUnknown:             string(config.UnkToken),
		api.TokPad:                 string(config.PadToken),
		api.TokMask:                string(config.MaskToken),
		api.TokClassification:     string(config.ClsToken),
	}
	if named[api.TokUnknown] == "" {
		named[api.TokUnknown] = meta.Model.UnkToken
	}
	for token, content := range named {
		if id, found := t.TokenID(content); found {
			t.special[token] = id
		}
	}

	// The padding section of tokenizer.json is authoritative for the pad id.
	if meta.Padding != nil {
		t.special[api.TokPad] = meta.Padding.PadID
		return
	}
	if _, found := t.special[api.TokPad]; found {
		return
	}
	for _, content := range wellKnownPadTokens {
		if id, found := t.addedTokens[content]; found {
			t.special[api.TokPad] = id
			return
		}
	}
}

// Encode returns the text encoded into a sequence of ids.
func (t *Tokenizer) Encode(text string, addSpecialTokens bool) ([]int, error) {
	encoding, err := t.tk.EncodeSingle(text, addSpecialTokens)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode text with %q", t.file)
	}
	ids := make([]int, len(encoding.Ids))
	copy(ids, encoding.Ids)
	return ids, nil
}

// Decode returns the text from a sequence of ids, skipping special tokens.
func (t *Tokenizer) Decode(ids []int) string {
	return t.tk.Decode(ids, true)
}

// SpecialTokenID returns the id for the given special token, or an error if not known.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	if id, found := t.special[token]; found {
		return id, nil
	}
	return 0, errors.Errorf("special token %s not defined by %q", token, t.file)
}

// TokenID looks up token among the added tokens first, then in the model vocabulary.
func (t *Tokenizer) TokenID(token string) (int, bool) {
	if token == "" {
		return 0, false
	}
	if id, found := t.addedTokens[token]; found {
		return id, true
	}
	id, found := t.vocab[token]
	return id, found
}

// SetTruncation configures the library's own truncation. Only right-side truncation of a single
// sequence is supported.
func (t *Tokenizer) SetTruncation(params api.TruncationParams) error {
	if params.MaxLength <= 0 {
		return errors.Errorf("truncation max length must be > 0, got %d", params.MaxLength)
	}
	if params.Direction != api.TruncateRight {
		return errors.New("only right-side truncation is supported by tokenizer.json tokenizers")
	}
	// Only single sequences are encoded: longest-first is the same as only-first, and the
	// library's LongestFirst dereferences the (nil) pair encoding.
	switch params.Strategy {
	case api.LongestFirst, api.OnlyFirst:
	case api.OnlySecond:
		return errors.New("only-second truncation needs sequence pairs, not supported")
	default:
		return errors.Errorf("unknown truncation strategy %d", params.Strategy)
	}
	t.tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: params.MaxLength,
		Strategy:  tokenizer.OnlyFirst,
		Stride:    params.Stride,
	})
	return nil
}

// File returns the tokenizer.json path this Tokenizer was loaded from.
func (t *Tokenizer) File() string {
	return t.file
}

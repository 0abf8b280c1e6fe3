// Package sentencepiece implements an api.Tokenizer based on SentencePiece "tokenizer.model" files.
package sentencepiece

import (
	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/pkg/errors"
	"github.com/vtbh/tokenbridge/tokenizers/api"
)

// New creates a SentencePiece tokenizer based on the "tokenizer.model" entry of files, which must be
// a SentencePiece Model proto.
//
// The config decides whether BOS/EOS are added when special tokens are requested.
//
// It implements a tokenizers.TokenizerConstructor function signature.
func New(config *api.Config, files api.FileSet) (api.Tokenizer, error) {
	modelFile, found := files.Path(api.FileSentencePieceModel)
	if !found {
		return nil, errors.Errorf("%q file not found", api.FileSentencePieceModel)
	}
	return NewFromFile(modelFile, config)
}

// NewFromFile loads a SentencePiece model proto from modelFile. config may be nil.
func NewFromFile(modelFile string, config *api.Config) (*Tokenizer, error) {
	proc, err := esentencepiece.NewProcessorFromPath(modelFile)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", modelFile)
	}
	t := &Tokenizer{
		Processor: proc,
		Info:      proc.ModelInfo(),
		addBos:    true,
	}
	if config != nil {
		t.addBos, t.addEos = config.AddBosToken, config.AddEosToken
	}
	return t, nil
}

// Tokenizer implements api.Tokenizer interface based on SentencePiece tokenizer by Google.
type Tokenizer struct {
	*esentencepiece.Processor
	Info *esentencepiece.ModelInfo

	addBos, addEos bool
}

// Compile time assert that sentencepiece.Tokenizer implements api.Tokenizer interface.
var _ api.Tokenizer = &Tokenizer{}

// Encode returns the text encoded into a sequence of ids.
//
// With addSpecialTokens, BOS and/or EOS are added as configured, if the model defines them.
func (p *Tokenizer) Encode(text string, addSpecialTokens bool) ([]int, error) {
	tokens := p.Processor.Encode(text)
	ids := make([]int, 0, len(tokens)+2)
	if addSpecialTokens && p.addBos && p.Info.BeginningOfSentenceID >= 0 {
		ids = append(ids, p.Info.BeginningOfSentenceID)
	}
	for _, t := range tokens {
		ids = append(ids, t.ID)
	}
	if addSpecialTokens && p.addEos && p.Info.EndOfSentenceID >= 0 {
		ids = append(ids, p.Info.EndOfSentenceID)
	}
	return ids, nil
}

// Decode returns the text from a sequence of ids.
func (p *Tokenizer) Decode(ids []int) string {
	return p.Processor.Decode(ids)
}

// SpecialTokenID returns the token for the given symbol, or an error if not known.
// SentencePiece models mark undefined special tokens with a negative id.
func (p *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	id := -1
	switch token {
	case api.TokUnknown:
		id = p.Info.UnknownID
	case api.TokPad:
		id = p.Info.PadID
	case api.TokBeginningOfSentence:
		id = p.Info.BeginningOfSentenceID
	case api.TokEndOfSentence:
		id = p.Info.EndOfSentenceID
	}
	if id < 0 {
		return 0, errors.Errorf("special token %s not defined by the sentencepiece model", token)
	}
	return id, nil
}

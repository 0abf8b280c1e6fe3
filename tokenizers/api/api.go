// Package api defines the Tokenizer capability API.
// It's kept separate to break the cyclic dependency between `tokenizers` (the registry) and the
// backend implementations.
package api

// Tokenizer interface allows one to convert text to "tokens" (integer ids) and back.
//
// It also allows mapping of special tokens: tokens with a common semantic (like padding) but that
// may map to different ids (int) for different tokenizers.
type Tokenizer interface {
	// Encode text into token ids. If addSpecialTokens is false, no boundary tokens
	// (BOS/EOS/CLS/SEP) are added.
	Encode(text string, addSpecialTokens bool) ([]int, error)

	// Decode ids back to text.
	Decode(ids []int) string

	// SpecialTokenID returns ID for given special token if registered, or an error if not.
	SpecialTokenID(token SpecialToken) (int, error)
}

// Truncator is implemented by tokenizers whose library exposes its own truncation policy.
// Configuring it is an optimization: callers must not rely on it for the output shape.
type Truncator interface {
	SetTruncation(params TruncationParams) error
}

// Vocabulary is implemented by tokenizers that can look up the id of an arbitrary token string.
type Vocabulary interface {
	TokenID(token string) (id int, found bool)
}

// TruncationDirection selects which end of a sequence is dropped.
type TruncationDirection int

const (
	TruncateRight TruncationDirection = iota
	TruncateLeft
)

// TruncationStrategy selects how a pair of sequences shares the length budget.
type TruncationStrategy int

const (
	LongestFirst TruncationStrategy = iota
	OnlyFirst
	OnlySecond
)

// TruncationParams configures a Truncator.
type TruncationParams struct {
	MaxLength int
	Direction TruncationDirection
	Strategy  TruncationStrategy
	Stride    int
}

// RightLongestFirst returns the truncation policy used by the fixed-shape encoder.
func RightLongestFirst(maxLength int) TruncationParams {
	return TruncationParams{MaxLength: maxLength, Direction: TruncateRight, Strategy: LongestFirst}
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokMask
	TokClassification
	TokSpecialTokensCount
)

//go:generate enumer -type=SpecialToken -trimprefix=Tok -transform=snake -values -text -json -yaml api.go

package encoder

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Use errors.Is(err, ErrLoad) etc. to distinguish them.
var (
	// ErrLoad is returned when the tokenizer configuration is missing, unreadable or malformed.
	ErrLoad = errors.New("tokenizer load failed")

	// ErrInvalidArgument is returned for a non-positive max length or an invalid option.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEncode is returned when the tokenizer rejects a text.
	ErrEncode = errors.New("tokenization failed")
)

// Error is the error returned by all Encoder operations. It carries one of the kinds above and
// the underlying library diagnostic.
type Error struct {
	// Kind is ErrLoad, ErrInvalidArgument or ErrEncode.
	Kind error

	// Op is the operation that failed, e.g. "load" or "encode_batch".
	Op string

	// Err is the underlying error, may be nil.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalidMaxLength(op string, maxLength int) *Error {
	return newError(ErrInvalidArgument, op, errors.Errorf("max_length must be > 0, got %d", maxLength))
}

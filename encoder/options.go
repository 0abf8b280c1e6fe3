package encoder

import (
	"github.com/rs/zerolog"
)

// Option configures an Encoder at creation.
type Option func(*options)

type options struct {
	padID       *int64
	parallelism int
	logger      zerolog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		parallelism: 1,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPadTokenID overrides the pad token id read from the tokenizer configuration.
// It must be >= 0.
func WithPadTokenID(id int64) Option {
	return func(o *options) {
		o.padID = &id
	}
}

// WithParallelism sets how many goroutines EncodeBatch may use. Default is 1: sequential.
//
// Values > 1 require the underlying tokenizer to support concurrent Encode calls. Output order and
// failure semantics don't change.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

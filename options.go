package statusq

import (
	"time"

	ikeys "github.com/UniQw/statusq-go/internal/keys"
)

// DefaultTTL is the retention window applied when WithTTL is not given.
// It covers record keys, index entries, and kill-registry entries alike.
const DefaultTTL = 30 * 24 * time.Hour

type options struct {
	ttl     time.Duration
	prefix  string
	encoder Encoder
	logger  Logger
}

func defaultOptions() *options {
	return &options{
		ttl:     DefaultTTL,
		prefix:  ikeys.DefaultPrefix,
		encoder: &JSONEncoder{},
	}
}

// Option is a function that configures a Store at construction time.
type Option func(*options)

// WithTTL sets the retention window for records and their index entries.
// Non-positive durations fall back to DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithPrefix sets the Redis keyspace prefix. Useful to run several
// independent stores against one Redis.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithEncoder replaces the default JSON encoder used for record bodies.
func WithEncoder(enc Encoder) Option {
	return func(o *options) {
		if enc != nil {
			o.encoder = enc
		}
	}
}

// WithLogger sets the logger used for sweep and lifecycle debug output.
// Without it the store stays silent.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

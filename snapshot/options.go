package snapshot

import "github.com/hupe1980/cellheap/resource"

type options struct {
	compression Compression
	controller  *resource.Controller
}

// Option configures Write and Read.
type Option func(*options)

// WithCompression sets the body compression used by Write. Read ignores it;
// the image header records what was used.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithController throttles image IO through the controller's IO limit.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

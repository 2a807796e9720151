package gfx

// Option configures a Device during creation.
//
// Example:
//
//	dev, err := gfx.NewDevice(adapter,
//	    gfx.WithMaxTextureStages(4),
//	    gfx.WithStateCacheSize(512),
//	)
type Option func(*options)

// options holds optional configuration for Device creation.
type options struct {
	maxTextureStages int
	strictHandles    bool
	stateCacheSize   int
}

// DefaultStateCacheSize is the default capacity of backend state-object
// caches.
const DefaultStateCacheSize = 256

// defaultOptions returns the default device options.
func defaultOptions() options {
	return options{
		maxTextureStages: MaxTextureStages,
		strictHandles:    true,
		stateCacheSize:   DefaultStateCacheSize,
	}
}

// WithMaxTextureStages limits the texture stages the device applies. The
// effective limit is also bounded by MaxTextureStages and the adapter's
// capabilities. Values below 1 are ignored.
func WithMaxTextureStages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTextureStages = n
		}
	}
}

// WithStrictHandles controls whether Bind validates every handle in the
// context before issuing any native call. With strict validation off, an
// invalid handle is detected only when its group is applied, after earlier
// groups have already been applied.
func WithStrictHandles(strict bool) Option {
	return func(o *options) {
		o.strictHandles = strict
	}
}

// WithStateCacheSize sets the capacity of backend state-object caches when
// the device is created with Open. Values below 1 are ignored.
func WithStateCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.stateCacheSize = n
		}
	}
}

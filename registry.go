package gfx

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
)

// Backend names.
const (
	BackendUnified = "unified"
	BackendARB     = "arb"
	BackendFixed   = "fixed"
)

// Backend opens Adapters for one native graphics API. Backend packages
// register themselves from init.
type Backend interface {
	// Name returns the backend name.
	Name() string

	// Open creates an Adapter over native, a backend-specific handle to an
	// already created native device (for example *unified.Config).
	Open(native any, o OpenOptions) (Adapter, error)
}

// OpenOptions are the device options relevant to backends.
type OpenOptions struct {
	// StateCacheSize bounds the number of cached native state objects.
	StateCacheSize int
}

// registry holds registered backends. When several are linked in, the
// unified backend is preferred.
var registry = gpucontext.NewRegistry[Backend](
	gpucontext.WithPriority(BackendUnified, BackendARB, BackendFixed),
)

// RegisterBackend registers a backend factory under name.
// This is typically called from init() functions in backend packages.
// A backend with the same name is replaced.
func RegisterBackend(name string, factory func() Backend) {
	registry.Register(name, factory)
	propagateLogger(factory(), Logger())
}

// UnregisterBackend removes a backend. This is useful for testing.
func UnregisterBackend(name string) {
	registry.Unregister(name)
}

// Backends returns the names of the registered backends.
func Backends() []string {
	return registry.Available()
}

// DefaultBackend returns the name of the preferred registered backend, or
// "" when none is registered.
func DefaultBackend() string {
	return registry.BestName()
}

// Open creates a Device on the named backend. An empty name selects
// DefaultBackend.
func Open(name string, native any, opts ...Option) (*Device, error) {
	if name == "" {
		name = registry.BestName()
	}
	if !registry.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a, err := registry.Get(name).Open(native, OpenOptions{StateCacheSize: o.stateCacheSize})
	if err != nil {
		return nil, fmt.Errorf("gfx: open %s: %w", name, err)
	}
	Logger().Info("gfx: backend opened", slog.String("backend", name))
	return NewDevice(a, opts...)
}

package gfx

import "errors"

// Errors returned by Device and the backends. Adapters wrap native failures
// so callers can classify them with errors.Is.
var (
	// ErrInvalidHandle is returned when a context or call references a
	// resource that was destroyed or never created.
	ErrInvalidHandle = errors.New("gfx: invalid handle")

	// ErrCapabilityUnsupported is returned when a backend cannot build a
	// resource at all on the active device. State values without a native
	// equivalent never produce it; they fall back instead.
	ErrCapabilityUnsupported = errors.New("gfx: capability unsupported")

	// ErrNativeCall wraps failures reported by the native graphics API.
	ErrNativeCall = errors.New("gfx: native call failed")

	// ErrDeviceLost is returned while the device is recovering, and is
	// wrapped by adapters when the native device reports loss.
	ErrDeviceLost = errors.New("gfx: device lost")

	// ErrIllegalState is returned when a state value is outside the legal
	// set of its slot.
	ErrIllegalState = errors.New("gfx: illegal state value")

	// ErrInvalidContext is returned for structurally invalid contexts, such
	// as too many color targets.
	ErrInvalidContext = errors.New("gfx: invalid context")

	// ErrNilAdapter is returned by NewDevice when no adapter is given.
	ErrNilAdapter = errors.New("gfx: nil adapter")

	// ErrBackendNotAvailable is returned by Open for unregistered backends.
	ErrBackendNotAvailable = errors.New("gfx: backend not available")

	// ErrNotRecovering is returned by Recover when no recovery is pending.
	ErrNotRecovering = errors.New("gfx: device is not recovering")
)

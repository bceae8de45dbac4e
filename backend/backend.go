package backend

import (
	"errors"

	"github.com/lumenforge/salon/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// DeviceBackend is the interface for gpucore.Device providers. Backends
// must be registered via Register() and are selected via Get() or
// Default().
type DeviceBackend interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init initializes the backend. Must be called before Device.
	Init() error

	// Close releases all backend resources. The backend must not be used
	// after Close is called.
	Close()

	// Device returns the gpucore.Device this backend provides. Valid only
	// after a successful Init.
	Device() gpucore.Device
}

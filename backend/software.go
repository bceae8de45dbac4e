package backend

import (
	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/internal/gpu"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU-executed device backend. It is
	// always available (no adapter negotiation, no driver), which makes it
	// the default and the backend this module's own tests run against.
	BackendSoftware = "software"
)

// SoftwareBackend backs gpucore.Device with internal/gpu's in-process
// software device.
type SoftwareBackend struct {
	device *gpu.Device
}

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() DeviceBackend {
		return &SoftwareBackend{}
	})
}

// NewSoftwareBackend creates a new software device backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init initializes the backend.
func (b *SoftwareBackend) Init() error {
	b.device = gpu.New()
	return nil
}

// Close releases all backend resources.
func (b *SoftwareBackend) Close() {
	b.device = nil
}

// Device returns the gpucore.Device this backend provides. Valid only
// after a successful Init.
func (b *SoftwareBackend) Device() gpucore.Device {
	if b.device == nil {
		return nil
	}
	return b.device
}

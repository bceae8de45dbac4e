package backend

import (
	"testing"

	"github.com/lumenforge/salon/gpucore"
)

func TestSoftwareBackendName(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want %q", b.Name(), "software")
	}
}

func TestSoftwareBackendInit(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer b.Close()

	if b.Device() == nil {
		t.Error("Device() returned nil after Init()")
	}
}

func TestSoftwareBackendDeviceUsable(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer b.Close()

	dev := b.Device()
	id, err := dev.CreateBuffer(gpucore.BufferDesc{Size: 16, Usage: gpucore.BufferUsageStorage})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := dev.WriteBuffer(id, 0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
}

func TestSoftwareBackendDeviceNilBeforeInit(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Device() != nil {
		t.Error("Device() should be nil before Init()")
	}
}

func TestSoftwareBackendClose(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	b.Close()

	if b.Device() != nil {
		t.Error("Device() should be nil after Close()")
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	// Software backend is auto-registered via init()
	if !IsRegistered("software") {
		t.Error("software backend should be auto-registered")
	}

	b := Get("software")
	if b == nil {
		t.Fatal("Get(software) returned nil")
	}
	if b.Name() != "software" {
		t.Errorf("Get(software).Name() = %q, want %q", b.Name(), "software")
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	b := Get("nonexistent")
	if b != nil {
		t.Error("Get(nonexistent) should return nil")
	}
}

func TestRegistryAvailable(t *testing.T) {
	available := Available()
	found := false
	for _, name := range available {
		if name == "software" {
			found = true
			break
		}
	}
	if !found {
		t.Error("Available() should include 'software'")
	}
}

func TestRegistryDefault(t *testing.T) {
	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != "software" {
		t.Errorf("Default() = %q, want %q (no other backend registered)", b.Name(), "software")
	}
}

func TestRegistryMustDefault(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustDefault() panicked: %v", r)
		}
	}()
	b := MustDefault()
	if b == nil {
		t.Error("MustDefault() returned nil")
	}
}

func TestRegistryInitDefault(t *testing.T) {
	b, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	if b == nil {
		t.Fatal("InitDefault() returned nil backend")
	}
	defer b.Close()

	if b.Device() == nil {
		t.Error("backend from InitDefault() should have a usable Device")
	}
}

func TestRegistryUnregister(t *testing.T) {
	testFactory := func() DeviceBackend {
		return &SoftwareBackend{}
	}
	Register("test-backend", testFactory)

	if !IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	Unregister("test-backend")

	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryIsRegistered(t *testing.T) {
	if !IsRegistered("software") {
		t.Error("software should be registered")
	}
	if IsRegistered("nonexistent") {
		t.Error("nonexistent should not be registered")
	}
}

func BenchmarkSoftwareBackendInit(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend := NewSoftwareBackend()
		_ = backend.Init()
		backend.Close()
	}
}

func BenchmarkSoftwareBackendCreateBuffer(b *testing.B) {
	backend := NewSoftwareBackend()
	_ = backend.Init()
	defer backend.Close()
	dev := backend.Device()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = dev.CreateBuffer(gpucore.BufferDesc{Size: 1024, Usage: gpucore.BufferUsageStorage})
	}
}

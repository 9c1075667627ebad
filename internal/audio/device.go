package audio

import (
	"sync"

	"github.com/spec-kit/care-session/pkg/util"
)

// DeviceGate enforces exclusive ownership of the capture device: at most
// one active session holds the microphone, and acquiring a held gate fails
// fast instead of silently stealing the device.
type DeviceGate struct {
	mu   sync.Mutex
	held bool
}

// NewDeviceGate creates a gate.
func NewDeviceGate() *DeviceGate {
	return &DeviceGate{}
}

// Acquire claims the device, or fails with DEVICE_BUSY.
func (g *DeviceGate) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return util.NewDeviceBusy()
	}
	g.held = true
	return nil
}

// Release returns the device. Releasing an unheld gate is a no-op, so the
// guaranteed-release-on-every-exit-path discipline cannot double-free.
func (g *DeviceGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}

// Held reports whether the device is currently claimed.
func (g *DeviceGate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}

// SPDX-License-Identifier: EPL-2.0

package device

import (
	"log/slog"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/log"
)

// ReadDevice is mixed synchronously by its caller instead of a backend.
// Reads and ChangeSpecs may run between Lock and Unlock; the goroutine
// holding the lock is taken to be the one reading.
type ReadDevice struct {
	*SoftwareDevice
}

// NewReadDevice returns a device rendering to specs. A nil logger uses the
// global one.
func NewReadDevice(specs audio.DeviceSpecs, logger *slog.Logger) *ReadDevice {
	if logger == nil {
		logger = log.L()
	}
	d := NewSoftwareDevice(specs, nil, logger.With("backend", "read"))
	d.pulled = true
	return &ReadDevice{SoftwareDevice: d}
}

// Read mixes frames frames into dst in the device format. It reports
// whether any voice was playing when the cycle started.
func (r *ReadDevice) Read(dst []byte, frames int) bool {
	playing := r.Playing()
	r.Mix(dst, frames)
	return playing
}

// ReadFloat is Read for float32 output.
func (r *ReadDevice) ReadFloat(dst []float32, frames int) bool {
	playing := r.Playing()
	r.MixFloat(dst, frames)
	return playing
}

// ChangeSpecs changes the rate and channel count of the output.
func (r *ReadDevice) ChangeSpecs(specs audio.Specs) {
	r.SetSpecs(specs)
}

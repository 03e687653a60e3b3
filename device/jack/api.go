// SPDX-License-Identifier: EPL-2.0

package jack

// api is the part of libjack the backend calls.
type api interface {
	ClientOpen(name string) (uintptr, error)
	ClientClose(client uintptr)
	SampleRate(client uintptr) int
	BufferSize(client uintptr) int
	RegisterOutput(client uintptr, name string) (uintptr, error)
	PortName(port uintptr) string
	PortBuffer(port uintptr, frames int) []float32
	// SetProcessCallback installs fn, called from the server thread with
	// the frames of each cycle.
	SetProcessCallback(client uintptr, fn func(frames int)) error
	OnShutdown(client uintptr, fn func())
	Activate(client uintptr) error
	Deactivate(client uintptr)
	PlaybackPorts(client uintptr) []string
	Connect(client uintptr, src, dst string) error
}

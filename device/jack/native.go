// SPDX-License-Identifier: EPL-2.0

//go:build darwin || freebsd || linux || netbsd

package jack

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	jackNoStartServer = 0x01
	jackPortIsInput   = 0x1
	jackPortIsOutput  = 0x2
	jackPortIsPhys    = 0x4
	jackAudioType     = "32 bit float mono audio"
)

func defaultLibrary() string {
	if runtime.GOOS == "darwin" {
		return "libjack.0.dylib"
	}
	return "libjack.so.0"
}

// native calls libjack through purego.
type native struct {
	jackClientOpen         func(name string, options int32, status *int32) uintptr
	jackClientClose        func(client uintptr) int32
	jackGetSampleRate      func(client uintptr) uint32
	jackGetBufferSize      func(client uintptr) uint32
	jackPortRegister       func(client uintptr, name, portType string, flags, bufferSize uint) uintptr
	jackPortName           func(port uintptr) string
	jackPortGetBuffer      func(port uintptr, frames uint32) unsafe.Pointer
	jackSetProcessCallback func(client, callback, arg uintptr) int32
	jackOnShutdown         func(client, callback, arg uintptr)
	jackActivate           func(client uintptr) int32
	jackDeactivate         func(client uintptr) int32
	jackGetPorts           func(client uintptr, namePattern, typePattern string, flags uint) unsafe.Pointer
	jackConnect            func(client uintptr, src, dst string) int32
	jackFree               func(ptr unsafe.Pointer)
}

func loadNative(library string) (n *native, err error) {
	if library == "" {
		library = defaultLibrary()
	}
	lib, err := purego.Dlopen(library, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", library, err)
	}

	// RegisterLibFunc panics on missing symbols
	defer func() {
		if r := recover(); r != nil {
			n, err = nil, fmt.Errorf("binding %s: %v", library, r)
		}
	}()

	n = &native{}
	syms := map[string]any{
		"jack_client_open":          &n.jackClientOpen,
		"jack_client_close":         &n.jackClientClose,
		"jack_get_sample_rate":      &n.jackGetSampleRate,
		"jack_get_buffer_size":      &n.jackGetBufferSize,
		"jack_port_register":        &n.jackPortRegister,
		"jack_port_name":            &n.jackPortName,
		"jack_port_get_buffer":      &n.jackPortGetBuffer,
		"jack_set_process_callback": &n.jackSetProcessCallback,
		"jack_on_shutdown":          &n.jackOnShutdown,
		"jack_activate":             &n.jackActivate,
		"jack_deactivate":           &n.jackDeactivate,
		"jack_get_ports":            &n.jackGetPorts,
		"jack_connect":              &n.jackConnect,
		"jack_free":                 &n.jackFree,
	}
	for name, fn := range syms {
		purego.RegisterLibFunc(fn, lib, name)
	}
	return n, nil
}

func (n *native) ClientOpen(name string) (uintptr, error) {
	var status int32
	client := n.jackClientOpen(name, jackNoStartServer, &status)
	if client == 0 {
		return 0, fmt.Errorf("jack status 0x%x", status)
	}
	return client, nil
}

func (n *native) ClientClose(client uintptr)    { n.jackClientClose(client) }
func (n *native) SampleRate(client uintptr) int { return int(n.jackGetSampleRate(client)) }
func (n *native) BufferSize(client uintptr) int { return int(n.jackGetBufferSize(client)) }
func (n *native) PortName(port uintptr) string  { return n.jackPortName(port) }
func (n *native) Deactivate(client uintptr)     { n.jackDeactivate(client) }

func (n *native) RegisterOutput(client uintptr, name string) (uintptr, error) {
	port := n.jackPortRegister(client, name, jackAudioType, jackPortIsOutput, 0)
	if port == 0 {
		return 0, fmt.Errorf("port %q not registered", name)
	}
	return port, nil
}

func (n *native) PortBuffer(port uintptr, frames int) []float32 {
	p := n.jackPortGetBuffer(port, uint32(frames))
	return unsafe.Slice((*float32)(p), frames)
}

// SetProcessCallback registers fn through a purego callback. Callbacks are
// never freed, so a process creates a bounded number of clients.
func (n *native) SetProcessCallback(client uintptr, fn func(frames int)) error {
	cb := purego.NewCallback(func(frames, _ uintptr) uintptr {
		fn(int(uint32(frames)))
		return 0
	})
	if rc := n.jackSetProcessCallback(client, cb, 0); rc != 0 {
		return fmt.Errorf("jack error %d", rc)
	}
	return nil
}

func (n *native) OnShutdown(client uintptr, fn func()) {
	cb := purego.NewCallback(func(uintptr) uintptr {
		fn()
		return 0
	})
	n.jackOnShutdown(client, cb, 0)
}

func (n *native) Activate(client uintptr) error {
	if rc := n.jackActivate(client); rc != 0 {
		return fmt.Errorf("jack error %d", rc)
	}
	return nil
}

// PlaybackPorts lists the physical input ports, which play what they
// receive.
func (n *native) PlaybackPorts(client uintptr) []string {
	list := n.jackGetPorts(client, "", jackAudioType, jackPortIsPhys|jackPortIsInput)
	if list == nil {
		return nil
	}
	defer n.jackFree(list)

	var ports []string
	for i := 0; ; i++ {
		p := *(**byte)(unsafe.Add(list, i*int(unsafe.Sizeof(uintptr(0)))))
		if p == nil {
			return ports
		}
		ports = append(ports, cString(p))
	}
}

func (n *native) Connect(client uintptr, src, dst string) error {
	if rc := n.jackConnect(client, src, dst); rc != 0 {
		return fmt.Errorf("jack error %d", rc)
	}
	return nil
}

func cString(p *byte) string {
	var b []byte
	for ptr := unsafe.Pointer(p); *(*byte)(ptr) != 0; ptr = unsafe.Add(ptr, 1) {
		b = append(b, *(*byte)(ptr))
	}
	return string(b)
}

// SPDX-License-Identifier: EPL-2.0

//go:build darwin || freebsd || linux || netbsd

package openal

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/ik5/audmix/vec"
)

func defaultLibrary() string {
	switch runtime.GOOS {
	case "darwin":
		return "/System/Library/Frameworks/OpenAL.framework/OpenAL"
	case "linux":
		return "libopenal.so.1"
	}
	return "libopenal.so"
}

// native calls the system OpenAL library through purego.
type native struct {
	alcOpenDevice         func(name *byte) uintptr
	alcCreateContext      func(device uintptr, attrs *int32) uintptr
	alcMakeContextCurrent func(ctx uintptr) uint8
	alcSuspendContext     func(ctx uintptr)
	alcProcessContext     func(ctx uintptr)
	alcDestroyContext     func(ctx uintptr)
	alcCloseDevice        func(device uintptr) uint8
	alcGetError           func(device uintptr) int32

	alGetError             func() int32
	alGenBuffers           func(n int32, buffers *uint32)
	alDeleteBuffers        func(n int32, buffers *uint32)
	alBufferData           func(buffer uint32, format int32, data unsafe.Pointer, size int32, freq int32)
	alGenSources           func(n int32, sources *uint32)
	alDeleteSources        func(n int32, sources *uint32)
	alSourceQueueBuffers   func(source uint32, n int32, buffers *uint32)
	alSourceUnqueueBuffers func(source uint32, n int32, buffers *uint32)
	alSourcePlay           func(source uint32)
	alSourcePause          func(source uint32)
	alSourceStop           func(source uint32)
	alGetSourcei           func(source uint32, param int32, value *int32)
	alSourcei              func(source uint32, param int32, value int32)
	alSourcef              func(source uint32, param int32, value float32)
	alSource3f             func(source uint32, param int32, x, y, z float32)
	alListenerf            func(param int32, value float32)
	alListener3f           func(param int32, x, y, z float32)
	alListenerfv           func(param int32, values *float32)
	alSpeedOfSound         func(value float32)
	alDopplerFactor        func(value float32)
	alDistanceModel        func(model int32)
}

// loadNative opens the OpenAL library and resolves every entry point.
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
		"alcOpenDevice":          &n.alcOpenDevice,
		"alcCreateContext":       &n.alcCreateContext,
		"alcMakeContextCurrent":  &n.alcMakeContextCurrent,
		"alcSuspendContext":      &n.alcSuspendContext,
		"alcProcessContext":      &n.alcProcessContext,
		"alcDestroyContext":      &n.alcDestroyContext,
		"alcCloseDevice":         &n.alcCloseDevice,
		"alcGetError":            &n.alcGetError,
		"alGetError":             &n.alGetError,
		"alGenBuffers":           &n.alGenBuffers,
		"alDeleteBuffers":        &n.alDeleteBuffers,
		"alBufferData":           &n.alBufferData,
		"alGenSources":           &n.alGenSources,
		"alDeleteSources":        &n.alDeleteSources,
		"alSourceQueueBuffers":   &n.alSourceQueueBuffers,
		"alSourceUnqueueBuffers": &n.alSourceUnqueueBuffers,
		"alSourcePlay":           &n.alSourcePlay,
		"alSourcePause":          &n.alSourcePause,
		"alSourceStop":           &n.alSourceStop,
		"alGetSourcei":           &n.alGetSourcei,
		"alSourcei":              &n.alSourcei,
		"alSourcef":              &n.alSourcef,
		"alSource3f":             &n.alSource3f,
		"alListenerf":            &n.alListenerf,
		"alListener3f":           &n.alListener3f,
		"alListenerfv":           &n.alListenerfv,
		"alSpeedOfSound":         &n.alSpeedOfSound,
		"alDopplerFactor":        &n.alDopplerFactor,
		"alDistanceModel":        &n.alDistanceModel,
	}
	for name, fn := range syms {
		purego.RegisterLibFunc(fn, lib, name)
	}
	return n, nil
}

// check returns the pending AL error, if any.
func (n *native) check(call string) error {
	if code := n.alGetError(); code != alNoError {
		return fmt.Errorf("%s: al error 0x%x", call, code)
	}
	return nil
}

func (n *native) OpenDevice(name string) (uintptr, error) {
	var cname *byte
	if name != "" {
		b := append([]byte(name), 0)
		cname = &b[0]
	}
	dev := n.alcOpenDevice(cname)
	if dev == 0 {
		return 0, fmt.Errorf("alcOpenDevice %q failed", name)
	}
	return dev, nil
}

func (n *native) CreateContext(device uintptr, rate int) (uintptr, error) {
	attrs := []int32{alcFrequency, int32(rate), 0}
	ctx := n.alcCreateContext(device, &attrs[0])
	if ctx == 0 {
		return 0, fmt.Errorf("alcCreateContext: alc error 0x%x", n.alcGetError(device))
	}
	return ctx, nil
}

func (n *native) MakeContextCurrent(ctx uintptr) error {
	if n.alcMakeContextCurrent(ctx) != alcTrue {
		return fmt.Errorf("alcMakeContextCurrent failed")
	}
	return nil
}

func (n *native) SuspendContext(ctx uintptr) { n.alcSuspendContext(ctx) }
func (n *native) ProcessContext(ctx uintptr) { n.alcProcessContext(ctx) }
func (n *native) DestroyContext(ctx uintptr) { n.alcDestroyContext(ctx) }
func (n *native) CloseDevice(device uintptr) { n.alcCloseDevice(device) }

func (n *native) GenBuffers(count int) ([]uint32, error) {
	n.alGetError()
	buffers := make([]uint32, count)
	n.alGenBuffers(int32(count), &buffers[0])
	if err := n.check("alGenBuffers"); err != nil {
		return nil, err
	}
	return buffers, nil
}

func (n *native) DeleteBuffers(buffers []uint32) {
	if len(buffers) > 0 {
		n.alDeleteBuffers(int32(len(buffers)), &buffers[0])
	}
}

func (n *native) BufferData(buffer uint32, format int32, data []byte, rate int) error {
	n.alGetError()
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	n.alBufferData(buffer, format, p, int32(len(data)), int32(rate))
	runtime.KeepAlive(data)
	return n.check("alBufferData")
}

func (n *native) GenSource() (uint32, error) {
	n.alGetError()
	var source uint32
	n.alGenSources(1, &source)
	if err := n.check("alGenSources"); err != nil {
		return 0, err
	}
	return source, nil
}

func (n *native) DeleteSource(source uint32) { n.alDeleteSources(1, &source) }

func (n *native) QueueBuffers(source uint32, buffers []uint32) error {
	if len(buffers) == 0 {
		return nil
	}
	n.alGetError()
	n.alSourceQueueBuffers(source, int32(len(buffers)), &buffers[0])
	return n.check("alSourceQueueBuffers")
}

func (n *native) UnqueueBuffers(source uint32, count int) ([]uint32, error) {
	if count <= 0 {
		return nil, nil
	}
	n.alGetError()
	buffers := make([]uint32, count)
	n.alSourceUnqueueBuffers(source, int32(count), &buffers[0])
	if err := n.check("alSourceUnqueueBuffers"); err != nil {
		return nil, err
	}
	return buffers, nil
}

func (n *native) SourcePlay(source uint32)  { n.alSourcePlay(source) }
func (n *native) SourcePause(source uint32) { n.alSourcePause(source) }
func (n *native) SourceStop(source uint32)  { n.alSourceStop(source) }

func (n *native) GetSourcei(source uint32, param int32) int32 {
	var v int32
	n.alGetSourcei(source, param, &v)
	return v
}

func (n *native) Sourcei(source uint32, param int32, v int32)   { n.alSourcei(source, param, v) }
func (n *native) Sourcef(source uint32, param int32, v float32) { n.alSourcef(source, param, v) }

func (n *native) Source3f(source uint32, param int32, v vec.Vec3) {
	n.alSource3f(source, param, v.X, v.Y, v.Z)
}

func (n *native) Listenerf(param int32, v float32) { n.alListenerf(param, v) }

func (n *native) Listener3f(param int32, v vec.Vec3) { n.alListener3f(param, v.X, v.Y, v.Z) }

func (n *native) Listenerfv(param int32, v []float32) {
	if len(v) > 0 {
		n.alListenerfv(param, &v[0])
	}
}

func (n *native) SpeedOfSound(v float32)    { n.alSpeedOfSound(v) }
func (n *native) DopplerFactor(v float32)   { n.alDopplerFactor(v) }
func (n *native) DistanceModel(model int32) { n.alDistanceModel(model) }

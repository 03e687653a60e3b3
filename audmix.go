// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/device/jack"
	"github.com/ik5/audmix/device/openal"
	"github.com/ik5/audmix/device/oto"
	"github.com/ik5/audmix/device/sdl"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
)

var (
	backends = defaultBackends()
	decoders = defaultDecoders()
)

func defaultBackends() *device.Registry {
	reg := device.NewRegistry()
	reg.Register("Null", device.OpenNull)
	reg.Register("OpenAL", openal.Open)
	reg.Register("JACK", jack.Open)
	reg.Register("SDL", sdl.Open)
	reg.Register("Oto", oto.Open)
	return reg
}

func defaultDecoders() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	return reg
}

// Open opens the backend registered as key, matched case insensitively.
// On failure the device is nil and the error is an *audio.Error.
func Open(key string, opts ...device.Option) (device.Device, error) {
	return backends.Open(key, opts...)
}

// Backends returns the backend names in registration order.
func Backends() []string {
	return backends.Names()
}

// RegisterBackend adds or replaces a backend available to Open.
func RegisterBackend(name string, open device.OpenFunc) {
	backends.Register(name, open)
}

// Decoders returns the shared decoder registry used by OpenFile.
func Decoders() *audio.Registry {
	return decoders
}

// OpenFile reads path and returns a factory decoding it with the decoder
// registered for its extension.
func OpenFile(path string) (*audio.FileFactory, error) {
	return audio.OpenFile(path, decoders)
}

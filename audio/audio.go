// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"sync"
)

// SampleFormat is the native sample encoding of a device.
type SampleFormat int

const (
	FormatInvalid SampleFormat = iota
	FormatU8
	FormatS16
	FormatS24
	FormatS32
	FormatFloat32
	FormatFloat64
)

// Width returns the size of one sample in bytes, 0 for an invalid format.
func (f SampleFormat) Width() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS24:
		return 3
	case FormatS32, FormatFloat32:
		return 4
	case FormatFloat64:
		return 8
	}
	return 0
}

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS24:
		return "s24"
	case FormatS32:
		return "s32"
	case FormatFloat32:
		return "f32"
	case FormatFloat64:
		return "f64"
	}
	return "invalid"
}

// ParseSampleFormat maps the names returned by SampleFormat.String back to
// their format.
func ParseSampleFormat(s string) (SampleFormat, error) {
	for f := FormatU8; f <= FormatFloat64; f++ {
		if f.String() == s {
			return f, nil
		}
	}
	return FormatInvalid, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Specs describe a stream of interleaved float32 samples.
type Specs struct {
	Rate     float64
	Channels int
}

// Valid reports whether the specs describe a playable stream.
func (s Specs) Valid() bool {
	return s.Rate > 0 && s.Channels > 0
}

// DeviceSpecs add the native sample format to the stream specs.
type DeviceSpecs struct {
	Specs
	Format SampleFormat
}

// SampleSize is the size of one frame in bytes.
func (s DeviceSpecs) SampleSize() int {
	return s.Format.Width() * s.Channels
}

// Reader is a stateful pull source of interleaved float32 samples.
type Reader interface {
	Specs() Specs
	// Seekable reports whether Seek can reposition the stream.
	Seekable() bool
	// Seek moves to frame, counted from the start of the stream.
	Seek(frame int) error
	// Length in frames, negative when unknown or infinite.
	Length() int
	// Position in frames.
	Position() int
	// ReadSamples fills dst with interleaved samples and returns the number of
	// float32 values written. io.EOF marks the genuine end of the stream and
	// may be returned together with the last samples.
	ReadSamples(dst []float32) (n int, err error)
	Close() error
}

// Factory creates independent readers over the same sound.
type Factory interface {
	CreateReader() (Reader, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func() (Reader, error)

func (f FactoryFunc) CreateReader() (Reader, error) { return f() }

// Source is what decoders produce: a forward only stream.
type Source interface {
	Specs() Specs
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)
	// Close releases any resources.
	Close() error
}

// LengthHinter is implemented by sources that know their length in frames.
type LengthHinter interface {
	Frames() int
}

// FrameSeeker is implemented by sources that can seek natively.
type FrameSeeker interface {
	SeekFrame(frame int) error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered format keys.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	return keys
}

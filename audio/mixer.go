// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"encoding/binary"
	"math"

	"github.com/ik5/audmix/utils"
)

// Mixer sums voice buffers into one float buffer and converts the result to
// a device sample format. It is not safe for concurrent use.
type Mixer struct {
	specs  DeviceSpecs
	buf    []float32
	frames int
}

func NewMixer(specs DeviceSpecs) *Mixer {
	return &Mixer{specs: specs}
}

func (m *Mixer) Specs() DeviceSpecs { return m.specs }

func (m *Mixer) SetSpecs(specs DeviceSpecs) {
	m.specs = specs
	m.frames = 0
}

// Clear resets the mix buffer to frames frames of silence.
func (m *Mixer) Clear(frames int) {
	n := frames * m.specs.Channels
	if cap(m.buf) < n {
		m.buf = make([]float32, n)
	}
	m.buf = m.buf[:n]
	clear(m.buf)
	m.frames = frames
}

// Mix adds frames frames of src, scaled by volume, starting at frame start
// of the mix buffer. Frames beyond the cleared length are ignored.
func (m *Mixer) Mix(src []float32, start, frames int, volume float32) {
	ch := m.specs.Channels
	frames = min(frames, m.frames-start, len(src)/ch)
	if frames <= 0 {
		return
	}

	out := m.buf[start*ch : (start+frames)*ch]
	for i := range out {
		out[i] += src[i] * volume
	}
}

// Frames is the current length of the mix buffer.
func (m *Mixer) Frames() int { return m.frames }

// ReadFloat32 copies the mix scaled by volume into dst and returns the
// number of samples written.
func (m *Mixer) ReadFloat32(dst []float32, volume float32) int {
	n := min(len(dst), len(m.buf))
	for i := range n {
		dst[i] = m.buf[i] * volume
	}
	return n
}

// Read converts the mix scaled by volume to the native little endian sample
// format and returns the number of bytes written.
func (m *Mixer) Read(dst []byte, volume float32) int {
	width := m.specs.Format.Width()
	if width == 0 {
		return 0
	}
	n := min(len(dst)/width, len(m.buf))

	switch m.specs.Format {
	case FormatU8:
		for i := range n {
			dst[i] = utils.Float32ToUint8(m.buf[i] * volume)
		}
	case FormatS16:
		for i := range n {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(utils.Float32ToInt16(m.buf[i]*volume)))
		}
	case FormatS24:
		for i := range n {
			v := utils.Float32ToInt24(m.buf[i] * volume)
			dst[i*3] = byte(v)
			dst[i*3+1] = byte(v >> 8)
			dst[i*3+2] = byte(v >> 16)
		}
	case FormatS32:
		for i := range n {
			binary.LittleEndian.PutUint32(dst[i*4:], uint32(utils.Float32ToInt32(m.buf[i]*volume)))
		}
	case FormatFloat32:
		for i := range n {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(m.buf[i]*volume))
		}
	case FormatFloat64:
		for i := range n {
			binary.LittleEndian.PutUint64(dst[i*8:], math.Float64bits(float64(m.buf[i]*volume)))
		}
	}
	return n * width
}

// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// lfe marks the low frequency channel in a layout.
const lfe = float32(math.MaxFloat32)

const deg = math32.Pi / 180

// layouts holds the speaker angles in radians per channel count, negative
// to the left, 0 in front.
var layouts = map[int][]float32{
	1: {0},
	2: {-90 * deg, 90 * deg},
	4: {-45 * deg, 45 * deg, -135 * deg, 135 * deg},
	6: {-30 * deg, 30 * deg, 0, lfe, -110 * deg, 110 * deg},
	8: {-30 * deg, 30 * deg, 0, lfe, -110 * deg, 110 * deg, -150 * deg, 150 * deg},
}

// ChannelMapper remaps the channels of a reader to another layout. Mono
// sources are panned by angle with constant power weights, and any layout
// is down mixed to mono by averaging.
type ChannelMapper struct {
	src       Reader
	channels  int
	monoAngle float32
	matrix    [][]float32 // [target][source]
	identity  bool
	tmp       []float32
}

func NewChannelMapper(src Reader, channels int) *ChannelMapper {
	m := &ChannelMapper{src: src, channels: channels}
	m.calculate()
	return m
}

// SetMonoAngle pans a mono source; angle is in radians, 0 in front,
// negative to the left. It has no effect on other sources.
func (m *ChannelMapper) SetMonoAngle(angle float32) {
	if m.src.Specs().Channels != 1 {
		return
	}
	if math32.IsNaN(angle) {
		angle = 0
	}
	if angle != m.monoAngle {
		m.monoAngle = angle
		m.calculate()
	}
}

func (m *ChannelMapper) MonoAngle() float32 { return m.monoAngle }

// SetChannels changes the output layout.
func (m *ChannelMapper) SetChannels(channels int) {
	if channels > 0 && channels != m.channels {
		m.channels = channels
		m.calculate()
	}
}

func (m *ChannelMapper) calculate() {
	in := m.src.Specs().Channels
	out := m.channels

	m.matrix = make([][]float32, out)
	for i := range m.matrix {
		m.matrix[i] = make([]float32, in)
	}

	m.identity = in == out

	switch {
	case m.identity:
		for i := range out {
			m.matrix[i][i] = 1
		}
	case out == 1:
		w := 1 / float32(in)
		for c := range in {
			m.matrix[0][c] = w
		}
	default:
		m.pan(in, out)
	}
}

// pan spreads every source channel over the two closest target speakers.
func (m *ChannelMapper) pan(in, out int) {
	srcAngles := layouts[in]
	dstAngles := layouts[out]
	if srcAngles == nil || dstAngles == nil {
		// unknown layouts: channel i goes to i modulo the target count
		for c := range in {
			m.matrix[c%out][c] += 1
		}
		return
	}

	for c := range in {
		angle := srcAngles[c]
		if in == 1 {
			angle = m.monoAngle
		}

		if angle == lfe {
			for t, a := range dstAngles {
				if a == lfe {
					m.matrix[t][c] = 1
				}
			}
			continue
		}

		left, right := -1, -1
		var leftDist, rightDist float32 = 2 * math32.Pi, 2 * math32.Pi
		for t, a := range dstAngles {
			if a == lfe {
				continue
			}
			d := wrapAngle(a - angle)
			if d < 0 {
				if -d < leftDist {
					left, leftDist = t, -d
				}
			} else if d < rightDist {
				right, rightDist = t, d
			}
		}

		switch {
		case left < 0:
			m.matrix[right][c] = 1
		case right < 0:
			m.matrix[left][c] = 1
		default:
			t := leftDist / (leftDist + rightDist)
			m.matrix[left][c] += math32.Cos(t * math32.Pi / 2)
			m.matrix[right][c] += math32.Sin(t * math32.Pi / 2)
		}
	}
}

// wrapAngle maps a into [-pi, pi).
func wrapAngle(a float32) float32 {
	for a >= math32.Pi {
		a -= 2 * math32.Pi
	}
	for a < -math32.Pi {
		a += 2 * math32.Pi
	}
	return a
}

func (m *ChannelMapper) Specs() Specs {
	s := m.src.Specs()
	s.Channels = m.channels
	return s
}

func (m *ChannelMapper) Seekable() bool       { return m.src.Seekable() }
func (m *ChannelMapper) Seek(frame int) error { return m.src.Seek(frame) }
func (m *ChannelMapper) Length() int          { return m.src.Length() }
func (m *ChannelMapper) Position() int        { return m.src.Position() }

func (m *ChannelMapper) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *ChannelMapper) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if m.identity {
		return m.src.ReadSamples(dst)
	}

	in := m.src.Specs().Channels
	frames := len(dst) / m.channels
	samplesNeeded := frames * in

	// Grow tmp buffer if needed (but don't shrink to avoid thrashing)
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, samplesNeeded)
	}
	tmp := m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(tmp)
	frames = n / in

	for f := range frames {
		src := tmp[f*in : (f+1)*in]
		out := dst[f*m.channels : (f+1)*m.channels]
		for t, row := range m.matrix {
			var sum float32
			for c, w := range row {
				sum += src[c] * w
			}
			out[t] = sum
		}
	}

	return frames * m.channels, err
}

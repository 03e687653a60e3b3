// SPDX-License-Identifier: EPL-2.0

package sequencer

import (
	"math"
	"slices"
	"sync"

	"github.com/ik5/audmix/utils"
	"github.com/ik5/audmix/vec"
)

// span is an inclusive range of frames that were never written.
type span struct {
	start, end int
}

// Property is a vector of Count floats that is either constant or sampled
// once per animation frame. Sampled curves are read with Catmull-Rom
// interpolation between frames.
//
// Frames that were never written hold the value of the closest written
// frame before them. Frame 0 of a curve starts out as the constant the
// property had before it became animated.
type Property struct {
	mu       sync.Mutex
	count    int
	animated bool
	// count floats per frame; one frame while constant
	data    []float32
	unknown []span
}

// NewProperty returns a constant property of count floats set to value.
// Missing values are zero.
func NewProperty(count int, value ...float32) *Property {
	count = max(count, 1)
	p := &Property{count: count, data: make([]float32, count)}
	copy(p.data, value)
	return p
}

// Count returns the number of floats per value.
func (p *Property) Count() int { return p.count }

// Animated reports whether the property holds a per-frame curve.
func (p *Property) Animated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.animated
}

// Frames returns the number of frames of the curve, 1 while constant.
func (p *Property) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.data) / p.count
}

// Write makes the property constant. Missing values are zero.
func (p *Property) Write(value ...float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.animated = false
	p.unknown = nil
	p.data = make([]float32, p.count)
	copy(p.data, value)
}

// WriteFrames stores len(data)/Count consecutive frames starting at frame
// position and turns the property into a curve.
func (p *Property) WriteFrames(position int, data []float32) {
	frames := len(data) / p.count
	if position < 0 || frames == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.animated {
		p.animated = true
		p.data = p.data[:p.count]
	}
	p.grow(position + frames)
	copy(p.data[position*p.count:], data[:frames*p.count])
	p.known(position, position+frames-1)
	p.hold()
}

// grow extends the curve to frames frames. New frames are unknown.
func (p *Property) grow(frames int) {
	have := len(p.data) / p.count
	if frames <= have {
		return
	}
	p.data = append(p.data, make([]float32, (frames-have)*p.count)...)

	if n := len(p.unknown); n > 0 && p.unknown[n-1].end == have-1 {
		p.unknown[n-1].end = frames - 1
		return
	}
	p.unknown = append(p.unknown, span{start: have, end: frames - 1})
}

// known removes the frames start..end from the unknown ranges.
func (p *Property) known(start, end int) {
	var out []span
	for _, s := range p.unknown {
		if s.end < start || s.start > end {
			out = append(out, s)
			continue
		}
		if s.start < start {
			out = append(out, span{start: s.start, end: start - 1})
		}
		if s.end > end {
			out = append(out, span{start: end + 1, end: s.end})
		}
	}
	p.unknown = out
}

// hold fills every unknown range with the frame right before it.
func (p *Property) hold() {
	for _, s := range p.unknown {
		// frame 0 is always known
		src := p.data[(s.start-1)*p.count : s.start*p.count]
		for f := s.start; f <= s.end; f++ {
			copy(p.data[f*p.count:], src)
		}
	}
}

// Read stores the value at frame position into out, which must hold Count
// floats. Positions outside the curve read its first or last frame.
func (p *Property) Read(position float32, out []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.count
	if !p.animated {
		copy(out, p.data[:c])
		return
	}

	last := len(p.data)/c - 1
	if position <= 0 || math.IsNaN(float64(position)) {
		copy(out, p.data[:c])
		return
	}
	if position >= float32(last) {
		copy(out, p.data[last*c:])
		return
	}

	i := int(position)
	t := position - float32(i)
	if t == 0 {
		copy(out, p.data[i*c:(i+1)*c])
		return
	}

	p0 := p.data[max(i-1, 0)*c:]
	p1 := p.data[i*c:]
	p2 := p.data[(i+1)*c:]
	p3 := p.data[min(i+2, last)*c:]
	for k := 0; k < c; k++ {
		out[k] = utils.CubicInterpolate(p0[k], p1[k], p2[k], p3[k], t)
	}
}

// Values returns a copy of the raw frames.
func (p *Property) Values() []float32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.data)
}

func (p *Property) scalar(position float32) float32 {
	var v [1]float32
	p.Read(position, v[:])
	return v[0]
}

func (p *Property) vec3(position float32) vec.Vec3 {
	var v [3]float32
	p.Read(position, v[:])
	return vec.FromArray(v[:])
}

func (p *Property) quat(position float32) vec.Quat {
	var v [4]float32
	p.Read(position, v[:])
	return vec.QuatFromArray(v[:])
}

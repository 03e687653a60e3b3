// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audmix/utils"
)

// Resampler streams from src to a target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
//
// The conversion ratio is taken from the source specs on every read, so a
// PitchReader in front of it can change pitch while playing. While the ratio
// is exactly 1 and no interpolation has started, samples pass through
// untouched.
type Resampler struct {
	src      Reader
	dstRate  float64
	channels int

	// Window of 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames [4][]float32
	real   [4]bool
	primed bool

	// Fractional position between frames[1] and frames[2]
	pos float64

	// Buffered source frames
	srcBuf []float32
	srcOff int
	srcLen int
	eof    bool

	// Simple low-pass filter state for anti-aliasing (when downsampling)
	filterState []float32
	filterAlpha float32

	position int
}

func NewResampler(src Reader, dstRate float64) *Resampler {
	channels := src.Specs().Channels

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		channels: channels,
		srcBuf:   make([]float32, 1024*channels),
		// Simple one-pole low-pass filter
		// This is a simplified filter - for production, use a proper FIR filter
		filterAlpha: 0.5,
		filterState: make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) Specs() Specs {
	return Specs{Rate: r.dstRate, Channels: r.channels}
}

// SetRate changes the output rate.
func (r *Resampler) SetRate(rate float64) {
	if rate > 0 {
		r.dstRate = rate
	}
}

// ratio is how many source frames make up one output frame.
func (r *Resampler) ratio() float64 {
	return r.src.Specs().Rate / r.dstRate
}

func (r *Resampler) Seekable() bool { return r.src.Seekable() }

func (r *Resampler) Seek(frame int) error {
	frame = max(frame, 0)
	if err := r.src.Seek(int(float64(frame) * r.ratio())); err != nil {
		return fmt.Errorf("%w", err)
	}
	r.reset(frame)
	return nil
}

// SeekSource moves to frame counted at the source rate, so no rounding
// through the current ratio is involved.
func (r *Resampler) SeekSource(frame int) error {
	frame = max(frame, 0)
	if err := r.src.Seek(frame); err != nil {
		return fmt.Errorf("%w", err)
	}
	r.reset(int(float64(frame) / r.ratio()))
	return nil
}

func (r *Resampler) reset(position int) {
	r.primed = false
	r.pos = 0
	r.srcOff, r.srcLen = 0, 0
	r.eof = false
	r.position = position
}

func (r *Resampler) Length() int {
	n := r.src.Length()
	if n < 0 {
		return -1
	}
	return int(float64(n) / r.ratio())
}

func (r *Resampler) Position() int { return r.position }

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// nextFrame copies the next source frame into dst.
func (r *Resampler) nextFrame(dst []float32, filter bool) (bool, error) {
	if r.srcOff >= r.srcLen {
		if r.eof {
			return false, nil
		}
		n, err := r.src.ReadSamples(r.srcBuf)
		r.srcOff, r.srcLen = 0, n-n%r.channels
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}
		if r.srcLen == 0 {
			if !r.eof {
				// a reader returning nothing without an error would spin forever
				return false, io.ErrNoProgress
			}
			return false, nil
		}
	}

	copy(dst, r.srcBuf[r.srcOff:r.srcOff+r.channels])
	r.srcOff += r.channels

	if filter {
		for c := range r.channels {
			// One-pole low-pass: y[n] = alpha * x[n] + (1-alpha) * y[n-1]
			dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
			r.filterState[c] = dst[c]
		}
	}
	return true, nil
}

// prime fills the window so that the first output frame is the first
// source frame.
func (r *Resampler) prime(filter bool) error {
	ok, err := r.nextFrame(r.frames[1], false)
	if err != nil {
		return err
	}
	r.primed = true
	r.pos = 0
	r.real = [4]bool{ok, ok, false, false}
	if !ok {
		return nil
	}
	copy(r.frames[0], r.frames[1])
	// Initialize filter state with first sample to avoid warm-up transients
	copy(r.filterState, r.frames[1])

	for i := 2; i < 4; i++ {
		ok, err := r.nextFrame(r.frames[i], filter)
		if err != nil {
			return err
		}
		if !ok {
			copy(r.frames[i], r.frames[i-1])
		}
		r.real[i] = ok
	}
	return nil
}

// shift drops the oldest frame and appends the next source frame.
func (r *Resampler) shift(filter bool) error {
	first := r.frames[0]
	copy(r.frames[:], r.frames[1:])
	copy(r.real[:], r.real[1:])
	r.frames[3] = first

	ok, err := r.nextFrame(r.frames[3], filter)
	if err != nil {
		return err
	}
	if !ok {
		copy(r.frames[3], r.frames[2])
	}
	r.real[3] = ok
	return nil
}

// ReadSamples produces dst samples at the output rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	ratio := r.ratio()
	if ratio == 1 && !r.primed {
		n, err := r.src.ReadSamples(dst)
		r.position += n / r.channels
		return n, err
	}

	filter := ratio > 1
	if !r.primed {
		if err := r.prime(filter); err != nil {
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.shift(filter); err != nil {
				r.position += written
				return written * r.channels, err
			}
		}

		if !r.real[1] {
			r.position += written
			return written * r.channels, io.EOF
		}

		alpha := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range r.channels {
			out[c] = utils.CubicInterpolate(r.frames[0][c], r.frames[1][c], r.frames[2][c], r.frames[3][c], alpha)
		}

		written++
		r.pos += ratio
	}

	r.position += written
	// report the end together with the last frame
	if r.eof && r.srcOff >= r.srcLen && !r.real[2] && r.pos >= 1.0 {
		return written * r.channels, io.EOF
	}
	return written * r.channels, nil
}

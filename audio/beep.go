// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
)

// StreamerReader reads a beep.Streamer as a Reader. It is seekable when
// the streamer is a beep.StreamSeeker.
type StreamerReader struct {
	s        beep.Streamer
	specs    Specs
	buf      [][2]float64
	position int
	done     bool
}

// NewStreamerReader wraps s, whose samples are produced at format's rate.
// beep streams are at most stereo; NumChannels picks mono or stereo output.
func NewStreamerReader(s beep.Streamer, format beep.Format) *StreamerReader {
	ch := format.NumChannels
	if ch < 1 || ch > 2 {
		ch = 2
	}
	return &StreamerReader{
		s:     s,
		specs: Specs{Rate: float64(format.SampleRate), Channels: ch},
		buf:   make([][2]float64, 512),
	}
}

func (r *StreamerReader) Specs() Specs { return r.specs }

func (r *StreamerReader) Seekable() bool {
	if e, ok := r.s.(*effected); ok {
		return e.src.r.Seekable()
	}
	_, ok := r.s.(beep.StreamSeeker)
	return ok
}

func (r *StreamerReader) Seek(frame int) error {
	ss, ok := r.s.(beep.StreamSeeker)
	if !ok || !r.Seekable() {
		return ErrNotSeekable
	}
	frame = max(frame, 0)
	if n := r.Length(); n >= 0 {
		frame = min(frame, n)
	}
	if err := ss.Seek(frame); err != nil {
		return fmt.Errorf("%w", err)
	}
	r.position = frame
	r.done = false
	return nil
}

func (r *StreamerReader) Length() int {
	if e, ok := r.s.(*effected); ok {
		return e.src.r.Length()
	}
	if ss, ok := r.s.(beep.StreamSeeker); ok {
		return ss.Len()
	}
	return -1
}

func (r *StreamerReader) Position() int { return r.position }

func (r *StreamerReader) Close() error {
	if c, ok := r.s.(beep.StreamCloser); ok {
		return c.Close()
	}
	return nil
}

func (r *StreamerReader) ReadSamples(dst []float32) (int, error) {
	ch := r.specs.Channels
	if len(dst)%ch != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.done {
		return 0, io.EOF
	}

	frames := len(dst) / ch
	written := 0
	for written < frames {
		chunk := r.buf[:min(len(r.buf), frames-written)]
		n, ok := r.s.Stream(chunk)
		for i := range n {
			out := dst[(written+i)*ch:]
			if ch == 1 {
				out[0] = float32((chunk[i][0] + chunk[i][1]) / 2)
			} else {
				out[0] = float32(chunk[i][0])
				out[1] = float32(chunk[i][1])
			}
		}
		written += n
		if !ok {
			r.done = true
			r.position += written
			if err := r.s.Err(); err != nil {
				return written * ch, fmt.Errorf("%w", err)
			}
			return written * ch, io.EOF
		}
	}

	r.position += written
	return written * ch, nil
}

// Streamer exposes a Reader as a stereo beep.StreamSeeker. Mono readers
// are duplicated to both channels; channels beyond the second are dropped.
type Streamer struct {
	r   Reader
	buf []float32
	err error
}

func NewStreamer(r Reader) *Streamer {
	return &Streamer{r: r}
}

// Format reports the beep format matching the reader.
func (s *Streamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.r.Specs().Rate),
		NumChannels: 2,
		Precision:   4,
	}
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}

	ch := s.r.Specs().Channels
	need := len(samples) * ch
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	buf := s.buf[:need]

	n, err := ReadFull(s.r, buf)
	frames := n / ch
	for i := range frames {
		f := buf[i*ch:]
		if ch == 1 {
			samples[i] = [2]float64{float64(f[0]), float64(f[0])}
		} else {
			samples[i] = [2]float64{float64(f[0]), float64(f[1])}
		}
	}

	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return frames, frames > 0
	}
	return frames, true
}

func (s *Streamer) Err() error { return s.err }

func (s *Streamer) Len() int {
	return max(s.r.Length(), 0)
}

func (s *Streamer) Position() int { return s.r.Position() }

func (s *Streamer) Seek(p int) error {
	s.err = nil
	return s.r.Seek(p)
}

// EffectFactory runs every reader of f through a beep effect chain built
// by effect. The effects must keep no state between samples, like
// effects.Volume or effects.Swap; seeking moves the source underneath
// them. Readers are mono for mono sources and stereo otherwise.
func EffectFactory(f Factory, effect func(beep.Streamer) beep.Streamer) Factory {
	return FactoryFunc(func() (Reader, error) {
		r, err := f.CreateReader()
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}

		src := NewStreamer(r)
		format := src.Format()
		format.NumChannels = min(r.Specs().Channels, 2)
		return NewStreamerReader(&effected{Streamer: effect(src), src: src}, format), nil
	})
}

// effected is an effect chain that seeks, measures and closes through its
// source.
type effected struct {
	beep.Streamer
	src *Streamer
}

func (e *effected) Len() int         { return e.src.Len() }
func (e *effected) Position() int    { return e.src.Position() }
func (e *effected) Seek(p int) error { return e.src.Seek(p) }
func (e *effected) Close() error     { return e.src.r.Close() }

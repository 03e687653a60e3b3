// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"
)

// Silence is an infinite stream of zeros.
type Silence struct {
	specs Specs
	pos   int
}

func NewSilence(specs Specs) *Silence {
	return &Silence{specs: specs}
}

// SilenceFactory creates silence readers with the given specs.
func SilenceFactory(specs Specs) Factory {
	return FactoryFunc(func() (Reader, error) {
		return NewSilence(specs), nil
	})
}

func (s *Silence) Specs() Specs   { return s.specs }
func (s *Silence) Seekable() bool { return true }
func (s *Silence) Length() int    { return -1 }
func (s *Silence) Position() int  { return s.pos }
func (s *Silence) Infinite() bool { return true }
func (s *Silence) Close() error   { return nil }

func (s *Silence) Seek(frame int) error {
	s.pos = max(frame, 0)
	return nil
}

func (s *Silence) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.specs.Channels != 0 {
		return 0, ErrInvalidDstSize
	}
	clear(dst)
	s.pos += len(dst) / s.specs.Channels
	return len(dst), nil
}

// Sine is an infinite sine tone written identically to every channel.
type Sine struct {
	specs     Specs
	frequency float64
	pos       int
}

func NewSine(frequency float64, specs Specs) *Sine {
	return &Sine{specs: specs, frequency: frequency}
}

// SineFactory creates sine readers with the given frequency and specs.
func SineFactory(frequency float64, specs Specs) Factory {
	return FactoryFunc(func() (Reader, error) {
		return NewSine(frequency, specs), nil
	})
}

func (s *Sine) Specs() Specs   { return s.specs }
func (s *Sine) Seekable() bool { return true }
func (s *Sine) Length() int    { return -1 }
func (s *Sine) Position() int  { return s.pos }
func (s *Sine) Infinite() bool { return true }
func (s *Sine) Close() error   { return nil }

func (s *Sine) Seek(frame int) error {
	s.pos = max(frame, 0)
	return nil
}

func (s *Sine) ReadSamples(dst []float32) (int, error) {
	ch := s.specs.Channels
	if len(dst)%ch != 0 {
		return 0, ErrInvalidDstSize
	}

	step := 2 * math.Pi * s.frequency / s.specs.Rate
	for f := range len(dst) / ch {
		v := float32(math.Sin(step * float64(s.pos+f)))
		for c := range ch {
			dst[f*ch+c] = v
		}
	}
	s.pos += len(dst) / ch
	return len(dst), nil
}

// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audmix/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	// Read fills p with interleaved samples and returns how many values it
	// wrote, not frames.
	Read(p []float32) (int, error)
	Length() int64
	SetPosition(pos int64) error
}

type source struct {
	dec   oggReader
	specs audio.Specs
}

func (s *source) Specs() audio.Specs { return s.specs }
func (s *source) Close() error       { return nil }

// Frames reports the stream length, or -1 when the stream could not be
// measured.
func (s *source) Frames() int {
	n := s.dec.Length()
	if n <= 0 {
		return -1
	}
	return int(n)
}

func (s *source) SeekFrame(frame int) error {
	if err := s.dec.SetPosition(int64(frame)); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	// whole frames only
	dst = dst[:len(dst)-len(dst)%s.specs.Channels]
	if len(dst) == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	n, err := s.dec.Read(dst)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w", err)
	}
	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:   dec,
		specs: audio.Specs{Rate: float64(dec.SampleRate()), Channels: dec.Channels()},
	}, nil
}

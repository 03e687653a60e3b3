// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/pcm"
	"github.com/ik5/audmix/utils"
)

// go-mp3 always produces 16 bit little-endian stereo.
const (
	channels  = 2
	frameSize = channels * 2
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
}

type source struct {
	dec mp3Reader
	buf []byte
	// a trailing odd byte from the previous read
	carry    byte
	hasCarry bool
}

func (s *source) Specs() audio.Specs {
	return audio.Specs{Rate: float64(s.dec.SampleRate()), Channels: channels}
}

func (s *source) Close() error { return nil }

// Frames reports the decoded length, or -1 when go-mp3 could not measure it.
func (s *source) Frames() int {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	return int(n / frameSize)
}

func (s *source) SeekFrame(frame int) error {
	if _, err := s.dec.Seek(int64(frame)*frameSize, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	s.hasCarry = false
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	start := 0
	if s.hasCarry {
		s.buf[0] = s.carry
		s.hasCarry = false
		start = 1
	}

	n, err := s.dec.Read(s.buf[start:])
	n += start
	if n%2 == 1 {
		s.carry = s.buf[n-1]
		s.hasCarry = true
		n--
	}

	samples := n / 2
	for i := range samples {
		val := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = utils.Int16ToFloat32(val)
	}

	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("%w", err)
	}
	if samples == 0 && err == nil {
		return 0, nil
	}
	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := pcm.ReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading mp3 data: %w", err)
	}

	dec, err := gomp3.NewDecoder(rs)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{dec: dec, buf: make([]byte, 8192)}, nil
}

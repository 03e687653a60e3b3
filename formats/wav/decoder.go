// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/pcm"
)

const formatPCM = 1

// source is a wav stream that knows its length and seeks within the PCM
// chunk.
type source struct {
	*pcm.Source
	dec       *wav.Decoder
	channels  int
	frames    int
	frameSize int
	pos       int
}

func (s *source) Frames() int { return s.frames }

// ReadSamples stops at the end of the data chunk; the go-audio decoder
// would otherwise go on reading trailing chunks as samples.
func (s *source) ReadSamples(dst []float32) (int, error) {
	remaining := (s.frames - s.pos) * s.channels
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(dst) > remaining {
		dst = dst[:remaining]
	}

	n, err := s.Source.ReadSamples(dst)
	s.pos += n / s.channels
	if err == nil && s.pos >= s.frames {
		err = io.EOF
	}
	return n, err
}

func (s *source) SeekFrame(frame int) error {
	frame = max(0, min(frame, s.frames))
	if err := s.dec.Rewind(); err != nil {
		return fmt.Errorf("%w", err)
	}

	_, err := io.CopyN(io.Discard, s.dec.PCMChunk.R, int64(frame*s.frameSize))
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w", err)
	}
	s.pos = frame
	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := pcm.ReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading wav data: %w", err)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		return nil, ErrNoPCMData
	}

	// 8 bit wav samples are unsigned
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frameSize := int(dec.NumChans) * bitDepth / 8
	return &source{
		Source:    pcm.NewSource(dec, bitDepth, offset),
		dec:       dec,
		channels:  int(dec.NumChans),
		frames:    int(dec.PCMLen()) / frameSize,
		frameSize: frameSize,
	}, nil
}

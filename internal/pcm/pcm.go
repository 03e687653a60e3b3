// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts the go-audio integer PCM decoders to audio.Source.
package pcm

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// Decoder is the part of the go-audio wav and aiff decoders a Source needs.
type Decoder interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source wraps a go-audio decoder to implement audio.Source.
type Source struct {
	dec      Decoder
	specs    audio.Specs
	bitDepth int
	// subtracted from every sample before scaling, for unsigned 8 bit data
	offset int
	intBuf *goaudio.IntBuffer
}

// NewSource returns a Source over dec. Unsigned samples are centered by
// subtracting offset.
func NewSource(dec Decoder, bitDepth, offset int) *Source {
	f := dec.Format()
	return &Source{
		dec:      dec,
		specs:    audio.Specs{Rate: float64(f.SampleRate), Channels: f.NumChannels},
		bitDepth: bitDepth,
		offset:   offset,
	}
}

func (s *Source) Specs() audio.Specs { return s.specs }
func (s *Source) Close() error       { return nil }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	// Resize buffer if needed
	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i]-s.offset, s.bitDepth)
	}

	return n, err
}

// ReadSeeker returns r when it can seek, and otherwise reads it into memory.
// go-audio requires io.ReadSeeker.
func ReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return bytes.NewReader(data), nil
}

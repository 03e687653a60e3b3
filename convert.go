// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"fmt"
	"io"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// Convert adapts r to the rate and channel layout of specs. The returned
// reader owns r. Streams already matching specs pass through unchanged.
func Convert(r audio.Reader, specs audio.Specs) audio.Reader {
	resampler := audio.NewResampler(r, specs.Rate)
	return audio.NewChannelMapper(resampler, specs.Channels)
}

// RenderPCM16 converts r to specs and collects all of it as interleaved
// 16-bit PCM. r must end.
//
// bufferSize is the number of frames read at a time. Larger buffers are
// faster but use more memory.
func RenderPCM16(r audio.Reader, specs audio.Specs, bufferSize int) ([]int16, error) {
	if !specs.Valid() {
		return nil, audio.ErrInvalidSpecs
	}
	if inf, ok := r.(interface{ Infinite() bool }); ok && inf.Infinite() {
		return nil, audio.ErrInfiniteReader
	}

	conv := Convert(r, specs)

	// Start with about two seconds and grow as needed
	pcm16 := make([]int16, 0, int(specs.Rate)*specs.Channels*2)
	if n := r.Length(); n >= 0 {
		frames := int(float64(n) * specs.Rate / r.Specs().Rate)
		pcm16 = make([]int16, 0, (frames+1)*specs.Channels)
	}
	buf := make([]float32, max(bufferSize, 1)*specs.Channels)

	for {
		n, err := audio.ReadFull(conv, buf)
		if n > 0 {
			for _, v := range buf[:n] {
				pcm16 = append(pcm16, utils.Float32ToInt16(v))
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	return pcm16, nil
}

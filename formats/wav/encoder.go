// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// Encode renders r to w as integer PCM of the given bit depth (8, 16, 24 or
// 32) and returns the number of frames written. r must end.
func Encode(w io.WriteSeeker, r audio.Reader, bitDepth int) (int, error) {
	var convert func(float32) int
	switch bitDepth {
	case 8:
		convert = func(v float32) int { return int(utils.Float32ToUint8(v)) }
	case 16:
		convert = func(v float32) int { return int(utils.Float32ToInt16(v)) }
	case 24:
		convert = func(v float32) int { return int(utils.Float32ToInt24(v)) }
	case 32:
		convert = func(v float32) int { return int(utils.Float32ToInt32(v)) }
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	if r.Length() < 0 {
		if inf, ok := r.(interface{ Infinite() bool }); ok && inf.Infinite() {
			return 0, ErrInfiniteReader
		}
	}

	specs := r.Specs()
	enc := wav.NewEncoder(w, int(specs.Rate), bitDepth, specs.Channels, formatPCM)

	const chunkFrames = 4096
	floats := make([]float32, chunkFrames*specs.Channels)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: specs.Channels, SampleRate: int(specs.Rate)},
		Data:           make([]int, len(floats)),
		SourceBitDepth: bitDepth,
	}

	frames := 0
	for {
		n, err := audio.ReadFull(r, floats)
		if n > 0 {
			buf.Data = buf.Data[:n]
			for i, v := range floats[:n] {
				buf.Data[i] = convert(v)
			}
			if werr := enc.Write(buf); werr != nil {
				return frames, fmt.Errorf("%w", werr)
			}
			frames += n / specs.Channels
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return frames, fmt.Errorf("%w", err)
		}
	}

	if frames == 0 {
		// an empty buffer still writes the headers
		buf.Data = buf.Data[:0]
		if err := enc.Write(buf); err != nil {
			return 0, fmt.Errorf("%w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return frames, fmt.Errorf("%w", err)
	}
	return frames, nil
}

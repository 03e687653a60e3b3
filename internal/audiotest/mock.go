// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides deterministic readers for tests.
package audiotest

import (
	"io"
	"math"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
)

// MockReader is a test helper that generates audio data for testing.
// It implements audio.Reader.
type MockReader struct {
	specs       audio.Specs
	totalFrames int // negative for an endless stream
	pos         int
	waveform    func(frame int, channel int) float32

	// NotSeekable turns Seek into an error.
	NotSeekable bool

	closed atomic.Int32
	seeks  atomic.Int32
}

// NewMockReader creates a new mock reader.
// totalFrames is the number of frames to generate, negative for no end.
// waveform generates a sample value given frame index and channel.
func NewMockReader(rate float64, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockReader {
	return &MockReader{
		specs:       audio.Specs{Rate: rate, Channels: channels},
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewSilentReader creates a mock reader that generates silence (all zeros).
func NewSilentReader(rate float64, channels, totalFrames int) *MockReader {
	return NewMockReader(rate, channels, totalFrames, func(int, int) float32 {
		return 0.0
	})
}

// NewSineReader creates a mock reader that generates a sine wave.
func NewSineReader(rate float64, channels, totalFrames int, frequency float64) *MockReader {
	return NewMockReader(rate, channels, totalFrames, func(frame int, channel int) float32 {
		t := float64(frame) / rate
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantReader creates a mock reader with constant value.
func NewConstantReader(rate float64, channels, totalFrames int, value float32) *MockReader {
	return NewMockReader(rate, channels, totalFrames, func(int, int) float32 {
		return value
	})
}

// NewRampReader creates a mock reader whose samples encode their own frame
// index, frame/1000 on every channel, which makes positions easy to check.
func NewRampReader(rate float64, channels, totalFrames int) *MockReader {
	return NewMockReader(rate, channels, totalFrames, func(frame int, _ int) float32 {
		return float32(frame) / 1000
	})
}

// Factory returns an audio.Factory producing fresh copies of the reader.
func Factory(create func() *MockReader) audio.Factory {
	return audio.FactoryFunc(func() (audio.Reader, error) {
		return create(), nil
	})
}

func (m *MockReader) Specs() audio.Specs { return m.specs }
func (m *MockReader) Seekable() bool     { return !m.NotSeekable }
func (m *MockReader) Length() int        { return m.totalFrames }
func (m *MockReader) Position() int      { return m.pos }

func (m *MockReader) Close() error {
	m.closed.Add(1)
	return nil
}

// Closed reports how many times Close was called.
func (m *MockReader) Closed() int { return int(m.closed.Load()) }

// Seeks reports how many times Seek was called.
func (m *MockReader) Seeks() int { return int(m.seeks.Load()) }

func (m *MockReader) Seek(frame int) error {
	if m.NotSeekable {
		return audio.ErrNotSeekable
	}
	m.seeks.Add(1)
	m.pos = max(frame, 0)
	if m.totalFrames >= 0 {
		m.pos = min(m.pos, m.totalFrames)
	}
	return nil
}

func (m *MockReader) ReadSamples(dst []float32) (int, error) {
	ch := m.specs.Channels
	if len(dst)%ch != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	frames := len(dst) / ch
	if m.totalFrames >= 0 {
		if m.pos >= m.totalFrames {
			return 0, io.EOF
		}
		frames = min(frames, m.totalFrames-m.pos)
	}

	for f := range frames {
		for c := range ch {
			dst[f*ch+c] = m.waveform(m.pos+f, c)
		}
	}
	m.pos += frames

	if m.totalFrames >= 0 && m.pos >= m.totalFrames {
		return frames * ch, io.EOF
	}
	return frames * ch, nil
}

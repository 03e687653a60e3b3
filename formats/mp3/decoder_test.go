// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

// mockMP3Reader simulates the gomp3.Decoder for testing
type mockMP3Reader struct {
	sampleRate int
	samples    []int16 // interleaved stereo
	offset     int     // in bytes
	chunk      int     // max bytes per Read, 0 for unlimited
	readErr    error
}

func (m *mockMP3Reader) SampleRate() int { return m.sampleRate }
func (m *mockMP3Reader) Length() int64   { return int64(len(m.samples) * 2) }

func (m *mockMP3Reader) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, errors.New("unsupported whence")
	}
	m.offset = int(offset)
	return offset, nil
}

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}

	raw := make([]byte, len(m.samples)*2)
	for i, s := range m.samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}
	if m.offset >= len(raw) {
		return 0, io.EOF
	}

	end := len(raw)
	if m.chunk > 0 {
		end = min(end, m.offset+m.chunk)
	}
	n := copy(buf, raw[m.offset:end])
	m.offset += n
	if m.offset >= len(raw) {
		return n, io.EOF
	}
	return n, nil
}

func readAll(t *testing.T, s *source, bufSize int) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, bufSize)
	for range 1000 {
		n, err := s.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	t.Fatal("no EOF after 1000 reads")
	return nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("This is not MP3 data")},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := (Decoder{}).Decode(bytes.NewReader(tt.data)); err == nil {
				t.Error("Decode() error = nil, want error")
			}
		})
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	s := &source{dec: &mockMP3Reader{sampleRate: 44100, samples: make([]int16, 200)}}

	specs := s.Specs()
	if specs.Rate != 44100 || specs.Channels != 2 {
		t.Errorf("Specs() = %+v, want 44100 Hz stereo", specs)
	}
	if got := s.Frames(); got != 100 {
		t.Errorf("Frames() = %d, want 100", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 16384, -16384, 32767, -32768, 1}

	tests := []struct {
		name    string
		bufSize int
		chunk   int
	}{
		{"large buffer", 4096, 0},
		{"small buffer", 2, 0},
		{"odd byte reads", 4, 3},
		{"single byte reads", 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &source{dec: &mockMP3Reader{sampleRate: 44100, samples: samples, chunk: tt.chunk}}
			got := readAll(t, s, tt.bufSize)
			if len(got) != len(samples) {
				t.Fatalf("read %d samples, want %d", len(got), len(samples))
			}
			for i, v := range samples {
				want := float32(v) / 32768
				if math.Abs(float64(got[i]-want)) > 1e-4 {
					t.Errorf("sample %d = %f, want %f", i, got[i], want)
				}
			}
		})
	}
}

func TestSource_SeekFrame(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 20)
	for i := range samples {
		samples[i] = int16(i * 100)
	}
	s := &source{dec: &mockMP3Reader{sampleRate: 22050, samples: samples}}

	if err := s.SeekFrame(5); err != nil {
		t.Fatalf("SeekFrame() error = %v", err)
	}
	got := readAll(t, s, 64)
	if len(got) != 10 {
		t.Fatalf("read %d samples after seek, want 10", len(got))
	}
	if want := float32(1000) / 32768; math.Abs(float64(got[0]-want)) > 1e-4 {
		t.Errorf("first sample after seek = %f, want %f", got[0], want)
	}
}

func TestSource_ReadError(t *testing.T) {
	t.Parallel()

	s := &source{dec: &mockMP3Reader{sampleRate: 44100, readErr: io.ErrUnexpectedEOF}}
	_, err := s.ReadSamples(make([]float32, 8))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want ErrUnexpectedEOF", err)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int16, 44100*2)
	buf := make([]float32, 4096)

	for b.Loop() {
		s := &source{dec: &mockMP3Reader{sampleRate: 44100, samples: samples}}
		for {
			if _, err := s.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}

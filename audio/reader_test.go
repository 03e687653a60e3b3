// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"io"
	"testing"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
)

// readAll drains r with a chunk size of frames frames.
func readAll(t *testing.T, r audio.Reader, frames int) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, frames*r.Specs().Channels)
	for range 100000 {
		n, err := r.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	t.Fatal("reader did not end")
	return nil
}

func TestLimiter_SilenceOneSecond(t *testing.T) {
	t.Parallel()

	l, err := audio.NewLimiter(audio.NewSilence(audio.Specs{Rate: 48000, Channels: 2}), 0, 1)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	if got := l.Length(); got != 48000 {
		t.Errorf("Length() = %d, want 48000", got)
	}

	out := readAll(t, l, 1000)
	if len(out) != 96000 {
		t.Errorf("read %d samples, want 96000", len(out))
	}
	if got := l.Position(); got != 48000 {
		t.Errorf("Position() = %d, want 48000", got)
	}
}

func TestLimiter_StartOffset(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampReader(1000, 1, 1000)
	l, err := audio.NewLimiter(src, 0.1, 0.2)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	out := readAll(t, l, 64)
	if len(out) != 100 {
		t.Fatalf("read %d frames, want 100", len(out))
	}
	if out[0] != 0.1 {
		t.Errorf("first sample = %v, want 0.1", out[0])
	}

	if err := l.Seek(50); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := l.Position(); got != 50 {
		t.Errorf("Position() after seek = %d, want 50", got)
	}
}

func TestLimiter_EOFWithLastData(t *testing.T) {
	t.Parallel()

	l, _ := audio.NewLimiter(audio.NewSilence(audio.Specs{Rate: 100, Channels: 1}), 0, 1)
	buf := make([]float32, 100)

	n, err := l.ReadSamples(buf)
	if n != 100 || err != io.EOF {
		t.Errorf("ReadSamples() = %d, %v; want 100, EOF", n, err)
	}
}

func TestBuffer_ReadAllAndSeek(t *testing.T) {
	t.Parallel()

	buf, err := audio.NewBufferFactory(audiotest.Factory(func() *audiotest.MockReader {
		return audiotest.NewRampReader(100, 2, 10)
	}))
	if err != nil {
		t.Fatalf("NewBufferFactory() error = %v", err)
	}
	if buf.Frames() != 10 {
		t.Fatalf("Frames() = %d, want 10", buf.Frames())
	}

	r, _ := buf.CreateReader()
	if !r.Seekable() || r.Length() != 10 {
		t.Errorf("Seekable() = %v, Length() = %d", r.Seekable(), r.Length())
	}

	if err := r.Seek(5); err != nil {
		t.Fatal(err)
	}
	out := readAll(t, r, 3)
	if len(out) != 10 {
		t.Fatalf("read %d samples after seek, want 10", len(out))
	}
	if out[0] != 0.005 || out[1] != 0.005 {
		t.Errorf("first frame = %v, want 0.005 on both channels", out[:2])
	}
}

func TestReadAll_Infinite(t *testing.T) {
	t.Parallel()

	_, err := audio.ReadAll(audio.NewSine(440, audio.Specs{Rate: 48000, Channels: 1}))
	if !errors.Is(err, audio.ErrInfiniteReader) {
		t.Errorf("ReadAll(sine) error = %v, want ErrInfiniteReader", err)
	}
}

func TestSine_Seek(t *testing.T) {
	t.Parallel()

	specs := audio.Specs{Rate: 8000, Channels: 2}
	a := audio.NewSine(1000, specs)
	b := audio.NewSine(1000, specs)

	skip := make([]float32, 2*37)
	_, _ = a.ReadSamples(skip)
	_ = b.Seek(37)

	x := make([]float32, 16)
	y := make([]float32, 16)
	_, _ = a.ReadSamples(x)
	_, _ = b.ReadSamples(y)

	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("sample %d: read %v, seeked %v", i, x[i], y[i])
		}
	}
	if x[0] != x[1] {
		t.Error("channels differ")
	}
}

// countingDecoder decodes a fixed ramp and counts decodes
type countingDecoder struct {
	decodes int
}

func (d *countingDecoder) Decode(r io.Reader) (audio.Source, error) {
	d.decodes++
	data, _ := io.ReadAll(r)
	samples := make([]float32, len(data))
	for i, b := range data {
		samples[i] = float32(b) / 100
	}
	return &sliceSource{specs: audio.Specs{Rate: 10, Channels: 1}, data: samples}, nil
}

func TestFileFactory_SeekByRedecode(t *testing.T) {
	t.Parallel()

	dec := &countingDecoder{}
	f := audio.NewFileFactory([]byte{0, 1, 2, 3, 4, 5, 6, 7}, dec)

	r, err := f.CreateReader()
	if err != nil {
		t.Fatalf("CreateReader() error = %v", err)
	}
	if !r.Seekable() {
		t.Fatal("file reader is not seekable")
	}
	if r.Length() != -1 {
		t.Errorf("Length() = %d, want -1", r.Length())
	}

	buf := make([]float32, 4)
	if n, _ := r.ReadSamples(buf); n != 4 {
		t.Fatalf("ReadSamples() = %d, want 4", n)
	}

	if err := r.Seek(2); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if n, _ := r.ReadSamples(buf[:1]); n != 1 || buf[0] != 0.02 {
		t.Errorf("after seek read %v, want 0.02", buf[0])
	}
	if dec.decodes != 2 {
		t.Errorf("decodes = %d, want 2", dec.decodes)
	}
	if got := r.Position(); got != 3 {
		t.Errorf("Position() = %d, want 3", got)
	}
}

func TestOpenFile_Errors(t *testing.T) {
	t.Parallel()

	reg := audio.NewRegistry()
	_, err := audio.OpenFile("song.flac", reg)
	if !audio.IsKind(err, audio.KindFile) || !errors.Is(err, audio.ErrNoDecoder) {
		t.Errorf("OpenFile(flac) error = %v", err)
	}

	reg.Register("wav", &countingDecoder{})
	_, err = audio.OpenFile("/does/not/exist.wav", reg)
	if !audio.IsKind(err, audio.KindFile) {
		t.Errorf("OpenFile(missing) error = %v, want KindFile", err)
	}
}

func TestSourceReader_NotSeekable(t *testing.T) {
	t.Parallel()

	r := audio.NewSourceReader(&sliceSource{specs: audio.Specs{Rate: 10, Channels: 1}, data: []float32{1, 2}})
	if r.Seekable() {
		t.Error("Seekable() = true for a plain source")
	}
	if err := r.Seek(1); !errors.Is(err, audio.ErrNotSeekable) {
		t.Errorf("Seek() error = %v, want ErrNotSeekable", err)
	}

	out := readAll(t, r, 1)
	if len(out) != 2 || out[0] != 1 || out[1] != 2 {
		t.Errorf("read %v, want [1 2]", out)
	}
}

func TestPitchReader_Specs(t *testing.T) {
	t.Parallel()

	p := audio.NewPitchReader(audiotest.NewSilentReader(44100, 1, 10), 1)
	p.SetPitch(2)
	if got := p.Specs().Rate; got != 88200 {
		t.Errorf("Specs().Rate = %v, want 88200", got)
	}

	p.SetPitch(0)
	if got := p.Pitch(); got != 2 {
		t.Errorf("SetPitch(0) changed pitch to %v", got)
	}
}

// stalledReader never produces samples and never ends.
type stalledReader struct {
	*audiotest.MockReader
}

func (stalledReader) ReadSamples([]float32) (int, error) { return 0, nil }

func TestLimiter_SkipStopsOnStalledReader(t *testing.T) {
	t.Parallel()

	m := audiotest.NewConstantReader(8000, 1, -1, 0.5)
	m.NotSeekable = true

	_, err := audio.NewLimiter(stalledReader{m}, 1, -1)
	if !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("NewLimiter() error = %v, want io.ErrNoProgress", err)
	}
}

// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
)

func TestStreamer_RoundTrip(t *testing.T) {
	t.Parallel()

	streamer := audio.NewStreamer(audiotest.NewRampReader(44100, 2, 300))
	format := streamer.Format()
	if format.SampleRate != beep.SampleRate(44100) || format.NumChannels != 2 {
		t.Fatalf("Format() = %+v", format)
	}
	if streamer.Len() != 300 {
		t.Errorf("Len() = %d, want 300", streamer.Len())
	}

	r := audio.NewStreamerReader(streamer, format)
	if !r.Seekable() || r.Length() != 300 {
		t.Errorf("Seekable() = %v, Length() = %d", r.Seekable(), r.Length())
	}

	out := readAll(t, r, 128)
	if len(out) != 600 {
		t.Fatalf("read %d samples, want 600", len(out))
	}
	for f := range 300 {
		if out[2*f] != float32(f)/1000 {
			t.Fatalf("frame %d = %v, want %v", f, out[2*f], float32(f)/1000)
		}
	}

	if err := r.Seek(100); err != nil {
		t.Fatal(err)
	}
	buf := make([]float32, 2)
	if _, err := r.ReadSamples(buf); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0.1 || r.Position() != 101 {
		t.Errorf("after seek read %v at %d", buf[0], r.Position())
	}
}

func TestStreamerReader_Mono(t *testing.T) {
	t.Parallel()

	s := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.5, 0.25}
		}
		return len(samples), true
	})

	r := audio.NewStreamerReader(s, beep.Format{SampleRate: 22050, NumChannels: 1, Precision: 2})
	if r.Seekable() || r.Length() != -1 {
		t.Errorf("plain streamer reported seekable %v, length %d", r.Seekable(), r.Length())
	}

	buf := make([]float32, 8)
	n, err := r.ReadSamples(buf)
	if n != 8 || err != nil {
		t.Fatalf("ReadSamples() = %d, %v", n, err)
	}
	if buf[0] != 0.375 {
		t.Errorf("mono sample = %v, want 0.375", buf[0])
	}
}

func TestStreamer_MonoDuplicated(t *testing.T) {
	t.Parallel()

	s := audio.NewStreamer(audiotest.NewConstantReader(8000, 1, 3, 0.5))
	samples := make([][2]float64, 8)

	n, ok := s.Stream(samples)
	if n != 3 || !ok {
		t.Fatalf("Stream() = %d, %v; want 3, true", n, ok)
	}
	if samples[2] != [2]float64{0.5, 0.5} {
		t.Errorf("samples[2] = %v", samples[2])
	}

	if n, ok := s.Stream(samples); n != 0 || ok {
		t.Errorf("Stream() after end = %d, %v", n, ok)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestEffectFactory(t *testing.T) {
	t.Parallel()

	ramp := audiotest.Factory(func() *audiotest.MockReader {
		return audiotest.NewRampReader(8000, 2, 400)
	})
	half := func(s beep.Streamer) beep.Streamer {
		return &effects.Volume{Streamer: s, Base: 2, Volume: -1}
	}

	r, err := audio.EffectFactory(ramp, half).CreateReader()
	if err != nil {
		t.Fatalf("CreateReader() error = %v", err)
	}
	if r.Specs() != (audio.Specs{Rate: 8000, Channels: 2}) {
		t.Errorf("Specs() = %+v", r.Specs())
	}
	if !r.Seekable() || r.Length() != 400 {
		t.Errorf("Seekable() = %v, Length() = %d, want true, 400", r.Seekable(), r.Length())
	}

	if err := r.Seek(200); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	out := readAll(t, r, 64)
	if len(out) != 400 {
		t.Fatalf("read %d samples after seek, want 400", len(out))
	}
	if out[0] != 0.1 || out[2] != 0.1005 {
		t.Errorf("samples = %v, %v, want 0.1, 0.1005", out[0], out[2])
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestEffectFactory_Swap(t *testing.T) {
	t.Parallel()

	var source *audiotest.MockReader
	sound := audiotest.Factory(func() *audiotest.MockReader {
		source = audiotest.NewMockReader(8000, 2, 10, func(_, ch int) float32 {
			if ch == 0 {
				return 0.5
			}
			return -0.25
		})
		return source
	})

	r, err := audio.EffectFactory(sound, effects.Swap).CreateReader()
	if err != nil {
		t.Fatalf("CreateReader() error = %v", err)
	}
	out := readAll(t, r, 4)
	if len(out) != 20 || out[0] != -0.25 || out[1] != 0.5 {
		t.Errorf("swapped = %v", out)
	}

	_ = r.Close()
	if source.Closed() != 1 {
		t.Errorf("source closed %d times, want 1", source.Closed())
	}
}

// SPDX-License-Identifier: EPL-2.0

package device

import (
	"testing"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/log"
)

func TestNullDevice_OneSecondOfSilence(t *testing.T) {
	t.Parallel()

	d, err := NewNullDevice(WithManualClock(), WithLogger(log.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	specs := d.Specs()
	if specs.Rate != 48000 || specs.Channels != 2 || specs.Format != audio.FormatFloat32 {
		t.Fatalf("default specs = %+v", specs)
	}

	r, err := audio.NewLimiter(audio.NewSilence(specs.Specs), 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	h, err := d.Play(r, false)
	if err != nil {
		t.Fatal(err)
	}
	if h.Status() != StatusPlaying {
		t.Fatalf("Status() = %s, want playing", h.Status())
	}

	d.Advance(24000)
	if h.Status() != StatusPlaying {
		t.Fatalf("Status() half way = %s, want playing", h.Status())
	}

	d.Advance(24000)
	if h.Status() != StatusInvalid {
		t.Errorf("Status() after one second = %s, want invalid", h.Status())
	}
	if d.Playing() {
		t.Error("device still playing")
	}
}

func TestNullDevice_BackgroundClock(t *testing.T) {
	t.Parallel()

	d, err := NewNullDevice(WithBufferSize(256), WithLogger(log.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	r, err := audio.NewLimiter(audio.NewSilence(d.Specs().Specs), 0, 0.02)
	if err != nil {
		t.Fatal(err)
	}
	h, err := d.Play(r, false)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for h.Status() != StatusInvalid {
		if time.Now().After(deadline) {
			t.Fatal("handle did not finish in the background")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// the transport restarts for the next sound
	r2, _ := audio.NewLimiter(audio.NewSilence(d.Specs().Specs), 0, 0.02)
	h2, err := d.Play(r2, false)
	if err != nil {
		t.Fatal(err)
	}
	deadline = time.Now().Add(5 * time.Second)
	for h2.Status() != StatusInvalid {
		if time.Now().After(deadline) {
			t.Fatal("second handle did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNullDevice_CloseStopsVoices(t *testing.T) {
	t.Parallel()

	d, err := NewNullDevice(WithLogger(log.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	h, err := d.Play(audio.NewSine(440, d.Specs().Specs), false)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if h.Status() != StatusInvalid {
		t.Errorf("Status() after Close = %s, want invalid", h.Status())
	}
	if _, err := d.Play(audio.NewSine(440, d.Specs().Specs), false); err == nil {
		t.Error("Play() after Close error = nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{"defaults", nil, false},
		{"s16 mono 22k", []Option{WithRate(22050), WithChannels(1), WithFormat(audio.FormatS16)}, false},
		{"zero rate", []Option{WithRate(0)}, true},
		{"no channels", []Option{WithChannels(0)}, true},
		{"invalid format", []Option{WithFormat(audio.FormatInvalid)}, true},
		{"zero buffer", []Option{WithBufferSize(0)}, true},
		{"zero poll interval", []Option{WithPollInterval(0)}, true},
		{"zero stream buffer", []Option{WithStreamBufferSize(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewConfig(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_BufferDuration(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(WithRate(48000), WithBufferSize(480))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.BufferDuration(); got != 10*time.Millisecond {
		t.Errorf("BufferDuration() = %s, want 10ms", got)
	}
}

// SPDX-License-Identifier: EPL-2.0

package openal

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/internal/audiotest"
	"github.com/ik5/audmix/internal/log"
)

// chunk is the stream buffer size used by the tests, in frames.
const chunk = 4

func newTestDevice(t *testing.T, al *fakeAL, opts ...device.Option) *Device {
	t.Helper()

	opts = append([]device.Option{
		device.WithPollInterval(time.Hour),
		device.WithStreamBufferSize(chunk),
		device.WithLogger(log.Discard()),
	}, opts...)
	cfg, err := device.NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	d, err := newDevice(al, cfg)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func play(t *testing.T, d *Device, r audio.Reader, keep bool) *handle {
	t.Helper()

	hh, err := d.Play(r, keep)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	return hh.(*handle)
}

func TestNewDevice_UnwindsOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		setup         func(*fakeAL)
		wantDestroyed bool
		wantClosed    bool
	}{
		{
			name:  "open device",
			setup: func(f *fakeAL) { f.failOpen = errFake },
		},
		{
			name:       "create context",
			setup:      func(f *fakeAL) { f.failContext = errFake },
			wantClosed: true,
		},
		{
			name:          "make current",
			setup:         func(f *fakeAL) { f.failCurrent = errFake },
			wantDestroyed: true,
			wantClosed:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			al := newFakeAL()
			tt.setup(al)
			cfg, err := device.NewConfig(device.WithLogger(log.Discard()))
			if err != nil {
				t.Fatal(err)
			}

			d, err := newDevice(al, cfg)
			if d != nil {
				t.Error("device returned on failure")
			}
			if !audio.IsKind(err, audio.KindOpenAL) {
				t.Errorf("error %v is not an OpenAL error", err)
			}
			if !errors.Is(err, errFake) {
				t.Errorf("error %v does not wrap the native failure", err)
			}
			if al.destroyed != tt.wantDestroyed {
				t.Errorf("context destroyed = %v, want %v", al.destroyed, tt.wantDestroyed)
			}
			if al.closedDevice != tt.wantClosed {
				t.Errorf("device closed = %v, want %v", al.closedDevice, tt.wantClosed)
			}
		})
	}
}

func TestDevice_Specs(t *testing.T) {
	t.Parallel()

	d := newTestDevice(t, newFakeAL(), device.WithChannels(6))
	specs := d.Specs()
	if specs.Channels != 2 || specs.Format != audio.FormatS16 || specs.Rate != 48000 {
		t.Errorf("Specs = %+v, want 48000 Hz stereo S16", specs)
	}
}

func TestPlay_QueuesRing(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewRampReader(48000, 1, 100), false)

	src := al.source(h.source)
	if !slices.Equal(src.queue, h.buffers) {
		t.Errorf("queued %v, want %v", src.queue, h.buffers)
	}
	if src.state != alPlaying {
		t.Errorf("source state 0x%x, want playing", src.state)
	}
	if src.ints[alSourceRelative] != 1 {
		t.Error("source is not relative to the listener")
	}
	for _, b := range h.buffers {
		if got := len(al.data[b]); got != chunk*2 {
			t.Errorf("buffer %d holds %d bytes, want %d", b, got, chunk*2)
		}
		if al.formats[b] != alFormatMono16 {
			t.Errorf("buffer %d format 0x%x, want mono16", b, al.formats[b])
		}
	}
	if h.Status() != device.StatusPlaying {
		t.Errorf("status %s, want playing", h.Status())
	}
}

func TestUpdate_RefillsInRingOrder(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewRampReader(48000, 1, 1000), false)
	b := h.buffers

	al.consume(h.source, 1)
	d.update()
	al.consume(h.source, 2)
	d.update()

	want := []uint32{b[0], b[1], b[2], b[0], b[1], b[2]}
	if !slices.Equal(al.queued, want) {
		t.Errorf("queue order %v, want %v", al.queued, want)
	}
	if h.current != 0 {
		t.Errorf("ring index %d, want 0", h.current)
	}
	if got, want := h.Position(), float64(3*chunk)/48000; got != want {
		t.Errorf("Position = %v, want %v", got, want)
	}
	if al.suspends != 2 || al.processes != 2 {
		t.Errorf("context suspended %d and processed %d times, want 2", al.suspends, al.processes)
	}
}

func TestUpdate_EndOfStream(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	r := audiotest.NewRampReader(48000, 1, 10)
	h := play(t, d, r, false)

	var calls atomic.Int32
	h.SetStopCallback(func(device.Handle) { calls.Add(1) })

	if got := len(al.data[h.buffers[2]]); got != 2*2 {
		t.Errorf("last buffer holds %d bytes, want 4", got)
	}
	if !d.update() {
		t.Fatal("voice ended before its buffers played")
	}

	al.consume(h.source, cycleBuffers)
	if d.update() {
		t.Error("update reports playing voices after the end")
	}

	if h.Status() != device.StatusInvalid {
		t.Errorf("status %s, want invalid", h.Status())
	}
	if !slices.Equal(al.deletedSources, []uint32{h.source}) {
		t.Errorf("deleted sources %v", al.deletedSources)
	}
	if !slices.Equal(al.deletedBuffers, h.buffers) {
		t.Errorf("deleted buffers %v, want %v", al.deletedBuffers, h.buffers)
	}
	if r.Closed() != 1 {
		t.Errorf("reader closed %d times", r.Closed())
	}
	if calls.Load() != 1 {
		t.Errorf("stop callback ran %d times", calls.Load())
	}
	if h.Stop() {
		t.Error("Stop succeeded on an ended voice")
	}
}

func TestKeptHandle_SeekRestarts(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewRampReader(48000, 1, 10), true)

	al.consume(h.source, cycleBuffers)
	d.update()
	if h.Status() != device.StatusStopped {
		t.Fatalf("status %s, want stopped", h.Status())
	}
	if len(al.deletedSources) != 0 {
		t.Fatal("kept voice released its source")
	}

	if !h.Seek(0) {
		t.Fatal("Seek failed")
	}
	if h.Status() != device.StatusPaused {
		t.Errorf("status %s after seek, want paused", h.Status())
	}
	if src := al.source(h.source); len(src.queue) != cycleBuffers || src.state == alPlaying {
		t.Errorf("after seek: %d queued, state 0x%x", len(src.queue), src.state)
	}

	if !h.Resume() {
		t.Fatal("Resume failed")
	}
	if al.source(h.source).state != alPlaying {
		t.Error("source not playing after resume")
	}
}

func TestKeptHandle_LoopModeRestarts(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewRampReader(48000, 1, 10), true)

	al.consume(h.source, cycleBuffers)
	d.update()

	if !h.SetLoopMode(device.Finite(1)) {
		t.Fatal("SetLoopMode failed")
	}
	if h.Status() != device.StatusPaused {
		t.Errorf("status %s, want paused", h.Status())
	}
	if got := h.LoopMode().Count(); got != 0 {
		t.Errorf("loops left %d, want 0", got)
	}
}

func TestPlay_Loops(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	r := audiotest.NewRampReader(48000, 1, chunk)
	hh, err := d.Play(r, false)
	if err != nil {
		t.Fatal(err)
	}
	h := hh.(*handle)
	if !h.SetLoopMode(device.Finite(2)) {
		t.Fatal("SetLoopMode failed")
	}

	// the first buffer was filled before the loop mode changed
	al.consume(h.source, 1)
	d.update()
	al.consume(h.source, 1)
	d.update()

	total := 0
	for _, b := range al.queued {
		total += len(al.data[b]) / 2
	}
	if total != 3*chunk {
		t.Errorf("queued %d frames, want %d", total, 3*chunk)
	}
	if r.Seeks() != 2 {
		t.Errorf("reader rewound %d times, want 2", r.Seeks())
	}
}

func TestPlay_MixesDownSurround(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewConstantReader(48000, 6, 100, 0.25), false)

	b := h.buffers[0]
	if al.formats[b] != alFormatStereo16 {
		t.Errorf("format 0x%x, want stereo16", al.formats[b])
	}
	if got := len(al.data[b]); got != chunk*2*2 {
		t.Errorf("buffer holds %d bytes, want %d", got, chunk*4)
	}
}

func TestPlay_UnwindsOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		setup          func(*fakeAL)
		deletedBuffers int
		deletedSources int
	}{
		{
			name:  "buffers",
			setup: func(f *fakeAL) { f.failGenBuffers = errFake },
		},
		{
			name:           "source",
			setup:          func(f *fakeAL) { f.failGenSource = errFake },
			deletedBuffers: cycleBuffers,
		},
		{
			name:           "buffer data",
			setup:          func(f *fakeAL) { f.failBufferDataAt = 1 },
			deletedBuffers: cycleBuffers,
			deletedSources: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			al := newFakeAL()
			d := newTestDevice(t, al)
			tt.setup(al)

			h, err := d.Play(audiotest.NewRampReader(48000, 1, 100), false)
			if h != nil {
				t.Error("handle returned on failure")
			}
			if !audio.IsKind(err, audio.KindOpenAL) {
				t.Errorf("error %v is not an OpenAL error", err)
			}
			if len(al.deletedBuffers) != tt.deletedBuffers {
				t.Errorf("deleted %d buffers, want %d", len(al.deletedBuffers), tt.deletedBuffers)
			}
			if len(al.deletedSources) != tt.deletedSources {
				t.Errorf("deleted %d sources, want %d", len(al.deletedSources), tt.deletedSources)
			}
			if len(d.playing) != 0 {
				t.Error("failed voice is listed as playing")
			}
		})
	}
}

func TestUpdate_FailingVoiceEnds(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	failing := play(t, d, audiotest.NewRampReader(48000, 1, 1000), false)
	al.failBufferDataAt = al.bufferData + 1

	al.consume(failing.source, 1)
	d.update()

	if failing.Status() != device.StatusInvalid {
		t.Errorf("status %s, want invalid", failing.Status())
	}
	if len(al.deletedSources) != 1 {
		t.Errorf("deleted %d sources, want 1", len(al.deletedSources))
	}
}

func TestUpdate_RestartsAfterUnderrun(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewRampReader(48000, 1, 1000), false)

	al.consume(h.source, cycleBuffers)
	if al.source(h.source).state == alPlaying {
		t.Fatal("fake source still playing")
	}
	d.update()

	src := al.source(h.source)
	if src.state != alPlaying {
		t.Error("source not restarted")
	}
	if len(src.queue) != cycleBuffers {
		t.Errorf("%d buffers queued, want %d", len(src.queue), cycleBuffers)
	}
	if h.Status() != device.StatusPlaying {
		t.Errorf("status %s, want playing", h.Status())
	}
}

func TestHandle_PauseResume(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewRampReader(48000, 1, 1000), false)

	if !h.Pause() {
		t.Fatal("Pause failed")
	}
	if h.Pause() {
		t.Error("second Pause succeeded")
	}
	if al.source(h.source).state != alPaused {
		t.Error("source not paused")
	}
	if !h.Resume() {
		t.Fatal("Resume failed")
	}
	if h.Resume() {
		t.Error("second Resume succeeded")
	}
	if h.Status() != device.StatusPlaying {
		t.Errorf("status %s, want playing", h.Status())
	}
}

func TestHandle_Parameters(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	h := play(t, d, audiotest.NewRampReader(48000, 1, 1000), false)

	h.SetVolume(0.5)
	h.SetPitch(2)
	h.SetConeAngleOuter(90)
	h.SetAttenuation(3)
	h.SetRelative(false)

	src := al.source(h.source)
	floats := map[int32]float32{alGain: 0.5, alPitch: 2, alConeOuterAngle: 90, alRolloffFactor: 3}
	for param, want := range floats {
		if got := src.floats[param]; got != want {
			t.Errorf("param 0x%x = %v, want %v", param, got, want)
		}
	}
	if src.ints[alSourceRelative] != 0 {
		t.Error("source still relative")
	}
	if h.SetPitch(0) {
		t.Error("zero pitch accepted")
	}
	if h.Pitch() != 2 || h.Attenuation() != 3 || h.Relative() {
		t.Error("getters do not reflect the setters")
	}

	h.Stop()
	if h.SetVolume(1) {
		t.Error("SetVolume succeeded on a stopped voice")
	}
	if h.Volume() != 0 {
		t.Error("stopped voice reports a volume")
	}
}

func TestDevice_Listener(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)

	if al.model != alInverseDistanceClamped {
		t.Errorf("initial distance model 0x%x", al.model)
	}
	d.SetDistanceModel(device.DistanceLinear)
	if al.model != alLinearDistance || d.DistanceModel() != device.DistanceLinear {
		t.Errorf("distance model 0x%x", al.model)
	}
	d.SetVolume(0.25)
	if al.listener[alGain] != 0.25 || d.Volume() != 0.25 {
		t.Error("listener gain not set")
	}
}

func TestHandle_ConcurrentStop(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	r := audiotest.NewRampReader(48000, 1, 100000)
	h := play(t, d, r, false)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			al.consume(h.source, 1)
			d.update()
		}
	}()

	var (
		wg      sync.WaitGroup
		stopped atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.Stop() {
				stopped.Add(1)
			}
		}()
	}
	wg.Wait()
	<-done

	if stopped.Load() != 1 {
		t.Errorf("%d Stop calls succeeded, want 1", stopped.Load())
	}
	if r.Closed() != 1 {
		t.Errorf("reader closed %d times", r.Closed())
	}
	if len(al.deletedSources) != 1 {
		t.Errorf("source deleted %d times", len(al.deletedSources))
	}
}

func TestDevice_StreamingGoroutineRestarts(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al, device.WithPollInterval(time.Millisecond))

	running := func() bool {
		d.threadMu.Lock()
		defer d.threadMu.Unlock()
		return d.running
	}
	waitIdle := func() {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for running() {
			if time.Now().After(deadline) {
				t.Fatal("streaming goroutine did not exit")
			}
			time.Sleep(time.Millisecond)
		}
	}

	h := play(t, d, audiotest.NewRampReader(48000, 1, 100000), false)
	if !running() {
		t.Fatal("streaming goroutine not started")
	}
	h.Stop()
	waitIdle()

	play(t, d, audiotest.NewRampReader(48000, 1, 100000), false)
	if !running() {
		t.Error("streaming goroutine not restarted")
	}
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()

	al := newFakeAL()
	d := newTestDevice(t, al)
	r := audiotest.NewRampReader(48000, 1, 1000)
	h := play(t, d, r, true)

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if h.Status() != device.StatusInvalid || r.Closed() != 1 {
		t.Error("Close left the voice alive")
	}
	if !al.destroyed || !al.closedDevice {
		t.Error("native context or device not released")
	}
	if _, err := d.Play(audiotest.NewRampReader(48000, 1, 10), false); !errors.Is(err, device.ErrClosed) {
		t.Errorf("Play after Close: %v", err)
	}
}

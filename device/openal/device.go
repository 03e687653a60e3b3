// SPDX-License-Identifier: EPL-2.0

package openal

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/internal/rt"
	"github.com/ik5/audmix/vec"
)

// cycleBuffers is the number of native buffers each voice rotates through.
const cycleBuffers = 3

// Device plays voices through OpenAL sources. Every voice streams its
// reader into a ring of native buffers that a dedicated goroutine refills
// while anything is playing.
type Device struct {
	al       api
	cfg      *device.Config
	log      *slog.Logger
	specs    audio.DeviceSpecs
	alDevice uintptr
	ctx      uintptr

	gate device.Gate

	// mu guards everything below and every handle
	mu            sync.Mutex
	playing       []*handle
	paused        []*handle
	volume        float32
	location      vec.Vec3
	velocity      vec.Vec3
	orientation   vec.Quat
	speedOfSound  float32
	dopplerFactor float32
	model         device.DistanceModel
	closed        bool
	samples       []float32
	pcm           []byte

	threadMu sync.Mutex
	running  bool
	quit     chan struct{}
	wg       sync.WaitGroup
}

var _ device.SpatialDevice = (*Device)(nil)

// New loads the system OpenAL library and opens its default device.
func New(opts ...device.Option) (*Device, error) {
	cfg, err := device.NewConfig(opts...)
	if err != nil {
		return nil, audio.NewError(audio.KindOpenAL, err, "configuring device")
	}

	al, err := loadNative(cfg.Library)
	if err != nil {
		return nil, audio.NewError(audio.KindOpenAL, err, "loading library")
	}
	return newDevice(al, cfg)
}

// Open is the device.OpenFunc of the OpenAL backend.
func Open(opts ...device.Option) (device.Device, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// newDevice opens the default native device and makes a context for it
// current. Failures release what was acquired in reverse order.
func newDevice(al api, cfg *device.Config) (*Device, error) {
	alDevice, err := al.OpenDevice("")
	if err != nil {
		return nil, audio.NewError(audio.KindOpenAL, errors.Wrap(err, "alcOpenDevice"), "opening device")
	}

	rate := int(cfg.Specs.Rate)
	ctx, err := al.CreateContext(alDevice, rate)
	if err != nil {
		al.CloseDevice(alDevice)
		return nil, audio.NewError(audio.KindOpenAL, errors.Wrapf(err, "alcCreateContext at %d Hz", rate), "opening device")
	}

	if err := al.MakeContextCurrent(ctx); err != nil {
		al.DestroyContext(ctx)
		al.CloseDevice(alDevice)
		return nil, audio.NewError(audio.KindOpenAL, errors.Wrap(err, "alcMakeContextCurrent"), "opening device")
	}

	specs := cfg.Specs
	specs.Channels = min(specs.Channels, 2)
	specs.Format = audio.FormatS16

	d := &Device{
		al:            al,
		cfg:           cfg,
		log:           cfg.Logger.With("backend", "openal"),
		specs:         specs,
		alDevice:      alDevice,
		ctx:           ctx,
		volume:        1,
		orientation:   vec.Identity,
		speedOfSound:  343.3,
		dopplerFactor: 1,
		model:         device.DistanceInverseClamped,
		samples:       make([]float32, cfg.StreamBufferSize*2),
		pcm:           make([]byte, cfg.StreamBufferSize*2*2),
	}
	al.DistanceModel(alDistanceModel(d.model))
	d.log.Info("device opened", "rate", rate, "buffer", cfg.StreamBufferSize, "poll", cfg.PollInterval)
	return d, nil
}

func (d *Device) Specs() audio.DeviceSpecs { return d.specs }

func (d *Device) PlayFactory(f audio.Factory, keep bool) (device.Handle, error) {
	r, err := f.CreateReader()
	if err != nil {
		return nil, errors.Wrap(err, "creating reader")
	}

	h, err := d.Play(r, keep)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return h, nil
}

func (d *Device) StopAll() {
	d.mu.Lock()
	stopped := slices.Concat(d.playing, d.paused)
	for _, h := range stopped {
		h.status = device.StatusInvalid
		h.release()
	}
	d.playing, d.paused = nil, nil
	d.mu.Unlock()

	for _, h := range stopped {
		h.closeReader()
	}
}

// Lock keeps the streaming goroutine from refilling until the matching
// Unlock.
func (d *Device) Lock()   { d.gate.Lock() }
func (d *Device) Unlock() { d.gate.Unlock() }

func (d *Device) Volume() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.volume
}

func (d *Device) SetVolume(volume float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.volume = volume
	d.al.Listenerf(alGain, volume)
}

// Close stops every voice, waits for the streaming goroutine and releases
// the native context and device.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.StopAll()

	d.threadMu.Lock()
	if d.running {
		close(d.quit)
		d.running = false
	}
	d.threadMu.Unlock()
	d.wg.Wait()

	_ = d.al.MakeContextCurrent(0)
	d.al.DestroyContext(d.ctx)
	d.al.CloseDevice(d.alDevice)
	d.log.Info("device closed")
	return nil
}

// ensureStreaming starts the streaming goroutine unless it runs already.
// A goroutine that decided to exit is joined first.
func (d *Device) ensureStreaming() {
	d.threadMu.Lock()
	defer d.threadMu.Unlock()

	if d.running {
		return
	}
	d.wg.Wait()

	d.mu.Lock()
	idle := len(d.playing) == 0 || d.closed
	d.mu.Unlock()
	if idle {
		return
	}

	d.running = true
	d.quit = make(chan struct{})
	d.wg.Add(1)
	go d.stream(d.quit)
}

// stream refills the voices every poll interval until nothing plays.
func (d *Device) stream(quit <-chan struct{}) {
	defer d.wg.Done()

	release, err := rt.Boost()
	if err != nil {
		d.log.Debug("streaming without raised priority", "error", err)
	}
	defer release()

	d.log.Debug("streaming started")
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			d.log.Debug("streaming stopped")
			return
		case <-ticker.C:
		}

		if d.update() {
			continue
		}

		d.threadMu.Lock()
		d.mu.Lock()
		idle := len(d.playing) == 0
		d.mu.Unlock()
		if idle {
			d.running = false
			d.threadMu.Unlock()
			d.log.Debug("streaming idle")
			return
		}
		d.threadMu.Unlock()
	}
}

// ended is a voice whose playback finished during an update.
type ended struct {
	h        *handle
	callback func(device.Handle)
	release  bool
}

// update runs one refill pass over the playing voices and reports whether
// any voice is still playing.
func (d *Device) update() bool {
	d.gate.Enter()
	d.mu.Lock()
	d.al.SuspendContext(d.ctx)

	var done []ended
	for _, h := range d.playing {
		if !h.stream() {
			done = append(done, ended{h: h, callback: h.stopCallback, release: !h.keep})
		}
	}
	for _, e := range done {
		d.playing = remove(d.playing, e.h)
		if e.release {
			e.h.status = device.StatusInvalid
			e.h.release()
		} else {
			e.h.status = device.StatusStopped
			d.paused = append(d.paused, e.h)
		}
	}

	d.al.ProcessContext(d.ctx)
	active := len(d.playing) > 0
	d.mu.Unlock()
	d.gate.Leave()

	for _, e := range done {
		if e.release {
			e.h.closeReader()
		}
		d.log.Debug("handle ended", "id", e.h.id, "kept", !e.release)
		if e.callback != nil {
			e.callback(e.h)
		}
	}
	return active
}

func (d *Device) ListenerLocation() vec.Vec3 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.location
}

func (d *Device) SetListenerLocation(v vec.Vec3) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.location = v
	d.al.Listener3f(alPosition, v)
}

func (d *Device) ListenerVelocity() vec.Vec3 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.velocity
}

func (d *Device) SetListenerVelocity(v vec.Vec3) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.velocity = v
	d.al.Listener3f(alVelocity, v)
}

func (d *Device) ListenerOrientation() vec.Quat {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.orientation
}

// SetListenerOrientation hands OpenAL the look-at and up vectors of q.
func (d *Device) SetListenerOrientation(q vec.Quat) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.orientation = q
	at, up := q.LookAt(), q.Up()
	d.al.Listenerfv(alOrientation, []float32{at.X, at.Y, at.Z, up.X, up.Y, up.Z})
}

func (d *Device) SpeedOfSound() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.speedOfSound
}

func (d *Device) SetSpeedOfSound(speed float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.speedOfSound = speed
	d.al.SpeedOfSound(speed)
}

func (d *Device) DopplerFactor() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.dopplerFactor
}

func (d *Device) SetDopplerFactor(factor float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dopplerFactor = factor
	d.al.DopplerFactor(factor)
}

func (d *Device) DistanceModel() device.DistanceModel {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.model
}

func (d *Device) SetDistanceModel(model device.DistanceModel) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.model = model
	d.al.DistanceModel(alDistanceModel(model))
}

func alDistanceModel(model device.DistanceModel) int32 {
	switch model {
	case device.DistanceInverse:
		return alInverseDistance
	case device.DistanceInverseClamped:
		return alInverseDistanceClamped
	case device.DistanceLinear:
		return alLinearDistance
	case device.DistanceLinearClamped:
		return alLinearDistanceClamped
	case device.DistanceExponent:
		return alExponentDistance
	case device.DistanceExponentClamped:
		return alExponentDistanceClamped
	}
	return alNone
}

func remove(list []*handle, h *handle) []*handle {
	if i := slices.Index(list, h); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

// SPDX-License-Identifier: EPL-2.0

package device

import (
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/vec"
)

// SoftwareDevice mixes every voice in software and hands the result to a
// backend. Backends embed it, call Mix or MixFloat from their output
// goroutine and receive transport changes through the hook passed to
// NewSoftwareDevice.
//
// mu guards the handle lists, the handles and the listener. A mix cycle
// additionally holds the gate, which Lock and Unlock expose to callers.
type SoftwareDevice struct {
	gate Gate
	// mixed by the goroutine that calls Lock, see ReadDevice
	pulled bool

	mu       sync.Mutex
	specs    audio.DeviceSpecs
	mixer    *audio.Mixer
	scratch  []float32
	playing  []*softwareHandle
	paused   []*softwareHandle
	volume   float32
	listener listener
	closed   bool

	// transport is told when the first voice starts and the last one ends.
	// It runs with hookMu held and must not wait for the mixing goroutine.
	hookMu      sync.Mutex
	transport   func(playing bool)
	transportOn bool

	log *slog.Logger
}

// NewSoftwareDevice returns a device mixing to specs. transport may be nil.
func NewSoftwareDevice(specs audio.DeviceSpecs, transport func(playing bool), logger *slog.Logger) *SoftwareDevice {
	return &SoftwareDevice{
		specs:  specs,
		mixer:  audio.NewMixer(specs),
		volume: 1,
		listener: listener{
			orientation:   vec.Identity,
			speedOfSound:  343.3,
			dopplerFactor: 1,
			model:         DistanceInverseClamped,
		},
		transport: transport,
		log:       logger,
	}
}

func (d *SoftwareDevice) Specs() audio.DeviceSpecs {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.specs
}

// Logger returns the device logger.
func (d *SoftwareDevice) Logger() *slog.Logger { return d.log }

// Play wraps r in the pitch, resample and channel mapping stages that adapt
// it to the device and starts it.
func (d *SoftwareDevice) Play(r audio.Reader, keep bool) (Handle, error) {
	if r == nil {
		return nil, ErrNilReader
	}
	specs := r.Specs()
	if !specs.Valid() {
		return nil, errors.Wrapf(audio.ErrInvalidSpecs, "playing %+v", specs)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "generating handle id")
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	pitch := audio.NewPitchReader(r, 1)
	resampler := audio.NewResampler(pitch, d.specs.Rate)
	h := &softwareHandle{
		dev:        d,
		id:         id,
		reader:     r,
		pitch:      pitch,
		resampler:  resampler,
		mapper:     audio.NewChannelMapper(resampler, d.specs.Channels),
		mono:       specs.Channels == 1,
		status:     StatusPlaying,
		keep:       keep,
		loop:       Finite(0),
		userVolume: 1,
		userPitch:  1,
		emitter:    defaultEmitter(),
		gain:       1,
	}
	d.playing = append(d.playing, h)
	d.mu.Unlock()

	d.log.Debug("handle playing", "id", id, "rate", specs.Rate, "channels", specs.Channels, "keep", keep)
	d.syncTransport()
	return h, nil
}

func (d *SoftwareDevice) PlayFactory(f audio.Factory, keep bool) (Handle, error) {
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

func (d *SoftwareDevice) StopAll() {
	d.mu.Lock()
	stopped := slices.Concat(d.playing, d.paused)
	for _, h := range stopped {
		h.status = StatusInvalid
	}
	d.playing, d.paused = nil, nil
	d.mu.Unlock()

	for _, h := range stopped {
		h.close()
	}
	d.syncTransport()
}

// Lock keeps the mixer from running until the matching Unlock.
func (d *SoftwareDevice) Lock()   { d.gate.Lock() }
func (d *SoftwareDevice) Unlock() { d.gate.Unlock() }

func (d *SoftwareDevice) Volume() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.volume
}

func (d *SoftwareDevice) SetVolume(volume float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.volume = volume
}

// Playing reports whether any voice is playing.
func (d *SoftwareDevice) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.playing) > 0
}

// Close stops every voice and the transport. Further Play calls fail.
func (d *SoftwareDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.StopAll()
	return nil
}

// SetSpecs changes the rate and channel count voices are adapted to. The
// native format stays as it is.
func (d *SoftwareDevice) SetSpecs(specs audio.Specs) {
	if !specs.Valid() {
		return
	}

	if d.enter() {
		defer d.gate.Leave()
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.specs.Specs = specs
	d.mixer.SetSpecs(d.specs)
	for _, h := range slices.Concat(d.playing, d.paused) {
		h.resampler.SetRate(specs.Rate)
		h.mapper.SetChannels(specs.Channels)
	}
}

// Mix renders frames frames into dst in the native format and returns the
// number of bytes written.
func (d *SoftwareDevice) Mix(dst []byte, frames int) int {
	entered := d.enter()
	d.mu.Lock()
	ended := d.mixVoices(frames)
	n := d.mixer.Read(dst, d.volume)
	d.mu.Unlock()
	if entered {
		d.gate.Leave()
	}

	d.finish(ended)
	return n
}

// MixFloat renders frames frames into dst as float32 samples and returns
// the number of samples written.
func (d *SoftwareDevice) MixFloat(dst []float32, frames int) int {
	entered := d.enter()
	d.mu.Lock()
	ended := d.mixVoices(frames)
	n := d.mixer.ReadFloat32(dst, d.volume)
	d.mu.Unlock()
	if entered {
		d.gate.Leave()
	}

	d.finish(ended)
	return n
}

var _ SpatialDevice = (*SoftwareDevice)(nil)

// enter takes the gate for one mix cycle and reports whether it did. A
// pulled device mixes inside its caller's Lock without waiting for it.
func (d *SoftwareDevice) enter() bool {
	if d.pulled {
		return d.gate.EnterShared()
	}
	d.gate.Enter()
	return true
}

// retired is a voice whose sound ended during a mix cycle.
type retired struct {
	h        *softwareHandle
	callback func(Handle)
	release  bool
}

// mixVoices reads every playing voice into the mixer and retires those
// whose sound ended. Must be called with mu held.
func (d *SoftwareDevice) mixVoices(frames int) []retired {
	d.mixer.Clear(frames)

	ch := d.specs.Channels
	if cap(d.scratch) < frames*ch {
		d.scratch = make([]float32, frames*ch)
	}
	buf := d.scratch[:frames*ch]

	var ended []retired
	for _, h := range d.playing {
		h.update()
		if !h.render(buf, frames, ch) {
			ended = append(ended, retired{h: h, callback: h.stopCallback, release: !h.keep})
		}
	}

	// the list is not touched while it is being iterated
	for _, r := range ended {
		d.playing = remove(d.playing, r.h)
		if r.release {
			r.h.status = StatusInvalid
		} else {
			r.h.status = StatusStopped
			d.paused = append(d.paused, r.h)
		}
	}
	return ended
}

// finish releases retired voices and runs their stop callbacks once every
// lock is released.
func (d *SoftwareDevice) finish(ended []retired) {
	for _, r := range ended {
		if r.release {
			r.h.close()
		}
		d.log.Debug("handle ended", "id", r.h.id, "kept", !r.release)
		if r.callback != nil {
			r.callback(r.h)
		}
	}
	if len(ended) > 0 {
		d.syncTransport()
	}
}

// syncTransport starts or stops the backend transport to match the
// playing list.
func (d *SoftwareDevice) syncTransport() {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()

	d.mu.Lock()
	want := len(d.playing) > 0 && !d.closed
	d.mu.Unlock()

	if want == d.transportOn {
		return
	}
	d.transportOn = want
	d.log.Debug("transport", "playing", want)
	if d.transport != nil {
		d.transport(want)
	}
}

func (d *SoftwareDevice) ListenerLocation() vec.Vec3 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.listener.location
}

func (d *SoftwareDevice) SetListenerLocation(v vec.Vec3) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listener.location = v
}

func (d *SoftwareDevice) ListenerVelocity() vec.Vec3 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.listener.velocity
}

func (d *SoftwareDevice) SetListenerVelocity(v vec.Vec3) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listener.velocity = v
}

func (d *SoftwareDevice) ListenerOrientation() vec.Quat {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.listener.orientation
}

func (d *SoftwareDevice) SetListenerOrientation(q vec.Quat) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listener.orientation = q
}

func (d *SoftwareDevice) SpeedOfSound() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.listener.speedOfSound
}

func (d *SoftwareDevice) SetSpeedOfSound(speed float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listener.speedOfSound = speed
}

func (d *SoftwareDevice) DopplerFactor() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.listener.dopplerFactor
}

func (d *SoftwareDevice) SetDopplerFactor(factor float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listener.dopplerFactor = factor
}

func (d *SoftwareDevice) DistanceModel() DistanceModel {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.listener.model
}

func (d *SoftwareDevice) SetDistanceModel(model DistanceModel) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listener.model = model
}

func remove(list []*softwareHandle, h *softwareHandle) []*softwareHandle {
	if i := slices.Index(list, h); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

// readFull reads until dst is full; io.EOF only when the sound ended.
func readFull(r audio.Reader, dst []float32) (int, error) {
	n, err := audio.ReadFull(r, dst)
	if err != nil && err != io.EOF {
		return n, errors.Wrap(err, "reading voice")
	}
	return n, err
}

// SPDX-License-Identifier: EPL-2.0

package device

import (
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
	"github.com/ik5/audmix/vec"
)

// softwareHandle is a voice of a SoftwareDevice. Every field after dev and
// id is guarded by dev.mu.
type softwareHandle struct {
	dev *SoftwareDevice
	id  uuid.UUID

	// reader -> pitch -> resampler -> mapper
	reader    audio.Reader
	pitch     *audio.PitchReader
	resampler *audio.Resampler
	mapper    *audio.ChannelMapper
	mono      bool

	status       Status
	keep         bool
	loop         LoopMode
	userVolume   float32
	userPitch    float32
	pan          float32
	emitter      emitter
	stopCallback func(Handle)

	// sound time in seconds
	position float64
	// gain of the current mix cycle
	gain float32
}

var (
	_ SpatialHandle = (*softwareHandle)(nil)
	_ Panner        = (*softwareHandle)(nil)
)

// update recomputes gain, pitch and panning for the next mix cycle.
func (h *softwareHandle) update() {
	if !h.mono {
		h.gain = h.userVolume
		h.pitch.SetPitch(h.userPitch)
		return
	}

	p := spatialize(&h.dev.listener, &h.emitter, h.userVolume, h.userPitch, h.pan)
	h.gain = p.gain
	h.pitch.SetPitch(p.pitch)
	h.mapper.SetMonoAngle(p.angle)
}

// render mixes frames frames of the voice, looping as its loop mode
// allows. It reports false once the sound ended.
func (h *softwareHandle) render(buf []float32, frames, ch int) bool {
	pos := 0
	restarted := false
	for {
		n, err := readFull(h.mapper, buf[pos*ch:frames*ch])
		got := n / ch
		h.dev.mixer.Mix(buf[pos*ch:], pos, got, h.gain)
		h.position += float64(got) * float64(h.pitch.Pitch()) / h.dev.specs.Rate
		pos += got

		switch {
		case err == nil:
			return true
		case err != io.EOF:
			h.dev.log.Warn("voice failed, ending it", "id", h.id, "error", err)
			return false
		case !h.loop.Remaining():
			return false
		case got == 0 && restarted:
			// nothing to loop over
			return false
		}

		h.loop = h.loop.Next()
		if err := h.mapper.Seek(0); err != nil {
			h.dev.log.Warn("voice cannot loop", "id", h.id, "error", err)
			return false
		}
		h.position = 0
		restarted = true

		if pos >= frames {
			return true
		}
	}
}

func (h *softwareHandle) close() {
	if err := h.mapper.Close(); err != nil {
		h.dev.log.Warn("closing voice", "id", h.id, "error", err)
	}
}

func (h *softwareHandle) ID() uuid.UUID { return h.id }

func (h *softwareHandle) Pause() bool {
	d := h.dev
	d.mu.Lock()
	if h.status != StatusPlaying {
		d.mu.Unlock()
		return false
	}
	d.playing = remove(d.playing, h)
	d.paused = append(d.paused, h)
	h.status = StatusPaused
	d.mu.Unlock()

	d.syncTransport()
	return true
}

func (h *softwareHandle) Resume() bool {
	d := h.dev
	d.mu.Lock()
	if h.status != StatusPaused {
		d.mu.Unlock()
		return false
	}
	d.paused = remove(d.paused, h)
	d.playing = append(d.playing, h)
	h.status = StatusPlaying
	d.mu.Unlock()

	d.syncTransport()
	return true
}

func (h *softwareHandle) Stop() bool {
	d := h.dev
	d.mu.Lock()
	if h.status == StatusInvalid {
		d.mu.Unlock()
		return false
	}
	d.playing = remove(d.playing, h)
	d.paused = remove(d.paused, h)
	h.status = StatusInvalid
	d.mu.Unlock()

	h.close()
	d.log.Debug("handle stopped", "id", h.id)
	d.syncTransport()
	return true
}

func (h *softwareHandle) Keep() bool {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	return h.keep
}

func (h *softwareHandle) SetKeep(keep bool) bool {
	return h.set(func() { h.keep = keep })
}

func (h *softwareHandle) Seek(position float64) bool {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.status == StatusInvalid {
		return false
	}

	rate := h.reader.Specs().Rate
	frame := int(math.Round(max(position, 0) * rate))
	if err := h.resampler.SeekSource(frame); err != nil {
		h.dev.log.Warn("seek failed", "id", h.id, "position", position, "error", err)
		return false
	}
	h.position = float64(frame) / rate

	if h.status == StatusStopped {
		h.status = StatusPaused
	}
	return true
}

func (h *softwareHandle) Position() float64 {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.status == StatusInvalid {
		return 0
	}
	return h.position
}

func (h *softwareHandle) Status() Status {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	return h.status
}

func (h *softwareHandle) Volume() float32 {
	return get(h, func() float32 { return h.userVolume })
}

func (h *softwareHandle) SetVolume(volume float32) bool {
	return h.set(func() { h.userVolume = volume })
}

func (h *softwareHandle) Pitch() float32 {
	return get(h, func() float32 { return h.userPitch })
}

func (h *softwareHandle) SetPitch(pitch float32) bool {
	if pitch <= 0 {
		return false
	}
	return h.set(func() { h.userPitch = pitch })
}

func (h *softwareHandle) LoopMode() LoopMode {
	return get(h, func() LoopMode { return h.loop })
}

// SetLoopMode makes a stopped handle resumable again when more passes
// remain.
func (h *softwareHandle) SetLoopMode(mode LoopMode) bool {
	return h.set(func() {
		if h.status == StatusStopped && mode.Remaining() {
			h.status = StatusPaused
		}
		h.loop = mode
	})
}

func (h *softwareHandle) SetStopCallback(fn func(Handle)) bool {
	return h.set(func() { h.stopCallback = fn })
}

func (h *softwareHandle) Panning() float32 {
	return get(h, func() float32 { return h.pan })
}

func (h *softwareHandle) SetPanning(pan float32) bool {
	return h.set(func() { h.pan = utils.Clamp(-1, pan, 1) })
}

func (h *softwareHandle) Location() vec.Vec3 {
	return get(h, func() vec.Vec3 { return h.emitter.location })
}

func (h *softwareHandle) SetLocation(v vec.Vec3) bool {
	return h.set(func() { h.emitter.location = v })
}

func (h *softwareHandle) Velocity() vec.Vec3 {
	return get(h, func() vec.Vec3 { return h.emitter.velocity })
}

func (h *softwareHandle) SetVelocity(v vec.Vec3) bool {
	return h.set(func() { h.emitter.velocity = v })
}

func (h *softwareHandle) Orientation() vec.Quat {
	return get(h, func() vec.Quat { return h.emitter.orientation })
}

func (h *softwareHandle) SetOrientation(q vec.Quat) bool {
	return h.set(func() { h.emitter.orientation = q })
}

func (h *softwareHandle) Relative() bool {
	return get(h, func() bool { return h.emitter.relative })
}

func (h *softwareHandle) SetRelative(relative bool) bool {
	return h.set(func() { h.emitter.relative = relative })
}

func (h *softwareHandle) VolumeMaximum() float32 {
	return get(h, func() float32 { return h.emitter.volumeMax })
}

func (h *softwareHandle) SetVolumeMaximum(volume float32) bool {
	return h.set(func() { h.emitter.volumeMax = volume })
}

func (h *softwareHandle) VolumeMinimum() float32 {
	return get(h, func() float32 { return h.emitter.volumeMin })
}

func (h *softwareHandle) SetVolumeMinimum(volume float32) bool {
	return h.set(func() { h.emitter.volumeMin = volume })
}

func (h *softwareHandle) DistanceMaximum() float32 {
	return get(h, func() float32 { return h.emitter.distanceMax })
}

func (h *softwareHandle) SetDistanceMaximum(distance float32) bool {
	return h.set(func() { h.emitter.distanceMax = distance })
}

func (h *softwareHandle) DistanceReference() float32 {
	return get(h, func() float32 { return h.emitter.distanceRef })
}

func (h *softwareHandle) SetDistanceReference(distance float32) bool {
	return h.set(func() { h.emitter.distanceRef = distance })
}

func (h *softwareHandle) Attenuation() float32 {
	return get(h, func() float32 { return h.emitter.attenuation })
}

func (h *softwareHandle) SetAttenuation(factor float32) bool {
	return h.set(func() { h.emitter.attenuation = factor })
}

func (h *softwareHandle) ConeAngleOuter() float32 {
	return get(h, func() float32 { return h.emitter.coneOuter })
}

func (h *softwareHandle) SetConeAngleOuter(angle float32) bool {
	return h.set(func() { h.emitter.coneOuter = angle })
}

func (h *softwareHandle) ConeAngleInner() float32 {
	return get(h, func() float32 { return h.emitter.coneInner })
}

func (h *softwareHandle) SetConeAngleInner(angle float32) bool {
	return h.set(func() { h.emitter.coneInner = angle })
}

func (h *softwareHandle) ConeVolumeOuter() float32 {
	return get(h, func() float32 { return h.emitter.coneVolumeOuter })
}

func (h *softwareHandle) SetConeVolumeOuter(volume float32) bool {
	return h.set(func() { h.emitter.coneVolumeOuter = volume })
}

// set applies fn under the device lock unless the handle is invalid.
func (h *softwareHandle) set(fn func()) bool {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.status == StatusInvalid {
		return false
	}
	fn()
	return true
}

// get reads a field under the device lock; invalid handles yield the zero
// value.
func get[T any](h *softwareHandle, fn func() T) T {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	var zero T
	if h.status == StatusInvalid {
		return zero
	}
	return fn()
}

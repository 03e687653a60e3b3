// SPDX-License-Identifier: EPL-2.0

package openal

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/utils"
	"github.com/ik5/audmix/vec"
)

// handle is a voice bound to one OpenAL source. Every field after dev and
// id is guarded by dev.mu.
type handle struct {
	dev *Device
	id  uuid.UUID

	reader   audio.Reader
	channels int
	rate     int
	format   int32

	source   uint32
	buffers  []uint32
	frames   [cycleBuffers]int
	current  int // oldest queued slot
	count    int // queued slots
	played   int
	eos      bool
	released bool

	status       device.Status
	keep         bool
	loop         device.LoopMode
	stopCallback func(device.Handle)

	volume          float32
	pitch           float32
	location        vec.Vec3
	velocity        vec.Vec3
	orientation     vec.Quat
	relative        bool
	volumeMax       float32
	volumeMin       float32
	distanceMax     float32
	distanceRef     float32
	attenuation     float32
	coneOuter       float32
	coneInner       float32
	coneVolumeOuter float32
}

var _ device.SpatialHandle = (*handle)(nil)

// Play streams r through a new source. Sounds with more than two channels
// are mixed down to stereo first.
func (d *Device) Play(r audio.Reader, keep bool) (device.Handle, error) {
	if r == nil {
		return nil, device.ErrNilReader
	}
	specs := r.Specs()
	if !specs.Valid() {
		return nil, errors.Wrapf(audio.ErrInvalidSpecs, "playing %+v", specs)
	}
	if specs.Channels > 2 {
		r = audio.NewChannelMapper(r, 2)
		specs = r.Specs()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "generating handle id")
	}

	h := &handle{
		dev:             d,
		id:              id,
		reader:          r,
		channels:        specs.Channels,
		rate:            int(math.Round(specs.Rate)),
		format:          alFormatMono16,
		status:          device.StatusPlaying,
		keep:            keep,
		loop:            device.Finite(0),
		volume:          1,
		pitch:           1,
		orientation:     vec.Identity,
		relative:        true,
		volumeMax:       1,
		distanceMax:     math.MaxFloat32,
		distanceRef:     1,
		attenuation:     1,
		coneOuter:       360,
		coneInner:       360,
		coneVolumeOuter: 0,
	}
	if specs.Channels == 2 {
		h.format = alFormatStereo16
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, device.ErrClosed
	}
	if err := h.open(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.playing = append(d.playing, h)
	d.mu.Unlock()

	d.log.Debug("handle playing", "id", id, "rate", h.rate, "channels", h.channels, "keep", keep)
	d.ensureStreaming()
	return h, nil
}

// open acquires the buffers and the source, queues the first buffers and
// starts playback. Must be called with dev.mu held.
func (h *handle) open() error {
	al := h.dev.al

	buffers, err := al.GenBuffers(cycleBuffers)
	if err != nil {
		return audio.NewError(audio.KindOpenAL, errors.Wrap(err, "alGenBuffers"), "creating voice")
	}

	source, err := al.GenSource()
	if err != nil {
		al.DeleteBuffers(buffers)
		return audio.NewError(audio.KindOpenAL, errors.Wrap(err, "alGenSources"), "creating voice")
	}
	h.buffers, h.source = buffers, source

	if err := h.queue(); err != nil {
		h.release()
		return audio.NewError(audio.KindOpenAL, err, "creating voice")
	}

	al.Sourcei(source, alSourceRelative, 1)
	al.SourcePlay(source)
	return nil
}

// queue fills and queues the ring from its first slot.
func (h *handle) queue() error {
	h.current, h.count = 0, 0
	return h.refill()
}

// refill fills and queues the free ring slots until the ring is full or
// the sound ended.
func (h *handle) refill() error {
	for h.count < cycleBuffers && !h.eos {
		slot := (h.current + h.count) % cycleBuffers
		n, err := h.fill(slot)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := h.dev.al.QueueBuffers(h.source, h.buffers[slot:slot+1]); err != nil {
			return errors.Wrap(err, "alSourceQueueBuffers")
		}
		h.count++
	}
	return nil
}

// fill reads the next chunk of the voice into the buffer at slot and
// returns its frame count.
func (h *handle) fill(slot int) (int, error) {
	d := h.dev
	samples := d.samples[:d.cfg.StreamBufferSize*h.channels]

	n, err := h.read(samples)
	if err != nil {
		return 0, err
	}
	frames := n / h.channels
	h.frames[slot] = frames
	if frames == 0 {
		return 0, nil
	}

	pcm := d.pcm[:frames*h.channels*2]
	for i, s := range samples[:frames*h.channels] {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(utils.Float32ToInt16(s)))
	}
	if err := d.al.BufferData(h.buffers[slot], h.format, pcm, h.rate); err != nil {
		return 0, errors.Wrap(err, "alBufferData")
	}
	return frames, nil
}

// read fills dst, looping the reader as the loop mode allows. It marks the
// voice at its end once the reader is exhausted.
func (h *handle) read(dst []float32) (int, error) {
	pos := 0
	restarted := false
	for pos < len(dst) {
		n, err := audio.ReadFull(h.reader, dst[pos:])
		pos += n

		switch {
		case err == nil:
			return pos, nil
		case err != io.EOF:
			return pos, errors.Wrap(err, "reading voice")
		case !h.loop.Remaining(), n == 0 && restarted:
			h.eos = true
			return pos, nil
		}

		h.loop = h.loop.Next()
		if err := h.reader.Seek(0); err != nil {
			return pos, errors.Wrap(err, "looping voice")
		}
		restarted = true
	}
	return pos, nil
}

// stream unqueues the buffers the source finished with, refills them and
// restarts the source after an underrun. It reports false once the voice
// stopped playing.
func (h *handle) stream() bool {
	al := h.dev.al

	processed := int(al.GetSourcei(h.source, alBuffersProcessed))
	for range processed {
		if _, err := al.UnqueueBuffers(h.source, 1); err != nil {
			h.fail(errors.Wrap(err, "alSourceUnqueueBuffers"))
			return false
		}
		h.played += h.frames[h.current]
		h.current = (h.current + 1) % cycleBuffers
		h.count--
	}

	if err := h.refill(); err != nil {
		h.fail(err)
		return false
	}

	if al.GetSourcei(h.source, alSourceState) != alPlaying {
		if h.eos && h.count == 0 {
			return false
		}
		h.dev.log.Debug("voice underrun", "id", h.id)
		al.SourcePlay(h.source)
	}
	return true
}

// fail ends the voice after a streaming error.
func (h *handle) fail(err error) {
	h.eos = true
	h.dev.al.SourceStop(h.source)
	h.dev.log.Warn("voice failed, ending it", "id", h.id, "error", err)
}

// rewind restarts the ring at frame.
func (h *handle) rewind(frame int) error {
	al := h.dev.al

	al.SourceStop(h.source)
	if queued := int(al.GetSourcei(h.source, alBuffersQueued)); queued > 0 {
		if _, err := al.UnqueueBuffers(h.source, queued); err != nil {
			return errors.Wrap(err, "alSourceUnqueueBuffers")
		}
	}
	if err := h.reader.Seek(frame); err != nil {
		return errors.Wrapf(err, "seeking to frame %d", frame)
	}
	h.eos = false
	h.played = frame

	if err := h.queue(); err != nil {
		return err
	}
	if h.status == device.StatusPlaying {
		al.SourcePlay(h.source)
	}
	return nil
}

// release deletes the source and its buffers once.
func (h *handle) release() {
	if h.released {
		return
	}
	h.released = true

	al := h.dev.al
	al.SourceStop(h.source)
	al.DeleteSource(h.source)
	al.DeleteBuffers(h.buffers)
}

func (h *handle) closeReader() {
	if err := h.reader.Close(); err != nil {
		h.dev.log.Warn("closing voice", "id", h.id, "error", err)
	}
}

func (h *handle) ID() uuid.UUID { return h.id }

func (h *handle) Pause() bool {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if h.status != device.StatusPlaying {
		return false
	}
	d.al.SourcePause(h.source)
	d.playing = remove(d.playing, h)
	d.paused = append(d.paused, h)
	h.status = device.StatusPaused
	return true
}

func (h *handle) Resume() bool {
	d := h.dev
	d.mu.Lock()
	if h.status != device.StatusPaused {
		d.mu.Unlock()
		return false
	}
	d.al.SourcePlay(h.source)
	d.paused = remove(d.paused, h)
	d.playing = append(d.playing, h)
	h.status = device.StatusPlaying
	d.mu.Unlock()

	d.ensureStreaming()
	return true
}

func (h *handle) Stop() bool {
	d := h.dev
	d.mu.Lock()
	if h.status == device.StatusInvalid {
		d.mu.Unlock()
		return false
	}
	d.playing = remove(d.playing, h)
	d.paused = remove(d.paused, h)
	h.status = device.StatusInvalid
	h.release()
	d.mu.Unlock()

	h.closeReader()
	d.log.Debug("handle stopped", "id", h.id)
	return true
}

func (h *handle) Keep() bool {
	return get(h, func() bool { return h.keep })
}

func (h *handle) SetKeep(keep bool) bool {
	return h.set(func() { h.keep = keep })
}

func (h *handle) Seek(position float64) bool {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.status == device.StatusInvalid {
		return false
	}

	frame := int(math.Round(max(position, 0) * float64(h.rate)))
	if err := h.rewind(frame); err != nil {
		h.dev.log.Warn("seek failed", "id", h.id, "position", position, "error", err)
		return false
	}
	if h.status == device.StatusStopped {
		h.status = device.StatusPaused
	}
	return true
}

// Position adds the offset inside the playing buffer to the frames of the
// buffers already played. Looped passes wrap around the sound length.
func (h *handle) Position() float64 {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.status == device.StatusInvalid {
		return 0
	}

	offset := int(h.dev.al.GetSourcei(h.source, alSampleOffset))
	pos := float64(h.played+offset) / float64(h.rate)
	if length := h.reader.Length(); length > 0 {
		if total := float64(length) / float64(h.rate); pos > total {
			pos = math.Mod(pos, total)
		}
	}
	return pos
}

func (h *handle) Status() device.Status {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	return h.status
}

func (h *handle) Volume() float32 {
	return get(h, func() float32 { return h.volume })
}

func (h *handle) SetVolume(volume float32) bool {
	return h.set(func() {
		h.volume = volume
		h.dev.al.Sourcef(h.source, alGain, volume)
	})
}

func (h *handle) Pitch() float32 {
	return get(h, func() float32 { return h.pitch })
}

func (h *handle) SetPitch(pitch float32) bool {
	if pitch <= 0 {
		return false
	}
	return h.set(func() {
		h.pitch = pitch
		h.dev.al.Sourcef(h.source, alPitch, pitch)
	})
}

func (h *handle) LoopMode() device.LoopMode {
	return get(h, func() device.LoopMode { return h.loop })
}

// SetLoopMode restarts a stopped handle from the beginning, paused, when
// more passes remain. A voice whose reader already ended keeps streaming.
func (h *handle) SetLoopMode(mode device.LoopMode) bool {
	return h.set(func() {
		if h.status != device.StatusStopped || !mode.Remaining() {
			h.loop = mode
			if mode.Remaining() {
				h.eos = false
			}
			return
		}

		h.loop = mode.Next()
		if err := h.rewind(0); err != nil {
			h.dev.log.Warn("cannot restart voice", "id", h.id, "error", err)
			h.loop = mode
			return
		}
		h.status = device.StatusPaused
	})
}

func (h *handle) SetStopCallback(fn func(device.Handle)) bool {
	return h.set(func() { h.stopCallback = fn })
}

func (h *handle) Location() vec.Vec3 {
	return get(h, func() vec.Vec3 { return h.location })
}

func (h *handle) SetLocation(v vec.Vec3) bool {
	return h.set(func() {
		h.location = v
		h.dev.al.Source3f(h.source, alPosition, v)
	})
}

func (h *handle) Velocity() vec.Vec3 {
	return get(h, func() vec.Vec3 { return h.velocity })
}

func (h *handle) SetVelocity(v vec.Vec3) bool {
	return h.set(func() {
		h.velocity = v
		h.dev.al.Source3f(h.source, alVelocity, v)
	})
}

func (h *handle) Orientation() vec.Quat {
	return get(h, func() vec.Quat { return h.orientation })
}

// SetOrientation points the source cone along the look-at axis of q.
func (h *handle) SetOrientation(q vec.Quat) bool {
	return h.set(func() {
		h.orientation = q
		h.dev.al.Source3f(h.source, alDirection, q.LookAt())
	})
}

func (h *handle) Relative() bool {
	return get(h, func() bool { return h.relative })
}

func (h *handle) SetRelative(relative bool) bool {
	return h.set(func() {
		h.relative = relative
		var v int32
		if relative {
			v = 1
		}
		h.dev.al.Sourcei(h.source, alSourceRelative, v)
	})
}

func (h *handle) VolumeMaximum() float32 {
	return get(h, func() float32 { return h.volumeMax })
}

func (h *handle) SetVolumeMaximum(volume float32) bool {
	return h.setf(&h.volumeMax, alMaxGain, volume)
}

func (h *handle) VolumeMinimum() float32 {
	return get(h, func() float32 { return h.volumeMin })
}

func (h *handle) SetVolumeMinimum(volume float32) bool {
	return h.setf(&h.volumeMin, alMinGain, volume)
}

func (h *handle) DistanceMaximum() float32 {
	return get(h, func() float32 { return h.distanceMax })
}

func (h *handle) SetDistanceMaximum(distance float32) bool {
	return h.setf(&h.distanceMax, alMaxDistance, distance)
}

func (h *handle) DistanceReference() float32 {
	return get(h, func() float32 { return h.distanceRef })
}

func (h *handle) SetDistanceReference(distance float32) bool {
	return h.setf(&h.distanceRef, alReferenceDist, distance)
}

func (h *handle) Attenuation() float32 {
	return get(h, func() float32 { return h.attenuation })
}

func (h *handle) SetAttenuation(factor float32) bool {
	return h.setf(&h.attenuation, alRolloffFactor, factor)
}

func (h *handle) ConeAngleOuter() float32 {
	return get(h, func() float32 { return h.coneOuter })
}

func (h *handle) SetConeAngleOuter(angle float32) bool {
	return h.setf(&h.coneOuter, alConeOuterAngle, angle)
}

func (h *handle) ConeAngleInner() float32 {
	return get(h, func() float32 { return h.coneInner })
}

func (h *handle) SetConeAngleInner(angle float32) bool {
	return h.setf(&h.coneInner, alConeInnerAngle, angle)
}

func (h *handle) ConeVolumeOuter() float32 {
	return get(h, func() float32 { return h.coneVolumeOuter })
}

func (h *handle) SetConeVolumeOuter(volume float32) bool {
	return h.setf(&h.coneVolumeOuter, alConeOuterGain, volume)
}

// setf stores v in field and forwards it to the source parameter.
func (h *handle) setf(field *float32, param int32, v float32) bool {
	return h.set(func() {
		*field = v
		h.dev.al.Sourcef(h.source, param, v)
	})
}

// set applies fn under the device lock unless the handle is invalid.
func (h *handle) set(fn func()) bool {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.status == device.StatusInvalid {
		return false
	}
	fn()
	return true
}

func get[T any](h *handle, fn func() T) T {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	var zero T
	if h.status == device.StatusInvalid {
		return zero
	}
	return fn()
}

// SPDX-License-Identifier: EPL-2.0

package sequencer

import (
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/vec"
)

// Reader renders a Sequencer. It never ends; stretches without any
// active entry are silence.
//
// Animation changes take effect at frame boundaries only: every read is
// split so that no chunk crosses one.
type Reader struct {
	seq *Sequencer
	log *slog.Logger
	dev *device.ReadDevice

	specs    audio.Specs
	position int
	closed   bool

	// last applied Sequencer.status and Sequencer.sceneStatus
	status      int
	sceneStatus int
	// ordered by entry id
	voices []*voice
}

var _ audio.Reader = (*Reader)(nil)

// NewReader returns a reader positioned at the start of s.
func NewReader(s *Sequencer) *Reader {
	specs := s.Specs()
	return &Reader{
		seq:         s,
		log:         s.log,
		dev:         device.NewReadDevice(audio.DeviceSpecs{Specs: specs, Format: audio.FormatFloat32}, s.log),
		specs:       specs,
		status:      -1,
		sceneStatus: -1,
	}
}

func (r *Reader) Specs() audio.Specs { return r.specs }
func (r *Reader) Seekable() bool     { return true }
func (r *Reader) Length() int        { return -1 }
func (r *Reader) Position() int      { return r.position }
func (r *Reader) Infinite() bool     { return true }

// Seek moves the playhead. Every voice is repositioned on the next read.
func (r *Reader) Seek(frame int) error {
	if r.closed {
		return audio.ErrClosed
	}
	if frame < 0 {
		return errors.Wrapf(ErrInvalidPosition, "seeking to frame %d", frame)
	}

	r.position = frame
	for _, v := range r.voices {
		v.reseek = true
	}
	return nil
}

// ReadSamples fills dst completely. It never returns io.EOF.
func (r *Reader) ReadSamples(dst []float32) (int, error) {
	if r.closed {
		return 0, audio.ErrClosed
	}

	sc := r.seq.scene()
	if !sc.specs.Valid() {
		return 0, errors.Wrapf(audio.ErrInvalidSpecs, "rendering %+v", sc.specs)
	}
	if sc.fps <= 0 {
		return 0, errors.Wrapf(ErrInvalidFPS, "rendering at %g fps", sc.fps)
	}
	if sc.specs != r.specs {
		r.dev.ChangeSpecs(sc.specs)
		r.specs = sc.specs
	}
	if len(dst)%r.specs.Channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if sc.sceneStatus != r.sceneStatus {
		r.dev.SetSpeedOfSound(sc.speedOfSound)
		r.dev.SetDopplerFactor(sc.dopplerFactor)
		r.dev.SetDistanceModel(sc.model)
		r.sceneStatus = sc.sceneStatus
	}
	if sc.status != r.status {
		r.merge(sc.entries)
		r.status = sc.status
	}

	ch := r.specs.Channels
	rate := r.specs.Rate
	frames := len(dst) / ch
	for done := 0; done < frames; {
		t := float64(r.position) / rate
		frame := t * sc.fps

		r.updateListener(float32(frame), sc)
		for _, v := range r.voices {
			v.update(r, t, float32(frame), sc.fps)
		}

		n := min(frames-done, r.untilNextFrame(frame, rate, sc.fps))
		r.dev.ReadFloat(dst[done*ch:(done+n)*ch], n)
		done += n
		r.position += n
	}
	return len(dst), nil
}

// untilNextFrame is the number of samples from the playhead to the next
// animation frame boundary, at least one.
func (r *Reader) untilNextFrame(frame, rate, fps float64) int {
	next := math.Floor(frame+1e-9) + 1
	boundary := int(math.Ceil(next*rate/fps - 1e-6))
	return max(boundary-r.position, 1)
}

func (r *Reader) updateListener(frame float32, sc scene) {
	volume := r.seq.volume.scalar(frame)
	if sc.muted {
		volume = 0
	}
	r.dev.SetVolume(volume)

	loc := r.seq.location.vec3(frame)
	r.dev.SetListenerLocation(loc)
	r.dev.SetListenerVelocity(velocity(r.seq.location, frame, sc.fps))
	r.dev.SetListenerOrientation(r.seq.orientation.quat(frame))
}

// merge matches the voices against the entries. Both lists are ordered by
// id, so one pass creates voices for new entries and stops those whose
// entry is gone.
func (r *Reader) merge(entries []*Entry) {
	next := make([]*voice, 0, len(entries))
	i, j := 0, 0
	for i < len(entries) || j < len(r.voices) {
		switch {
		case j == len(r.voices) || (i < len(entries) && entries[i].id < r.voices[j].entry.id):
			next = append(next, &voice{entry: entries[i]})
			i++
		case i == len(entries) || r.voices[j].entry.id < entries[i].id:
			r.voices[j].stop()
			j++
		default:
			next = append(next, r.voices[j])
			i++
			j++
		}
	}
	r.voices = next
}

// Close stops every voice.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.voices = nil
	return r.dev.Close()
}

// velocity is the forward difference of a location curve in units per
// second.
func velocity(p *Property, frame float32, fps float64) vec.Vec3 {
	return vec.Sub(p.vec3(frame+1), p.vec3(frame)).Scale(float32(fps))
}

// voice mirrors one entry on the reader's device.
type voice struct {
	entry  *Entry
	handle device.Handle
	// the entry counters last applied
	status      int
	posStatus   int
	soundStatus int
	started     bool
	reseek      bool
}

func (v *voice) update(r *Reader, t float64, frame float32, fps float64) {
	s := v.entry.snapshot()

	if !v.started || s.soundStatus != v.soundStatus {
		v.restart(r, s)
	}
	if v.handle == nil {
		return
	}

	if s.status != v.status {
		v.apply(s.params)
		v.status = s.status
	}
	if s.posStatus != v.posStatus || v.reseek {
		v.seek(t, s)
		v.posStatus = s.posStatus
		v.reseek = false
	}

	if s.muted || !s.active(t) {
		v.handle.Pause()
	} else {
		v.handle.Resume()
	}

	e := v.entry
	v.handle.SetVolume(e.volume.scalar(frame))
	v.handle.SetPitch(e.pitch.scalar(frame))
	if p, ok := v.handle.(device.Panner); ok {
		p.SetPanning(e.panning.scalar(frame))
	}
	if sh, ok := v.handle.(device.SpatialHandle); ok {
		sh.SetLocation(e.location.vec3(frame))
		sh.SetVelocity(velocity(e.location, frame, fps))
		sh.SetOrientation(e.orientation.quat(frame))
	}
}

// restart replaces the voice with a paused one of the entry's current
// sound.
func (v *voice) restart(r *Reader, s snapshot) {
	v.stop()
	v.started = true
	v.soundStatus = s.soundStatus
	v.status = s.status - 1
	v.posStatus = s.posStatus - 1
	if s.sound == nil {
		return
	}

	h, err := r.dev.PlayFactory(s.sound, true)
	if err != nil {
		r.log.Warn("entry cannot play", "entry", v.entry.id, "error", err)
		return
	}
	h.Pause()
	v.handle = h
}

// seek positions the sound for sequence time t. Before the entry begins
// the sound waits at its skip offset.
func (v *voice) seek(t float64, s snapshot) {
	v.handle.Seek(max(t-s.begin, 0) + s.skip)
}

func (v *voice) apply(p Params) {
	sh, ok := v.handle.(device.SpatialHandle)
	if !ok {
		return
	}
	sh.SetRelative(p.Relative)
	sh.SetVolumeMaximum(p.VolumeMaximum)
	sh.SetVolumeMinimum(p.VolumeMinimum)
	sh.SetDistanceMaximum(p.DistanceMaximum)
	sh.SetDistanceReference(p.DistanceReference)
	sh.SetAttenuation(p.Attenuation)
	sh.SetConeAngleOuter(p.ConeAngleOuter)
	sh.SetConeAngleInner(p.ConeAngleInner)
	sh.SetConeVolumeOuter(p.ConeVolumeOuter)
}

func (v *voice) stop() {
	if v.handle != nil {
		v.handle.Stop()
		v.handle = nil
	}
}

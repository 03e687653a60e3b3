// SPDX-License-Identifier: EPL-2.0

package sequencer

import (
	"math"
	"sync"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/vec"
)

// Params are the 3D parameters of an entry.
type Params struct {
	Relative          bool
	VolumeMaximum     float32
	VolumeMinimum     float32
	DistanceMaximum   float32
	DistanceReference float32
	Attenuation       float32
	// full cone angles in degrees
	ConeAngleOuter  float32
	ConeAngleInner  float32
	ConeVolumeOuter float32
}

// DefaultParams are the parameters a new entry starts with.
func DefaultParams() Params {
	return Params{
		Relative:          true,
		VolumeMaximum:     1,
		DistanceMaximum:   math.MaxFloat32,
		DistanceReference: 1,
		Attenuation:       1,
		ConeAngleOuter:    360,
		ConeAngleInner:    360,
	}
}

// Entry is one sound placed on the timeline of a Sequencer. Times are in
// seconds of sequence time.
type Entry struct {
	id int

	volume      *Property
	pitch       *Property
	panning     *Property
	location    *Property
	orientation *Property

	mu     sync.Mutex
	sound  audio.Factory
	begin  float64
	end    float64
	skip   float64
	muted  bool
	params Params

	// bumped on every change so readers apply only what moved
	status      int
	posStatus   int
	soundStatus int
}

func newEntry(id int, sound audio.Factory, begin, end, skip float64) *Entry {
	o := vec.Identity.Array()
	return &Entry{
		id:          id,
		volume:      NewProperty(1, 1),
		pitch:       NewProperty(1, 1),
		panning:     NewProperty(1),
		location:    NewProperty(3),
		orientation: NewProperty(4, o[:]...),
		sound:       sound,
		begin:       begin,
		end:         end,
		skip:        skip,
		params:      DefaultParams(),
	}
}

// ID is unique within the sequencer and grows with every Add.
func (e *Entry) ID() int { return e.id }

// Volume is the animated volume, one float.
func (e *Entry) Volume() *Property { return e.volume }

// Pitch is the animated pitch, one float.
func (e *Entry) Pitch() *Property { return e.pitch }

// Panning is the animated panning of non 3D mono sounds from -1 to 1.
func (e *Entry) Panning() *Property { return e.panning }

// Location is the animated position, three floats.
func (e *Entry) Location() *Property { return e.location }

// Orientation is the animated orientation quaternion as w, x, y, z.
func (e *Entry) Orientation() *Property { return e.orientation }

func (e *Entry) Sound() audio.Factory {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.sound
}

// SetSound replaces the sound. Playback restarts from the entry's timeline
// position. A nil sound silences the entry.
func (e *Entry) SetSound(sound audio.Factory) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sound = sound
	e.soundStatus++
	e.posStatus++
}

// Times returns begin, end and skip. A negative end means the entry lasts
// as long as its sound.
func (e *Entry) Times() (begin, end, skip float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.begin, e.end, e.skip
}

// Move places the entry between begin and end, starting skip seconds into
// its sound.
func (e *Entry) Move(begin, end, skip float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.begin == begin && e.end == end && e.skip == skip {
		return
	}
	e.begin, e.end, e.skip = begin, end, skip
	e.posStatus++
}

func (e *Entry) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.muted
}

func (e *Entry) Mute(mute bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.muted = mute
}

func (e *Entry) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.params
}

// UpdateAll replaces every 3D parameter at once.
func (e *Entry) UpdateAll(p Params) {
	e.setParams(func(cur *Params) { *cur = p })
}

func (e *Entry) SetRelative(relative bool) {
	e.setParams(func(p *Params) { p.Relative = relative })
}

func (e *Entry) SetVolumeMaximum(volume float32) {
	e.setParams(func(p *Params) { p.VolumeMaximum = volume })
}

func (e *Entry) SetVolumeMinimum(volume float32) {
	e.setParams(func(p *Params) { p.VolumeMinimum = volume })
}

func (e *Entry) SetDistanceMaximum(distance float32) {
	e.setParams(func(p *Params) { p.DistanceMaximum = distance })
}

func (e *Entry) SetDistanceReference(distance float32) {
	e.setParams(func(p *Params) { p.DistanceReference = distance })
}

func (e *Entry) SetAttenuation(factor float32) {
	e.setParams(func(p *Params) { p.Attenuation = factor })
}

func (e *Entry) SetConeAngleOuter(angle float32) {
	e.setParams(func(p *Params) { p.ConeAngleOuter = angle })
}

func (e *Entry) SetConeAngleInner(angle float32) {
	e.setParams(func(p *Params) { p.ConeAngleInner = angle })
}

func (e *Entry) SetConeVolumeOuter(volume float32) {
	e.setParams(func(p *Params) { p.ConeVolumeOuter = volume })
}

func (e *Entry) setParams(fn func(*Params)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.params
	fn(&e.params)
	if e.params != old {
		e.status++
	}
}

// snapshot is what a reader needs of an entry for one frame.
type snapshot struct {
	sound       audio.Factory
	begin       float64
	end         float64
	skip        float64
	muted       bool
	params      Params
	status      int
	posStatus   int
	soundStatus int
}

func (e *Entry) snapshot() snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return snapshot{
		sound:       e.sound,
		begin:       e.begin,
		end:         e.end,
		skip:        e.skip,
		muted:       e.muted,
		params:      e.params,
		status:      e.status,
		posStatus:   e.posStatus,
		soundStatus: e.soundStatus,
	}
}

// active reports whether the sequence time t lies inside the entry.
func (s *snapshot) active(t float64) bool {
	return t >= s.begin && (s.end < 0 || t < s.end)
}

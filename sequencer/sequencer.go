// SPDX-License-Identifier: EPL-2.0

// Package sequencer arranges sounds on an animated timeline and renders it
// as one endless audio.Reader.
//
// Every Entry is a sound with begin, end and skip times plus per-frame
// curves for volume, pitch, panning, location and orientation. A Reader
// plays the entries on a private device.ReadDevice and applies the curves
// once per animation frame.
package sequencer

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/internal/log"
	"github.com/ik5/audmix/vec"
)

// Sequencer is an audio.Factory producing readers of its timeline. It may
// be changed while readers play it.
type Sequencer struct {
	log *slog.Logger

	volume      *Property
	location    *Property
	orientation *Property

	mu            sync.Mutex
	specs         audio.Specs
	fps           float64
	muted         bool
	speedOfSound  float32
	dopplerFactor float32
	model         device.DistanceModel
	entries       []*Entry
	nextID        int
	// bumped when entries are added or removed
	status int
	// bumped on every change of the listener settings
	sceneStatus int
}

var _ audio.Factory = (*Sequencer)(nil)

// New returns an empty sequence rendered in specs at fps animation frames
// per second.
func New(specs audio.Specs, fps float64, muted bool) *Sequencer {
	o := vec.Identity.Array()
	return &Sequencer{
		log:           log.L().With("component", "sequencer"),
		volume:        NewProperty(1, 1),
		location:      NewProperty(3),
		orientation:   NewProperty(4, o[:]...),
		specs:         specs,
		fps:           fps,
		muted:         muted,
		speedOfSound:  343.3,
		dopplerFactor: 1,
		model:         device.DistanceInverseClamped,
	}
}

// Volume is the animated master volume.
func (s *Sequencer) Volume() *Property { return s.volume }

// Location is the animated listener position.
func (s *Sequencer) Location() *Property { return s.location }

// Orientation is the animated listener orientation as w, x, y, z.
func (s *Sequencer) Orientation() *Property { return s.orientation }

// Add places sound on the timeline. A negative end lasts as long as the
// sound.
func (s *Sequencer) Add(sound audio.Factory, begin, end, skip float64) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := newEntry(s.nextID, sound, begin, end, skip)
	s.nextID++
	s.entries = append(s.entries, e)
	s.status++
	return e
}

// Remove takes e off the timeline. Readers stop its voice on their next
// read.
func (s *Sequencer) Remove(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.Index(s.entries, e); i >= 0 {
		s.entries = slices.Delete(s.entries, i, i+1)
		s.status++
	}
}

// Entries returns the entries ordered by id.
func (s *Sequencer) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.entries)
}

func (s *Sequencer) Specs() audio.Specs {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.specs
}

// SetSpecs changes the output of every reader from its next read on.
func (s *Sequencer) SetSpecs(specs audio.Specs) {
	if !specs.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.specs = specs
	s.sceneStatus++
}

func (s *Sequencer) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

// SetFPS changes the animation frame rate. Non positive rates are ignored.
func (s *Sequencer) SetFPS(fps float64) {
	if fps <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fps = fps
}

func (s *Sequencer) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.muted
}

// Mute silences the whole sequence. Time keeps running.
func (s *Sequencer) Mute(mute bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = mute
}

func (s *Sequencer) SpeedOfSound() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.speedOfSound
}

func (s *Sequencer) SetSpeedOfSound(speed float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.speedOfSound = speed
	s.sceneStatus++
}

func (s *Sequencer) DopplerFactor() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dopplerFactor
}

func (s *Sequencer) SetDopplerFactor(factor float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dopplerFactor = factor
	s.sceneStatus++
}

func (s *Sequencer) DistanceModel() device.DistanceModel {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.model
}

func (s *Sequencer) SetDistanceModel(model device.DistanceModel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = model
	s.sceneStatus++
}

// CreateReader returns a reader positioned at the start of the sequence.
func (s *Sequencer) CreateReader() (audio.Reader, error) {
	return NewReader(s), nil
}

// scene is a copy of the sequence state taken at the start of a read.
type scene struct {
	specs         audio.Specs
	fps           float64
	muted         bool
	speedOfSound  float32
	dopplerFactor float32
	model         device.DistanceModel
	entries       []*Entry
	status        int
	sceneStatus   int
}

func (s *Sequencer) scene() scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	return scene{
		specs:         s.specs,
		fps:           s.fps,
		muted:         s.muted,
		speedOfSound:  s.speedOfSound,
		dopplerFactor: s.dopplerFactor,
		model:         s.model,
		entries:       slices.Clone(s.entries),
		status:        s.status,
		sceneStatus:   s.sceneStatus,
	}
}

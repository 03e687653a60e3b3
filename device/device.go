// SPDX-License-Identifier: EPL-2.0

package device

import (
	"github.com/google/uuid"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/vec"
)

// Status is the lifecycle state of a handle.
type Status int

const (
	// StatusInvalid is terminal: the handle was stopped or never existed.
	StatusInvalid Status = iota
	StatusPlaying
	StatusPaused
	// StatusStopped is a kept handle whose sound ended. It is silent and
	// becomes resumable again after a seek or a loop mode change.
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	}
	return "invalid"
}

// DistanceModel selects the distance attenuation curve of a 3D device.
type DistanceModel int

const (
	// DistanceNone disables distance attenuation.
	DistanceNone DistanceModel = iota
	DistanceInverse
	DistanceInverseClamped
	DistanceLinear
	DistanceLinearClamped
	DistanceExponent
	DistanceExponentClamped
)

func (m DistanceModel) String() string {
	switch m {
	case DistanceInverse:
		return "inverse"
	case DistanceInverseClamped:
		return "inverse-clamped"
	case DistanceLinear:
		return "linear"
	case DistanceLinearClamped:
		return "linear-clamped"
	case DistanceExponent:
		return "exponent"
	case DistanceExponentClamped:
		return "exponent-clamped"
	}
	return "none"
}

func (m DistanceModel) clamped() bool {
	return m == DistanceInverseClamped || m == DistanceLinearClamped || m == DistanceExponentClamped
}

// LoopMode is the number of extra passes a handle plays after its first
// one, or an endless loop.
type LoopMode struct {
	infinite bool
	count    int
}

// Finite returns a mode that replays the sound n more times. Negative n is
// treated as 0.
func Finite(n int) LoopMode { return LoopMode{count: max(n, 0)} }

// Infinite returns a mode that never runs out of loops.
func Infinite() LoopMode { return LoopMode{infinite: true} }

func (l LoopMode) IsInfinite() bool { return l.infinite }

// Count is the number of loops left; -1 for infinite.
func (l LoopMode) Count() int {
	if l.infinite {
		return -1
	}
	return l.count
}

// Remaining reports whether another pass is due.
func (l LoopMode) Remaining() bool { return l.infinite || l.count > 0 }

// Next consumes one loop.
func (l LoopMode) Next() LoopMode {
	if l.infinite || l.count == 0 {
		return l
	}
	return LoopMode{count: l.count - 1}
}

// Device mixes and outputs sounds.
type Device interface {
	Specs() audio.DeviceSpecs
	// Play starts r. With keep set the handle survives the end of the
	// sound in StatusStopped instead of becoming invalid.
	Play(r audio.Reader, keep bool) (Handle, error)
	PlayFactory(f audio.Factory, keep bool) (Handle, error)
	StopAll()
	// Lock keeps the device from mixing until the matching Unlock, so a
	// batch of changes is heard at once. Calls nest.
	Lock()
	Unlock()
	Volume() float32
	SetVolume(volume float32)
	Close() error
}

// SpatialDevice is a device with a listener in 3D space.
type SpatialDevice interface {
	Device
	ListenerLocation() vec.Vec3
	SetListenerLocation(v vec.Vec3)
	ListenerVelocity() vec.Vec3
	SetListenerVelocity(v vec.Vec3)
	ListenerOrientation() vec.Quat
	SetListenerOrientation(q vec.Quat)
	SpeedOfSound() float32
	SetSpeedOfSound(speed float32)
	DopplerFactor() float32
	SetDopplerFactor(factor float32)
	DistanceModel() DistanceModel
	SetDistanceModel(model DistanceModel)
}

// Handle controls one playing sound. Control methods report false when the
// handle is invalid or the change is not allowed in its state.
type Handle interface {
	ID() uuid.UUID
	Pause() bool
	Resume() bool
	Stop() bool
	Keep() bool
	SetKeep(keep bool) bool
	// Seek moves to position seconds into the sound.
	Seek(position float64) bool
	// Position in seconds of sound time.
	Position() float64
	Status() Status
	Volume() float32
	SetVolume(volume float32) bool
	Pitch() float32
	SetPitch(pitch float32) bool
	LoopMode() LoopMode
	SetLoopMode(mode LoopMode) bool
	// SetStopCallback registers fn to run when the sound ends by itself.
	// It runs on the mixing goroutine without any device lock held.
	SetStopCallback(fn func(Handle)) bool
}

// SpatialHandle is a handle positioned in 3D space. Cone angles are full
// opening angles in degrees.
type SpatialHandle interface {
	Handle
	Location() vec.Vec3
	SetLocation(v vec.Vec3) bool
	Velocity() vec.Vec3
	SetVelocity(v vec.Vec3) bool
	Orientation() vec.Quat
	SetOrientation(q vec.Quat) bool
	// Relative handles are positioned relative to the listener.
	Relative() bool
	SetRelative(relative bool) bool
	VolumeMaximum() float32
	SetVolumeMaximum(volume float32) bool
	VolumeMinimum() float32
	SetVolumeMinimum(volume float32) bool
	DistanceMaximum() float32
	SetDistanceMaximum(distance float32) bool
	DistanceReference() float32
	SetDistanceReference(distance float32) bool
	Attenuation() float32
	SetAttenuation(factor float32) bool
	ConeAngleOuter() float32
	SetConeAngleOuter(angle float32) bool
	ConeAngleInner() float32
	SetConeAngleInner(angle float32) bool
	ConeVolumeOuter() float32
	SetConeVolumeOuter(volume float32) bool
}

// Panner is implemented by handles that pan mono sounds which have no 3D
// position. pan runs from -1 (left) to 1 (right).
type Panner interface {
	Panning() float32
	SetPanning(pan float32) bool
}

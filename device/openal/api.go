// SPDX-License-Identifier: EPL-2.0

package openal

import "github.com/ik5/audmix/vec"

// OpenAL enums used by the backend.
const (
	alNoError = 0

	alSourceRelative   = 0x202
	alConeInnerAngle   = 0x1001
	alConeOuterAngle   = 0x1002
	alPitch            = 0x1003
	alPosition         = 0x1004
	alDirection        = 0x1005
	alVelocity         = 0x1006
	alGain             = 0x100A
	alMinGain          = 0x100D
	alMaxGain          = 0x100E
	alOrientation      = 0x100F
	alSourceState      = 0x1010
	alPlaying          = 0x1012
	alStopped          = 0x1014
	alBuffersQueued    = 0x1015
	alBuffersProcessed = 0x1016
	alReferenceDist    = 0x1020
	alRolloffFactor    = 0x1021
	alConeOuterGain    = 0x1022
	alMaxDistance      = 0x1023
	alSampleOffset     = 0x1025

	alFormatMono16   = 0x1101
	alFormatStereo16 = 0x1103

	alNone                    = 0
	alInverseDistance         = 0xD001
	alInverseDistanceClamped  = 0xD002
	alLinearDistance          = 0xD003
	alLinearDistanceClamped   = 0xD004
	alExponentDistance        = 0xD005
	alExponentDistanceClamped = 0xD006

	alcFrequency = 0x1007
	alcTrue      = 1
)

// api is the part of OpenAL and ALC the backend calls. Calls that create
// or fill native objects report failures; the rest are fire and forget.
type api interface {
	OpenDevice(name string) (uintptr, error)
	CreateContext(device uintptr, rate int) (uintptr, error)
	MakeContextCurrent(ctx uintptr) error
	SuspendContext(ctx uintptr)
	ProcessContext(ctx uintptr)
	DestroyContext(ctx uintptr)
	CloseDevice(device uintptr)

	GenBuffers(n int) ([]uint32, error)
	DeleteBuffers(buffers []uint32)
	BufferData(buffer uint32, format int32, data []byte, rate int) error
	GenSource() (uint32, error)
	DeleteSource(source uint32)
	QueueBuffers(source uint32, buffers []uint32) error
	UnqueueBuffers(source uint32, n int) ([]uint32, error)

	SourcePlay(source uint32)
	SourcePause(source uint32)
	SourceStop(source uint32)
	GetSourcei(source uint32, param int32) int32
	Sourcei(source uint32, param int32, v int32)
	Sourcef(source uint32, param int32, v float32)
	Source3f(source uint32, param int32, v vec.Vec3)

	Listenerf(param int32, v float32)
	Listener3f(param int32, v vec.Vec3)
	Listenerfv(param int32, v []float32)
	SpeedOfSound(v float32)
	DopplerFactor(v float32)
	DistanceModel(model int32)
}

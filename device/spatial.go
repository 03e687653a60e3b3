// SPDX-License-Identifier: EPL-2.0

package device

import (
	"github.com/chewxy/math32"

	"github.com/ik5/audmix/utils"
	"github.com/ik5/audmix/vec"
)

// Pitch ratios the doppler effect may produce.
const (
	maxPitch = 10
	minPitch = 1.0 / maxPitch
)

// listener is the receiving end of the 3D computation.
type listener struct {
	location      vec.Vec3
	velocity      vec.Vec3
	orientation   vec.Quat
	speedOfSound  float32
	dopplerFactor float32
	model         DistanceModel
}

// emitter holds the 3D parameters of one source.
type emitter struct {
	location    vec.Vec3
	velocity    vec.Vec3
	orientation vec.Quat
	relative    bool

	volumeMin, volumeMax float32
	distanceMax          float32
	distanceRef          float32
	attenuation          float32
	// full cone angles in degrees
	coneInner, coneOuter float32
	coneVolumeOuter      float32
}

func defaultEmitter() emitter {
	return emitter{
		orientation:     vec.Identity,
		relative:        true,
		volumeMax:       1,
		distanceMax:     math32.MaxFloat32,
		distanceRef:     1,
		attenuation:     1,
		coneInner:       360,
		coneOuter:       360,
		coneVolumeOuter: 0,
	}
}

// voiceParams is what one mix cycle needs from the 3D computation.
type voiceParams struct {
	gain  float32
	pitch float32
	angle float32
}

// spatialize computes gain, pitch and pan angle of a mono source. Sources
// with zero distance to the listener skip doppler and attenuation.
func spatialize(l *listener, e *emitter, volume, pitch, pan float32) voiceParams {
	p := voiceParams{gain: volume, pitch: pitch}
	if volume == 0 {
		p.gain = 0
		return p
	}

	// source to listener
	var sl vec.Vec3
	if e.relative {
		sl = e.location.Neg()
	} else {
		sl = vec.Sub(l.location, e.location)
	}
	distance := sl.Length()

	if distance > 0 {
		if l.dopplerFactor > 0 {
			var vls float32
			if !e.relative {
				vls = vec.Dot(sl, l.velocity) / distance
			}
			vss := vec.Dot(sl, e.velocity) / distance
			p.pitch = clampPitch(dopplerRatio(l.speedOfSound, l.dopplerFactor, vls, vss) * pitch)
		}

		gain := distanceGain(l.model, distance, e.distanceRef, e.distanceMax, e.attenuation)
		gain = min(max(gain, e.volumeMin), e.volumeMax)

		phi := vec.Angle(e.orientation.LookAt(), sl)
		gain *= coneGain(phi, e.coneInner, e.coneOuter, e.coneVolumeOuter)

		p.gain = gain * volume
	}

	p.angle = panAngle(sl, l.orientation, e.relative, pan)
	return p
}

// dopplerRatio is the frequency ratio heard for a listener moving at vls
// and a source moving at vss, both projected on the source to listener
// axis. A source at or above the speed of sound yields the pitch cap.
func dopplerRatio(speedOfSound, factor, vls, vss float32) float32 {
	limit := speedOfSound / factor
	if vss >= limit {
		return maxPitch
	}
	vls = min(vls, limit)
	return (speedOfSound - factor*vls) / (speedOfSound - factor*vss)
}

func clampPitch(p float32) float32 {
	if math32.IsNaN(p) {
		return 1
	}
	return min(max(p, minPitch), maxPitch)
}

// distanceGain applies the attenuation curve of model at distance d.
func distanceGain(model DistanceModel, d, ref, maxDist, att float32) float32 {
	if model.clamped() {
		d = max(min(d, maxDist), ref)
	}

	switch model {
	case DistanceInverse, DistanceInverseClamped:
		return ref / (ref + att*(d-ref))
	case DistanceLinear, DistanceLinearClamped:
		span := maxDist - ref
		if span == 0 {
			if d > ref {
				return 0
			}
			return 1
		}
		return 1 - att*(d-ref)/span
	case DistanceExponent, DistanceExponentClamped:
		if ref == 0 {
			return 0
		}
		return math32.Pow(d/ref, -att)
	}
	return 1
}

// coneGain fades from full volume at the inner cone to outerVolume at the
// outer cone. phi is the angle off the source axis in radians, the cone
// angles are full opening angles in degrees.
func coneGain(phi, inner, outer, outerVolume float32) float32 {
	if outer >= 360 {
		return 1
	}

	// half angles in radians
	in := inner * math32.Pi / 360
	out := outer * math32.Pi / 360

	if out <= in {
		if phi > out {
			return outerVolume
		}
		return 1
	}

	t := (phi - in) / (out - in)
	switch {
	case t > 1:
		return outerVolume
	case t > 0:
		return utils.Lerp(1, outerVolume, t)
	}
	return 1
}

// panAngle is the horizontal angle of the source as seen by the listener,
// in radians, negative to the left. Relative sources straight at the
// listener use the pan value instead.
func panAngle(sl vec.Vec3, orientation vec.Quat, relative bool, pan float32) float32 {
	z, n := orientation.LookAt(), orientation.Up()
	if relative {
		z, n = vec.Identity.LookAt(), vec.Identity.Up()
	}

	// listener to source, projected on the listener's horizontal plane
	a := vec.Sub(n.Scale(vec.Dot(sl, n)/vec.Dot(n, n)), sl)
	if vec.Dot(a, a) == 0 {
		if relative {
			return pan * math32.Pi / 2
		}
		return 0
	}

	phi := vec.Angle(z, a)
	if vec.Dot(vec.Cross(n, z), a) > 0 {
		phi = -phi
	}
	return phi
}

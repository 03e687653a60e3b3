// SPDX-License-Identifier: EPL-2.0

package utils

// Conversions from normalized float samples in [-1, 1] to integer PCM.
// Inputs outside the range are clipped.

func clip(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// Float32ToUint8 converts to unsigned 8-bit PCM centered at 128.
func Float32ToUint8(x float32) uint8 {
	return uint8((clip(x) + 1) * 127.5)
}

// Float32ToInt16 converts to signed 16-bit PCM.
// 32767 is used for both signs to keep the scale symmetric.
func Float32ToInt16(x float32) int16 {
	return int16(clip(x) * 32767.0)
}

// Float32ToInt24 converts to signed 24-bit PCM held in the low bits of an int32.
func Float32ToInt24(x float32) int32 {
	return int32(clip(x) * 8388607.0)
}

// Float32ToInt32 converts to signed 32-bit PCM.
func Float32ToInt32(x float32) int32 {
	// float32 cannot represent 2147483647, so scale in float64.
	return int32(float64(clip(x)) * 2147483647.0)
}

// Int16ToFloat32 converts signed 16-bit PCM to a normalized float.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// IntToFloat32 normalizes an integer sample of the given bit depth.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(float64(v) / 2147483648.0)
	default:
		return float32(v) / 32768.0
	}
}

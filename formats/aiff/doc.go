// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF audio file decoding.
//
// AIFF is the big-endian PCM container from Apple. Decoding is done by
// github.com/go-audio/aiff; samples at 8, 16, 24 and 32 bits are normalized
// to float32 in [-1.0, 1.0].
//
//	decoder := aiff.Decoder{}
//	file, _ := os.Open("audio.aiff")
//	source, err := decoder.Decode(file)
//
// The source is forward only; readers built through audio.FileFactory seek
// by decoding again.
package aiff

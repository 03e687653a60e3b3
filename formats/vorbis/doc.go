// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// Decoding is done by github.com/jfreymuth/oggvorbis. Any channel count the
// stream declares is passed through unchanged.
//
//	decoder := vorbis.Decoder{}
//	file, _ := os.Open("audio.ogg")
//	source, err := decoder.Decode(file)
//
// When the underlying reader can seek, the source reports its length and
// seeks by granule position.
package vorbis

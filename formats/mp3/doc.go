// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// Decoding is done by github.com/hajimehoshi/go-mp3, which always produces
// 16 bit stereo; mono files come out with both channels equal.
//
//	decoder := mp3.Decoder{}
//	file, _ := os.Open("audio.mp3")
//	source, err := decoder.Decode(file)
//
// The source reports its length in frames and seeks natively, so readers
// built through audio.FileFactory seek without decoding from the start.
package mp3

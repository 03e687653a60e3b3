// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// It uses the github.com/go-audio library for robust WAV file handling.
//
// # Supported Formats
//
//   - Integer PCM at 8 (unsigned), 16, 24 and 32 bits
//   - Any channel count
//   - Any sample rate
//
// # Decoding WAV Files
//
//	decoder := wav.Decoder{}
//	file, _ := os.Open("audio.wav")
//	source, err := decoder.Decode(file)
//
// The returned audio.Source knows its length in frames and seeks natively,
// so readers created through audio.FileFactory are seekable.
//
// # Writing WAV Files
//
// Encode renders any finite audio.Reader:
//
//	out, _ := os.Create("output.wav")
//	frames, err := wav.Encode(out, reader, 16)
package wav

// SPDX-License-Identifier: EPL-2.0

// Package audio provides the reader chain and the mixer of the engine.
//
// # Readers
//
// A Reader is a stateful pull source of interleaved float32 samples with a
// fixed Specs (rate and channel count). Readers know their position and,
// when possible, their length, and most of them can seek:
//
//	type Reader interface {
//	    Specs() Specs
//	    Seekable() bool
//	    Seek(frame int) error
//	    Length() int
//	    Position() int
//	    ReadSamples(dst []float32) (n int, err error)
//	    Close() error
//	}
//
// ReadSamples returns the number of float32 values written and io.EOF once
// the stream ended; io.EOF may come together with the last samples.
//
// A Factory creates independent readers over one sound. Buffer, FileFactory,
// SilenceFactory, SineFactory and LimiterFactory are factories.
//
// # Chains
//
// Devices adapt every reader to their output with a chain of stages:
//
//	pitch := audio.NewPitchReader(reader, 1)
//	resampled := audio.NewResampler(pitch, 48000)
//	mapped := audio.NewChannelMapper(resampled, 2)
//
// The Resampler follows the rate reported by the PitchReader on every read,
// so changing the pitch while playing shifts the sound. The ChannelMapper
// pans mono sources by angle and maps between mono, stereo, surround and
// 5.1/7.1 layouts.
//
// # Mixing
//
// A Mixer sums voice buffers with a gain each and converts the result to the
// device sample format:
//
//	m := audio.NewMixer(specs)
//	m.Clear(frames)
//	m.Mix(voice, 0, frames, 0.8)
//	m.Read(out, masterVolume)
//
// # Decoders
//
// The registry maps format keys to decoders producing a Source; OpenFile
// picks the decoder by file extension:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	sound, err := audio.OpenFile("drums.wav", registry)
//
// # Sample Format
//
// Audio samples are represented as float32 in the range [-1.0, 1.0]
// everywhere except the final Mixer conversion.
package audio

// SPDX-License-Identifier: EPL-2.0

// Package audmix is a pull based audio engine: decoders and generators
// produce readers, devices mix any number of them with per voice volume,
// pitch, looping and 3D placement, and backends push the mix to the sound
// card.
//
// # Backends
//
// Devices are opened by backend name:
//
//	dev, err := audmix.Open("openal", device.WithRate(44100))
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
// The built in backends are Null (no output, optionally clocked by hand),
// OpenAL, JACK, SDL and Oto. OpenAL and JACK are loaded at runtime; a
// missing library is an error from Open, not a link failure.
//
// # Sounds
//
// Anything implementing audio.Factory can be played. Files are decoded on
// demand:
//
//	sound, err := audmix.OpenFile("music.ogg")
//	if err != nil {
//	    return err
//	}
//	h, err := dev.PlayFactory(sound, false)
//
// The decoders for WAV, AIFF, MP3 and Ogg Vorbis live under formats/ and
// are registered by default. Generators (audio.NewSine, audio.NewSilence),
// limiters and in-memory buffers cover the rest.
//
// # Handles
//
// Play returns a device.Handle. Handles move between playing, paused and
// stopped, and become invalid once stopped or finished unless they are
// kept. Devices implementing device.SpatialDevice return handles that
// also implement device.SpatialHandle.
//
// # Timelines
//
// The sequencer package arranges sounds on an animated timeline and is
// itself a factory, so a whole scene can be played or rendered to a file
// like any other sound.
package audmix

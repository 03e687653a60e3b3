// SPDX-License-Identifier: EPL-2.0

package main

import (
	"io"
	"math"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/pkg/errors"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/internal/log"
	"github.com/ik5/audmix/sequencer"
)

// sequenceFPS is the animation rate of multi file sequences. Nothing is
// animated, so it only sets how often entries are checked.
const sequenceFPS = 25

// load opens the files. Several files are placed back to back on a
// sequence, which needs every length to be known.
func load(paths []string, specs audio.Specs) (audio.Factory, error) {
	if len(paths) == 1 {
		return audmix.OpenFile(paths[0])
	}

	sounds := make([]audio.Factory, 0, len(paths))
	for _, path := range paths {
		f, err := audmix.OpenFile(path)
		if err != nil {
			return nil, err
		}
		sounds = append(sounds, f)
	}
	return chain(sounds, specs)
}

// chain returns a factory playing sounds one after another.
func chain(sounds []audio.Factory, specs audio.Specs) (audio.Factory, error) {
	seq := sequencer.New(specs, sequenceFPS, false)

	var begin float64
	for i, sound := range sounds {
		seconds, err := duration(sound)
		if err != nil {
			return nil, errors.Wrapf(err, "sound %d", i+1)
		}
		seq.Add(sound, begin, begin+seconds, 0)
		begin += seconds
	}
	return audio.LimiterFactory(seq, 0, begin), nil
}

func duration(sound audio.Factory) (float64, error) {
	r, err := sound.CreateReader()
	if err != nil {
		return 0, err
	}
	defer r.Close()

	frames := r.Length()
	if frames < 0 {
		return 0, errors.New("length unknown")
	}
	return float64(frames) / r.Specs().Rate, nil
}

// effectChain returns the beep effects selected on the command line, or
// nil when there are none.
func effectChain(gainDB float64, swap bool) func(beep.Streamer) beep.Streamer {
	if gainDB == 0 && !swap {
		return nil
	}
	return func(s beep.Streamer) beep.Streamer {
		if gainDB != 0 {
			s = &effects.Volume{Streamer: s, Base: math.Pow(10, 1.0/20), Volume: gainDB}
		}
		if swap {
			s = effects.Swap(s)
		}
		return s
	}
}

// writeFile mixes sound down into a WAV file at path.
func writeFile(path string, sound audio.Factory, specs audio.DeviceSpecs, loop device.LoopMode, volume float32) (int, error) {
	m, err := newMixdown(sound, specs.Specs, loop, volume)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, audio.NewError(audio.KindFile, err, "create %s", path)
	}

	frames, err := wav.Encode(f, m, bitDepth(specs.Format))
	if cerr := f.Close(); err == nil && cerr != nil {
		err = audio.NewError(audio.KindFile, cerr, "close %s", path)
	}
	return frames, err
}

// bitDepth is the integer WAV depth closest to format.
func bitDepth(format audio.SampleFormat) int {
	switch format {
	case audio.FormatU8:
		return 8
	case audio.FormatS24:
		return 24
	case audio.FormatS32, audio.FormatFloat32, audio.FormatFloat64:
		return 32
	}
	return 16
}

// mixdown is a finite audio.Reader over a read device playing one voice.
// It ends after the mix cycle in which the voice finished.
type mixdown struct {
	dev      *device.ReadDevice
	specs    audio.Specs
	position int
	done     bool
}

func newMixdown(sound audio.Factory, specs audio.Specs, loop device.LoopMode, volume float32) (*mixdown, error) {
	dev := device.NewReadDevice(audio.DeviceSpecs{Specs: specs, Format: audio.FormatFloat32}, log.L())
	h, err := dev.PlayFactory(sound, false)
	if err != nil {
		_ = dev.Close()
		return nil, errors.Wrap(err, "mixdown")
	}
	h.SetLoopMode(loop)
	h.SetVolume(volume)
	return &mixdown{dev: dev, specs: specs}, nil
}

func (m *mixdown) Specs() audio.Specs { return m.specs }
func (m *mixdown) Seekable() bool     { return false }
func (m *mixdown) Seek(int) error     { return audio.ErrNotSeekable }
func (m *mixdown) Length() int        { return -1 }
func (m *mixdown) Position() int      { return m.position }
func (m *mixdown) Close() error       { return m.dev.Close() }

func (m *mixdown) ReadSamples(dst []float32) (int, error) {
	if m.done || !m.dev.Playing() {
		m.done = true
		return 0, io.EOF
	}

	frames := len(dst) / m.specs.Channels
	m.dev.ReadFloat(dst[:frames*m.specs.Channels], frames)
	m.position += frames
	return frames * m.specs.Channels, nil
}

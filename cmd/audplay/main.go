// SPDX-License-Identifier: EPL-2.0

// Command audplay plays audio files through a backend or mixes them down to
// a WAV file.
//
//	audplay [flags] file...
//
// Several files are played one after another.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/pkg/errors"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/internal/log"
)

type options struct {
	backend  string
	rate     float64
	channels int
	format   string
	loop     int
	volume   float64
	gainDB   float64
	swap     bool
	out      string
	logLevel string
	files    []string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "audplay:", err)
		os.Exit(1)
	}
}

func parse(args []string) (*options, error) {
	fs := flag.NewFlagSet("audplay", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.backend, "backend", "openal", "output backend: "+strings.Join(audmix.Backends(), ", "))
	fs.Float64Var(&o.rate, "rate", 48000, "output sample rate in Hz")
	fs.IntVar(&o.channels, "channels", 2, "output channel count")
	fs.StringVar(&o.format, "format", "", "output sample format (u8, s16, s24, s32, f32, f64)")
	fs.IntVar(&o.loop, "loop", 0, "extra repetitions, negative repeats forever")
	fs.Float64Var(&o.volume, "volume", 1, "playback volume")
	fs.Float64Var(&o.gainDB, "gain-db", 0, "gain in decibels applied before mixing")
	fs.BoolVar(&o.swap, "swap", false, "swap the left and right channels")
	fs.StringVar(&o.out, "out", "", "write a WAV file instead of playing")
	fs.StringVar(&o.logLevel, "log-level", os.Getenv("AUDMIX_LOG_LEVEL"), "debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: audplay [flags] file...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.files = fs.Args()
	if len(o.files) == 0 {
		fs.Usage()
		return nil, errors.New("no input files")
	}
	if o.out != "" && o.loop < 0 {
		return nil, errors.New("cannot write an endless loop to a file")
	}
	return o, nil
}

func run(args []string) error {
	o, err := parse(args)
	if err != nil {
		return err
	}
	log.Init(o.logLevel)

	format := audio.FormatS16
	if o.format != "" {
		if format, err = audio.ParseSampleFormat(o.format); err != nil {
			return err
		}
	} else if o.out == "" {
		format = audio.FormatFloat32
	}
	specs := audio.DeviceSpecs{
		Specs:  audio.Specs{Rate: o.rate, Channels: o.channels},
		Format: format,
	}
	if !specs.Valid() {
		return errors.Wrapf(audio.ErrInvalidSpecs, "%g Hz, %d channels", o.rate, o.channels)
	}

	sound, err := load(o.files, specs.Specs)
	if err != nil {
		return err
	}
	if fx := effectChain(o.gainDB, o.swap); fx != nil {
		sound = audio.EffectFactory(sound, fx)
	}

	loop := device.Finite(o.loop)
	if o.loop < 0 {
		loop = device.Infinite()
	}

	if o.out != "" {
		frames, err := writeFile(o.out, sound, specs, loop, float32(o.volume))
		if err != nil {
			return err
		}
		log.Info("file written", "path", o.out, "frames", frames, "seconds", float64(frames)/specs.Rate)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return play(ctx, o.backend, sound, specs, loop, float32(o.volume))
}

// play runs sound on the backend until it ends or ctx is done.
func play(ctx context.Context, backend string, sound audio.Factory, specs audio.DeviceSpecs, loop device.LoopMode, volume float32) error {
	dev, err := audmix.Open(backend, device.WithSpecs(specs))
	if err != nil {
		return err
	}
	defer dev.Close()

	h, err := dev.PlayFactory(sound, false)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	dev.Lock()
	h.SetLoopMode(loop)
	h.SetVolume(volume)
	h.SetStopCallback(func(device.Handle) { finish() })
	dev.Unlock()
	// a short sound may be over before the callback was set
	if h.Status() == device.StatusInvalid {
		finish()
	}

	log.Info("playing", "backend", backend, "id", h.ID(), "loop", loop.Count(), "forever", loop.IsInfinite())
	select {
	case <-done:
	case <-ctx.Done():
		h.Stop()
		log.Info("interrupted", "position", h.Position())
	}
	return nil
}

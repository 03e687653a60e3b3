// SPDX-License-Identifier: EPL-2.0

// Package sdl outputs a software mix through an SDL2 audio device. A pump
// goroutine keeps the device queue topped up while anything plays.
package sdl

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/internal/rt"
)

// Device is a SoftwareDevice queueing its output on an SDL audio device.
type Device struct {
	*device.SoftwareDevice
	cfg *device.Config

	dev   sdl.AudioDeviceID
	buf   []byte
	queue uint32

	runMu sync.Mutex
	stop  chan struct{}
	wg    sync.WaitGroup
}

// sdlFormat maps a sample format to SDL. Formats SDL cannot play fall back
// to S16.
func sdlFormat(f audio.SampleFormat) (sdl.AudioFormat, audio.SampleFormat) {
	switch f {
	case audio.FormatU8:
		return sdl.AUDIO_U8, f
	case audio.FormatS32:
		return sdl.AUDIO_S32SYS, f
	case audio.FormatFloat32:
		return sdl.AUDIO_F32SYS, f
	}
	return sdl.AUDIO_S16SYS, audio.FormatS16
}

// New opens the default SDL output device.
func New(opts ...device.Option) (*Device, error) {
	cfg, err := device.NewConfig(opts...)
	if err != nil {
		return nil, audio.NewError(audio.KindSDL, err, "configuring device")
	}

	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, audio.NewError(audio.KindSDL, errors.Wrap(err, "SDL_InitSubSystem"), "opening device")
	}

	specs := cfg.Specs
	format, native := sdlFormat(specs.Format)
	specs.Format = native

	want := sdl.AudioSpec{
		Freq:     int32(specs.Rate),
		Format:   format,
		Channels: uint8(specs.Channels),
		Samples:  uint16(cfg.BufferSize),
	}
	dev, err := sdl.OpenAudioDevice("", false, &want, nil, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, audio.NewError(audio.KindSDL, errors.Wrap(err, "SDL_OpenAudioDevice"), "opening device")
	}
	sdl.ClearQueuedAudio(dev)
	sdl.PauseAudioDevice(dev, false)

	d := &Device{
		cfg:   cfg,
		dev:   dev,
		buf:   make([]byte, cfg.BufferSize*specs.SampleSize()),
		queue: uint32(2 * cfg.BufferSize * specs.SampleSize()),
	}
	logger := cfg.Logger.With("backend", "sdl")
	d.SoftwareDevice = device.NewSoftwareDevice(specs, d.transport, logger)
	logger.Info("device opened", "rate", specs.Rate, "channels", specs.Channels, "format", specs.Format)
	return d, nil
}

// Open is the device.OpenFunc of the SDL backend.
func Open(opts ...device.Option) (device.Device, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) transport(playing bool) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	if playing {
		if d.stop != nil {
			return
		}
		d.stop = make(chan struct{})
		d.wg.Add(1)
		go d.pump(d.stop)
		return
	}

	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
}

// pump queues mixed buffers whenever less than two are waiting on the
// device.
func (d *Device) pump(stop <-chan struct{}) {
	defer d.wg.Done()

	release, err := rt.Boost()
	if err != nil {
		d.Logger().Debug("pumping without raised priority", "error", err)
	}
	defer release()

	ticker := time.NewTicker(d.cfg.BufferDuration() / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		for sdl.GetQueuedAudioSize(d.dev) < d.queue {
			n := d.Mix(d.buf, d.cfg.BufferSize)
			if err := sdl.QueueAudio(d.dev, d.buf[:n]); err != nil {
				d.Logger().Warn("queueing audio", "error", err)
				break
			}
		}
	}
}

// Close stops every voice, waits for the pump and closes the SDL device.
func (d *Device) Close() error {
	_ = d.SoftwareDevice.Close()
	d.wg.Wait()

	d.runMu.Lock()
	defer d.runMu.Unlock()

	if d.dev != 0 {
		sdl.CloseAudioDevice(d.dev)
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		d.dev = 0
		d.Logger().Info("device closed")
	}
	return nil
}

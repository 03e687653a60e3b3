// SPDX-License-Identifier: EPL-2.0

// Package oto outputs a software mix through an oto player, which pulls
// the mix from its own goroutine.
package oto

import (
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
)

// Device is a SoftwareDevice read by an oto player. Oto allows a single
// context per process, so only one Device can be open at a time.
type Device struct {
	*device.SoftwareDevice

	ctx    *oto.Context
	player *oto.Player
	frame  int

	closeOnce sync.Once
}

// otoFormat maps a sample format to oto, which plays U8, S16 and float32.
func otoFormat(f audio.SampleFormat) (oto.Format, audio.SampleFormat) {
	switch f {
	case audio.FormatU8:
		return oto.FormatUnsignedInt8, f
	case audio.FormatS16:
		return oto.FormatSignedInt16LE, f
	}
	return oto.FormatFloat32LE, audio.FormatFloat32
}

// New creates the oto context and starts a player reading the mix.
func New(opts ...device.Option) (*Device, error) {
	cfg, err := device.NewConfig(opts...)
	if err != nil {
		return nil, audio.NewError(audio.KindOto, err, "configuring device")
	}

	specs := cfg.Specs
	format, native := otoFormat(specs.Format)
	specs.Format = native

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(specs.Rate),
		ChannelCount: specs.Channels,
		Format:       format,
		BufferSize:   cfg.BufferDuration(),
	})
	if err != nil {
		return nil, audio.NewError(audio.KindOto, errors.Wrap(err, "oto.NewContext"), "opening device")
	}
	<-ready

	d := &Device{
		ctx:   ctx,
		frame: specs.SampleSize(),
	}
	logger := cfg.Logger.With("backend", "oto")
	d.SoftwareDevice = device.NewSoftwareDevice(specs, nil, logger)

	d.player = ctx.NewPlayer(d)
	d.player.Play()
	logger.Info("device opened", "rate", specs.Rate, "channels", specs.Channels, "format", specs.Format)
	return d, nil
}

// Open is the device.OpenFunc of the oto backend.
func Open(opts ...device.Option) (device.Device, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Read mixes whole frames into p and pads the rest with silence. It is
// called by the oto player.
func (d *Device) Read(p []byte) (int, error) {
	frames := len(p) / d.frame
	n := d.Mix(p[:frames*d.frame], frames)
	clear(p[n:])
	return len(p), nil
}

var _ io.Reader = (*Device)(nil)

// Close stops every voice and the player.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		_ = d.SoftwareDevice.Close()
		if cerr := d.player.Close(); cerr != nil {
			err = audio.NewError(audio.KindOto, cerr, "closing player")
		}
		d.Logger().Info("device closed")
	})
	return err
}

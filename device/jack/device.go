// SPDX-License-Identifier: EPL-2.0

package jack

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
)

// Device mixes in software and hands the result to a JACK client with one
// output port per channel. The JACK server owns the sample rate.
type Device struct {
	*device.SoftwareDevice

	jack   api
	client uintptr
	ports  []uintptr
	engine *engine
	outs   [][]float32

	closeOnce sync.Once
}

// New connects to the running JACK server as device.WithName and wires the
// ports to the physical playback ports.
func New(opts ...device.Option) (*Device, error) {
	cfg, err := device.NewConfig(opts...)
	if err != nil {
		return nil, audio.NewError(audio.KindJACK, err, "configuring device")
	}

	jack, err := loadNative(cfg.Library)
	if err != nil {
		return nil, audio.NewError(audio.KindJACK, err, "loading library")
	}
	return newDevice(jack, cfg)
}

// Open is the device.OpenFunc of the JACK backend.
func Open(opts ...device.Option) (device.Device, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newDevice(jack api, cfg *device.Config) (*Device, error) {
	client, err := jack.ClientOpen(cfg.Name)
	if err != nil {
		return nil, audio.NewError(audio.KindJACK, errors.Wrapf(err, "jack_client_open %q", cfg.Name), "opening device")
	}

	specs := cfg.Specs
	specs.Rate = float64(jack.SampleRate(client))
	specs.Format = audio.FormatFloat32
	period := jack.BufferSize(client)

	d := &Device{
		jack:   jack,
		client: client,
		outs:   make([][]float32, specs.Channels),
	}

	for c := range specs.Channels {
		port, err := jack.RegisterOutput(client, fmt.Sprintf("out_%d", c+1))
		if err != nil {
			jack.ClientClose(client)
			return nil, audio.NewError(audio.KindJACK, errors.Wrapf(err, "jack_port_register out_%d", c+1), "opening device")
		}
		d.ports = append(d.ports, port)
	}

	logger := cfg.Logger.With("backend", "jack", "client", cfg.Name)
	d.SoftwareDevice = device.NewSoftwareDevice(specs, nil, logger)

	chunk := max(cfg.BufferSize, period)
	d.engine = newEngine(d.MixFloat, specs.Channels, chunk, 4*chunk)

	if err := jack.SetProcessCallback(client, d.process); err != nil {
		jack.ClientClose(client)
		return nil, audio.NewError(audio.KindJACK, errors.Wrap(err, "jack_set_process_callback"), "opening device")
	}
	jack.OnShutdown(client, func() {
		logger.Warn("server shut down the client")
	})

	d.engine.start()
	if err := jack.Activate(client); err != nil {
		d.engine.stop()
		jack.ClientClose(client)
		return nil, audio.NewError(audio.KindJACK, errors.Wrap(err, "jack_activate"), "opening device")
	}

	d.connect()
	logger.Info("device opened", "rate", specs.Rate, "channels", specs.Channels, "period", period)
	return d, nil
}

// connect wires the output ports to the physical playback ports in order.
// Missing or failing connections are only logged.
func (d *Device) connect() {
	playback := d.jack.PlaybackPorts(d.client)
	for i, port := range d.ports {
		if i >= len(playback) {
			d.Logger().Warn("no playback port left", "port", d.jack.PortName(port))
			return
		}
		src := d.jack.PortName(port)
		if err := d.jack.Connect(d.client, src, playback[i]); err != nil {
			d.Logger().Warn("cannot connect port", "from", src, "to", playback[i], "error", err)
		}
	}
}

// process runs on the JACK server thread.
func (d *Device) process(frames int) {
	for c, port := range d.ports {
		d.outs[c] = d.jack.PortBuffer(port, frames)
	}
	d.engine.process(d.outs)
}

// Underruns is the number of server cycles that ran short of audio.
func (d *Device) Underruns() uint64 { return d.engine.Underruns() }

// Close stops every voice, deactivates the client and waits for the refill
// goroutine before closing the client.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		_ = d.SoftwareDevice.Close()
		d.jack.Deactivate(d.client)
		d.engine.stop()
		d.jack.ClientClose(d.client)
		d.Logger().Info("device closed", "underruns", d.Underruns())
	})
	return nil
}

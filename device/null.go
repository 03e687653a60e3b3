// SPDX-License-Identifier: EPL-2.0

package device

import (
	"sync"
	"time"
)

// NullDevice mixes in real time and discards the output. With
// WithManualClock nothing runs in the background and time only advances
// through Advance.
type NullDevice struct {
	*SoftwareDevice
	cfg *Config

	advMu sync.Mutex
	buf   []byte

	runMu sync.Mutex
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewNullDevice opens a device without output.
func NewNullDevice(opts ...Option) (*NullDevice, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	n := &NullDevice{
		cfg: cfg,
		buf: make([]byte, cfg.BufferSize*cfg.Specs.SampleSize()),
	}
	logger := cfg.Logger.With("backend", "null")
	n.SoftwareDevice = NewSoftwareDevice(cfg.Specs, n.transport, logger)
	logger.Info("device opened", "rate", cfg.Specs.Rate, "channels", cfg.Specs.Channels,
		"format", cfg.Specs.Format, "manual", cfg.ManualClock)
	return n, nil
}

// Advance mixes frames frames in buffer sized steps.
func (n *NullDevice) Advance(frames int) {
	n.advMu.Lock()
	defer n.advMu.Unlock()

	size := n.cfg.Specs.SampleSize()
	for frames > 0 {
		chunk := min(frames, n.cfg.BufferSize)
		n.Mix(n.buf[:chunk*size], chunk)
		frames -= chunk
	}
}

func (n *NullDevice) transport(playing bool) {
	if n.cfg.ManualClock {
		return
	}

	n.runMu.Lock()
	defer n.runMu.Unlock()

	if playing {
		if n.stop != nil {
			return
		}
		n.stop = make(chan struct{})
		n.wg.Add(1)
		go n.run(n.stop)
		return
	}

	if n.stop != nil {
		close(n.stop)
		n.stop = nil
	}
}

// run mixes one buffer per buffer duration until stop is closed.
func (n *NullDevice) run(stop <-chan struct{}) {
	defer n.wg.Done()

	ticker := time.NewTicker(n.cfg.BufferDuration())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n.Advance(n.cfg.BufferSize)
		}
	}
}

// Close stops every voice and waits for the mixing goroutine to exit.
func (n *NullDevice) Close() error {
	err := n.SoftwareDevice.Close()
	n.wg.Wait()
	n.Logger().Info("device closed")
	return err
}

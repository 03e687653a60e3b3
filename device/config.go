// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/log"
)

// Config holds device configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Output stream
	Specs audio.DeviceSpecs

	// Frames mixed per cycle
	BufferSize int

	// Client and port name prefix for backends that publish one
	Name string

	// OpenAL streaming
	PollInterval     time.Duration
	StreamBufferSize int

	// Null device: no background goroutine, the caller drives Advance
	ManualClock bool

	// Override of the shared library loaded by purego backends
	Library string

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring devices.
type Option func(*Config)

// WithSpecs sets the complete output specs.
func WithSpecs(specs audio.DeviceSpecs) Option {
	return func(c *Config) {
		c.Specs = specs
	}
}

// WithRate sets the output sample rate.
func WithRate(rate float64) Option {
	return func(c *Config) {
		c.Specs.Rate = rate
	}
}

// WithChannels sets the output channel count.
func WithChannels(channels int) Option {
	return func(c *Config) {
		c.Specs.Channels = channels
	}
}

// WithFormat sets the native sample format.
func WithFormat(format audio.SampleFormat) Option {
	return func(c *Config) {
		c.Specs.Format = format
	}
}

// WithBufferSize sets the number of frames mixed per cycle.
func WithBufferSize(frames int) Option {
	return func(c *Config) {
		c.BufferSize = frames
	}
}

// WithName sets the client name used by JACK.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithPollInterval sets how often the OpenAL streaming goroutine refills
// buffers.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithStreamBufferSize sets the frames held by each OpenAL cyclic buffer.
func WithStreamBufferSize(frames int) Option {
	return func(c *Config) {
		c.StreamBufferSize = frames
	}
}

// WithManualClock makes the Null device mix only when Advance is called.
func WithManualClock() Option {
	return func(c *Config) {
		c.ManualClock = true
	}
}

// WithLibrary overrides the shared library name a native backend loads.
func WithLibrary(name string) Option {
	return func(c *Config) {
		c.Library = name
	}
}

// WithLogger sets the structured logger for the device.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns 48 kHz stereo float output.
func DefaultConfig() *Config {
	return &Config{
		Specs: audio.DeviceSpecs{
			Specs:  audio.Specs{Rate: 48000, Channels: 2},
			Format: audio.FormatFloat32,
		},
		BufferSize:       1024,
		Name:             "audmix",
		PollInterval:     20 * time.Millisecond,
		StreamBufferSize: 4096,
		Logger:           log.L(),
	}
}

// NewConfig applies opts over the defaults and validates the result.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values no backend can work with.
func (c *Config) Validate() error {
	switch {
	case !c.Specs.Valid():
		return fmt.Errorf("%w: specs %+v", ErrInvalidConfig, c.Specs.Specs)
	case c.Specs.Format.Width() == 0:
		return fmt.Errorf("%w: sample format %s", ErrInvalidConfig, c.Specs.Format)
	case c.BufferSize <= 0:
		return fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, c.BufferSize)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval %s", ErrInvalidConfig, c.PollInterval)
	case c.StreamBufferSize <= 0:
		return fmt.Errorf("%w: stream buffer size %d", ErrInvalidConfig, c.StreamBufferSize)
	}
	return nil
}

// BufferDuration is the playback time of one mix cycle.
func (c *Config) BufferDuration() time.Duration {
	return time.Duration(float64(c.BufferSize) / c.Specs.Rate * float64(time.Second))
}

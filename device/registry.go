// SPDX-License-Identifier: EPL-2.0

package device

import (
	"slices"
	"strings"
	"sync"

	"github.com/ik5/audmix/audio"
)

// OpenFunc opens a backend.
type OpenFunc func(opts ...Option) (Device, error)

// Registry maps backend names to their constructors. Names are matched
// case insensitively.
type Registry struct {
	backends map[string]OpenFunc
	names    []string

	mtx *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]OpenFunc),
		mtx:      &sync.RWMutex{},
	}
}

func (r *Registry) Register(name string, open OpenFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	key := strings.ToLower(name)
	if _, ok := r.backends[key]; !ok {
		r.names = append(r.names, name)
	}
	r.backends[key] = open
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return slices.Clone(r.names)
}

// Open opens the backend registered as name. Any failure returns a nil
// Device and an *audio.Error.
func (r *Registry) Open(name string, opts ...Option) (Device, error) {
	r.mtx.RLock()
	open, ok := r.backends[strings.ToLower(name)]
	r.mtx.RUnlock()

	if !ok {
		return nil, audio.NewError(audio.KindDevice, ErrUnknownBackend, "opening %q", name)
	}

	dev, err := open(opts...)
	if err != nil {
		if _, typed := err.(*audio.Error); typed {
			return nil, err
		}
		return nil, audio.NewError(audio.KindDevice, err, "opening %q", name)
	}
	return dev, nil
}

// OpenNull is the OpenFunc of NullDevice.
func OpenNull(opts ...Option) (Device, error) {
	dev, err := NewNullDevice(opts...)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// SPDX-License-Identifier: EPL-2.0

package openal

import (
	"errors"
	"slices"
	"sync"

	"github.com/ik5/audmix/vec"
)

const alPaused = 0x1013

var errFake = errors.New("fake failure")

type fakeSource struct {
	queue     []uint32
	processed int
	state     int32
	offset    int32
	floats    map[int32]float32
	ints      map[int32]int32
	vecs      map[int32]vec.Vec3
}

// fakeAL keeps just enough OpenAL state to follow buffer queues. Tests
// play the part of the hardware through consume.
type fakeAL struct {
	mu sync.Mutex

	failOpen, failContext, failCurrent error
	failGenBuffers, failGenSource       error
	// BufferData fails from this call on, counting from 1; 0 never fails
	failBufferDataAt int

	next       uint32
	data       map[uint32][]byte
	formats    map[uint32]int32
	sources    map[uint32]*fakeSource
	bufferData int
	queued     []uint32

	deletedBuffers []uint32
	deletedSources []uint32
	destroyed      bool
	closedDevice   bool
	suspends       int
	processes      int
	listener       map[int32]float32
	model          int32
}

func newFakeAL() *fakeAL {
	return &fakeAL{
		data:     make(map[uint32][]byte),
		formats:  make(map[uint32]int32),
		sources:  make(map[uint32]*fakeSource),
		listener: make(map[int32]float32),
	}
}

// consume marks n more queued buffers of source as played.
func (f *fakeAL) consume(source uint32, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.sources[source]
	s.processed = min(s.processed+n, len(s.queue))
	if s.processed == len(s.queue) {
		s.state = alStopped
	}
}

func (f *fakeAL) source(id uint32) *fakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sources[id]
}

func (f *fakeAL) OpenDevice(string) (uintptr, error) {
	if f.failOpen != nil {
		return 0, f.failOpen
	}
	return 1, nil
}

func (f *fakeAL) CreateContext(uintptr, int) (uintptr, error) {
	if f.failContext != nil {
		return 0, f.failContext
	}
	return 2, nil
}

func (f *fakeAL) MakeContextCurrent(ctx uintptr) error {
	if ctx != 0 && f.failCurrent != nil {
		return f.failCurrent
	}
	return nil
}

func (f *fakeAL) SuspendContext(uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspends++
}

func (f *fakeAL) ProcessContext(uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processes++
}

func (f *fakeAL) DestroyContext(uintptr) { f.destroyed = true }
func (f *fakeAL) CloseDevice(uintptr)    { f.closedDevice = true }

func (f *fakeAL) GenBuffers(n int) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failGenBuffers != nil {
		return nil, f.failGenBuffers
	}
	buffers := make([]uint32, n)
	for i := range buffers {
		f.next++
		buffers[i] = f.next
	}
	return buffers, nil
}

func (f *fakeAL) DeleteBuffers(buffers []uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedBuffers = append(f.deletedBuffers, buffers...)
}

func (f *fakeAL) BufferData(buffer uint32, format int32, data []byte, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bufferData++
	if f.failBufferDataAt > 0 && f.bufferData >= f.failBufferDataAt {
		return errFake
	}
	f.data[buffer] = slices.Clone(data)
	f.formats[buffer] = format
	return nil
}

func (f *fakeAL) GenSource() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failGenSource != nil {
		return 0, f.failGenSource
	}
	f.next++
	f.sources[f.next] = &fakeSource{
		state:  alStopped,
		floats: make(map[int32]float32),
		ints:   make(map[int32]int32),
		vecs:   make(map[int32]vec.Vec3),
	}
	return f.next, nil
}

func (f *fakeAL) DeleteSource(source uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedSources = append(f.deletedSources, source)
}

func (f *fakeAL) QueueBuffers(source uint32, buffers []uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.sources[source]
	s.queue = append(s.queue, buffers...)
	f.queued = append(f.queued, buffers...)
	return nil
}

func (f *fakeAL) UnqueueBuffers(source uint32, n int) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.sources[source]
	if n > s.processed {
		return nil, errFake
	}
	out := slices.Clone(s.queue[:n])
	s.queue = s.queue[n:]
	s.processed -= n
	return out, nil
}

func (f *fakeAL) SourcePlay(source uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.sources[source]
	if s.processed < len(s.queue) {
		s.state = alPlaying
	}
}

func (f *fakeAL) SourcePause(source uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[source].state = alPaused
}

func (f *fakeAL) SourceStop(source uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.sources[source]
	s.state = alStopped
	s.processed = len(s.queue)
}

func (f *fakeAL) GetSourcei(source uint32, param int32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.sources[source]
	switch param {
	case alBuffersProcessed:
		return int32(s.processed)
	case alBuffersQueued:
		return int32(len(s.queue))
	case alSourceState:
		return s.state
	case alSampleOffset:
		return s.offset
	}
	return s.ints[param]
}

func (f *fakeAL) Sourcei(source uint32, param int32, v int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[source].ints[param] = v
}

func (f *fakeAL) Sourcef(source uint32, param int32, v float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[source].floats[param] = v
}

func (f *fakeAL) Source3f(source uint32, param int32, v vec.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[source].vecs[param] = v
}

func (f *fakeAL) Listenerf(param int32, v float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener[param] = v
}

func (f *fakeAL) Listener3f(int32, vec.Vec3)  {}
func (f *fakeAL) Listenerfv(int32, []float32) {}
func (f *fakeAL) SpeedOfSound(float32)        {}
func (f *fakeAL) DopplerFactor(float32)       {}

func (f *fakeAL) DistanceModel(model int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
}

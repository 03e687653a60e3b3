// SPDX-License-Identifier: EPL-2.0

package jack

import (
	"sync"
	"sync/atomic"
)

// engine moves mixed audio from a refill goroutine to the realtime process
// callback through one ring per port. The callback never blocks: it wakes
// the refill goroutine only when the condition lock is free.
type engine struct {
	mix      func(dst []float32, frames int) int
	channels int
	period   int

	rings       []*ring
	interleaved []float32
	plane       []float32

	mu   sync.Mutex
	cond *sync.Cond
	quit bool
	wg   sync.WaitGroup

	underruns atomic.Uint64
}

// newEngine refills in steps of period frames and buffers ringFrames frames
// per channel.
func newEngine(mix func([]float32, int) int, channels, period, ringFrames int) *engine {
	e := &engine{
		mix:         mix,
		channels:    channels,
		period:      period,
		rings:       make([]*ring, channels),
		interleaved: make([]float32, period*channels),
		plane:       make([]float32, period),
	}
	for c := range e.rings {
		e.rings[c] = newRing(ringFrames)
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *engine) start() {
	e.wg.Add(1)
	go e.run()
}

// stop wakes the refill goroutine and waits for it to exit.
func (e *engine) stop() {
	e.mu.Lock()
	e.quit = true
	e.cond.Broadcast()
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *engine) run() {
	defer e.wg.Done()

	e.mu.Lock()
	defer e.mu.Unlock()

	for !e.quit {
		e.fill()
		e.cond.Wait()
	}
}

// fill mixes whole periods until the rings have no room for another one.
// Must be called with mu held.
func (e *engine) fill() {
	for e.writable() >= e.period {
		e.mix(e.interleaved, e.period)
		for c, r := range e.rings {
			for f := range e.period {
				e.plane[f] = e.interleaved[f*e.channels+c]
			}
			r.Write(e.plane)
		}
	}
}

func (e *engine) writable() int {
	n := e.rings[0].Writable()
	for _, r := range e.rings[1:] {
		n = min(n, r.Writable())
	}
	return n
}

// process copies queued audio into the port buffers, pads shortfalls with
// silence and asks for a refill.
func (e *engine) process(outs [][]float32) {
	short := false
	for c, out := range outs {
		n := e.rings[c].Read(out)
		if n < len(out) {
			clear(out[n:])
			short = true
		}
	}
	if short {
		e.underruns.Add(1)
	}

	if e.mu.TryLock() {
		e.cond.Signal()
		e.mu.Unlock()
	}
}

// Underruns is the number of process cycles that ran short of audio.
func (e *engine) Underruns() uint64 { return e.underruns.Load() }

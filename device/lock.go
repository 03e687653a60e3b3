// SPDX-License-Identifier: EPL-2.0

package device

import "sync"

// Gate keeps a mixer out while user code holds a device lock. Lock calls
// nest and may come from any goroutine; the mixer brackets one cycle with
// Enter and Leave.
type Gate struct {
	mu sync.Mutex

	depthMu sync.Mutex
	depth   int
}

func (g *Gate) Lock() {
	g.depthMu.Lock()
	defer g.depthMu.Unlock()

	if g.depth == 0 {
		g.mu.Lock()
	}
	g.depth++
}

func (g *Gate) Unlock() {
	g.depthMu.Lock()
	defer g.depthMu.Unlock()

	if g.depth == 0 {
		return
	}
	g.depth--
	if g.depth == 0 {
		g.mu.Unlock()
	}
}

// Enter waits until no lock is held and keeps the gate for one cycle.
func (g *Gate) Enter() { g.mu.Lock() }

// EnterShared is Enter for mixers pulled by the lock holder itself. While
// a lock is held it returns false without taking the gate; otherwise it
// keeps the gate for one cycle and returns true. Leave only after true.
func (g *Gate) EnterShared() bool {
	g.depthMu.Lock()
	defer g.depthMu.Unlock()

	if g.depth > 0 {
		return false
	}
	g.mu.Lock()
	return true
}

// Leave ends the cycle started by Enter.
func (g *Gate) Leave() { g.mu.Unlock() }

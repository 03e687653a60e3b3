// SPDX-License-Identifier: EPL-2.0

package jack

import "sync/atomic"

// ring is a single producer, single consumer sample queue. The refill
// goroutine writes, the process callback reads, and neither takes a lock.
type ring struct {
	buf  []float32
	mask uint64

	read  atomic.Uint64
	write atomic.Uint64
}

// newRing returns a ring holding at least size samples.
func newRing(size int) *ring {
	n := 1
	for n < size {
		n <<= 1
	}
	return &ring{buf: make([]float32, n), mask: uint64(n - 1)}
}

// Readable is the number of samples waiting to be read.
func (r *ring) Readable() int {
	return int(r.write.Load() - r.read.Load())
}

// Writable is the free space in samples.
func (r *ring) Writable() int {
	return len(r.buf) - r.Readable()
}

// Write copies as much of src as fits and returns the count.
func (r *ring) Write(src []float32) int {
	w, rd := r.write.Load(), r.read.Load()
	n := min(len(src), len(r.buf)-int(w-rd))

	start := int(w & r.mask)
	first := copy(r.buf[start:], src[:n])
	copy(r.buf, src[first:n])

	r.write.Store(w + uint64(n))
	return n
}

// Read fills dst with as many samples as are queued and returns the count.
func (r *ring) Read(dst []float32) int {
	rd, w := r.read.Load(), r.write.Load()
	n := min(len(dst), int(w-rd))

	start := int(rd & r.mask)
	first := copy(dst[:n], r.buf[start:])
	copy(dst[first:n], r.buf)

	r.read.Store(rd + uint64(n))
	return n
}

// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Buffer is a fully decoded sound kept in memory. It is a Factory whose
// readers are seekable and know their exact length.
type Buffer struct {
	specs Specs
	data  []float32
}

func NewBuffer(specs Specs, data []float32) *Buffer {
	return &Buffer{specs: specs, data: data}
}

// NewBufferFactory decodes the sound of f once into memory.
func NewBufferFactory(f Factory) (*Buffer, error) {
	r, err := f.CreateReader()
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer r.Close()

	return ReadAll(r)
}

type infinite interface {
	Infinite() bool
}

// ReadAll drains r into a Buffer.
func ReadAll(r Reader) (*Buffer, error) {
	specs := r.Specs()
	if !specs.Valid() {
		return nil, ErrInvalidSpecs
	}
	if inf, ok := r.(infinite); ok && inf.Infinite() {
		return nil, ErrInfiniteReader
	}

	capacity := 4096 * specs.Channels
	if l := r.Length() - r.Position(); l > 0 {
		capacity = l * specs.Channels
	}
	data := make([]float32, 0, capacity)
	chunk := make([]float32, 4096*specs.Channels)

	for {
		n, err := r.ReadSamples(chunk)
		data = append(data, chunk[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	return &Buffer{specs: specs, data: data}, nil
}

func (b *Buffer) Specs() Specs { return b.specs }

// Frames is the length of the buffer in frames.
func (b *Buffer) Frames() int { return len(b.data) / b.specs.Channels }

// Samples exposes the interleaved samples; callers must not modify them.
func (b *Buffer) Samples() []float32 { return b.data }

func (b *Buffer) CreateReader() (Reader, error) {
	return &bufferReader{buf: b}, nil
}

type bufferReader struct {
	buf *Buffer
	pos int
}

func (r *bufferReader) Specs() Specs   { return r.buf.specs }
func (r *bufferReader) Seekable() bool { return true }
func (r *bufferReader) Length() int    { return r.buf.Frames() }
func (r *bufferReader) Position() int  { return r.pos }
func (r *bufferReader) Close() error   { return nil }

func (r *bufferReader) Seek(frame int) error {
	r.pos = max(0, min(frame, r.buf.Frames()))
	return nil
}

func (r *bufferReader) ReadSamples(dst []float32) (int, error) {
	ch := r.buf.specs.Channels
	if len(dst)%ch != 0 {
		return 0, ErrInvalidDstSize
	}

	n := copy(dst, r.buf.data[r.pos*ch:])
	r.pos += n / ch
	if r.pos >= r.buf.Frames() {
		return n, io.EOF
	}
	return n, nil
}

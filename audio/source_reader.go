// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

const maxEmptyReads = 100

// SourceReader adapts a decoder Source to the Reader interface. It keeps
// track of the position and seeks natively when the source allows it.
type SourceReader struct {
	src    Source
	specs  Specs
	reopen func() (Source, error)
	pos    int
	eof    bool
	closed bool
	scrap  []float32
}

// NewSourceReader wraps src. The reader is seekable only when src
// implements FrameSeeker.
func NewSourceReader(src Source) *SourceReader {
	return &SourceReader{src: src, specs: src.Specs()}
}

func (r *SourceReader) Specs() Specs { return r.specs }

func (r *SourceReader) Seekable() bool {
	if _, ok := r.src.(FrameSeeker); ok {
		return true
	}
	return r.reopen != nil
}

// Seek repositions the stream. Sources without native seeking are decoded
// again from the start and the leading frames are skipped.
func (r *SourceReader) Seek(frame int) error {
	if r.closed {
		return ErrClosed
	}
	if frame < 0 {
		frame = 0
	}
	if fs, ok := r.src.(FrameSeeker); ok {
		if err := fs.SeekFrame(frame); err != nil {
			return fmt.Errorf("%w", err)
		}
		r.pos = frame
		r.eof = false
		return nil
	}
	if r.reopen == nil {
		return ErrNotSeekable
	}

	src, err := r.reopen()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	_ = r.src.Close()
	r.src = src
	r.pos = 0
	r.eof = false

	return r.skip(frame)
}

func (r *SourceReader) skip(frames int) error {
	if r.scrap == nil {
		r.scrap = make([]float32, 1024*r.specs.Channels)
	}
	for frames > 0 && !r.eof {
		buf := r.scrap
		if want := frames * r.specs.Channels; want < len(buf) {
			buf = buf[:want]
		}
		n, err := r.ReadSamples(buf)
		frames -= n / r.specs.Channels
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *SourceReader) Length() int {
	if lh, ok := r.src.(LengthHinter); ok {
		return lh.Frames()
	}
	return -1
}

func (r *SourceReader) Position() int { return r.pos }

func (r *SourceReader) ReadSamples(dst []float32) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if len(dst)%r.specs.Channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.eof {
		return 0, io.EOF
	}

	n, err := ReadFull(r.src, dst)
	r.pos += n / r.specs.Channels
	if err == io.EOF {
		r.eof = true
	}
	return n, err
}

func (r *SourceReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

type sampleReader interface {
	ReadSamples(dst []float32) (int, error)
}

// ReadFull reads from r until dst is full, the stream ends or an error
// occurs. It returns io.EOF only when the stream ended.
func ReadFull(r sampleReader, dst []float32) (int, error) {
	read, empty := 0, 0
	for read < len(dst) {
		n, err := r.ReadSamples(dst[read:])
		read += n
		if err != nil {
			return read, err
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return read, io.ErrNoProgress
			}
			continue
		}
		empty = 0
	}
	return read, nil
}

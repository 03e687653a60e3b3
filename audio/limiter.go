// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Limiter exposes the part of a reader between a start and an end time.
type Limiter struct {
	r     Reader
	start int
	end   int
}

// NewLimiter limits r to [start, end) seconds. A negative end leaves the
// stream unbounded.
func NewLimiter(r Reader, start, end float64) (*Limiter, error) {
	rate := r.Specs().Rate
	l := &Limiter{r: r, start: int(start * rate), end: -1}
	if end >= 0 {
		l.end = int(end * rate)
	}

	if l.start > 0 {
		if err := l.Seek(0); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LimiterFactory applies NewLimiter to every reader of f.
func LimiterFactory(f Factory, start, end float64) Factory {
	return FactoryFunc(func() (Reader, error) {
		r, err := f.CreateReader()
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		return NewLimiter(r, start, end)
	})
}

func (l *Limiter) Specs() Specs   { return l.r.Specs() }
func (l *Limiter) Seekable() bool { return l.r.Seekable() }
func (l *Limiter) Close() error   { return l.r.Close() }

func (l *Limiter) Seek(frame int) error {
	target := max(frame, 0) + l.start
	if l.r.Seekable() {
		return l.r.Seek(target)
	}
	if target < l.r.Position() {
		return ErrNotSeekable
	}

	// forward only: drop the frames in between
	ch := l.r.Specs().Channels
	buf := make([]float32, 1024*ch)
	for skip := target - l.r.Position(); skip > 0; skip = target - l.r.Position() {
		chunk := buf
		if skip*ch < len(chunk) {
			chunk = chunk[:skip*ch]
		}
		_, err := ReadFull(l.r, chunk)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Limiter) Length() int {
	n := l.r.Length()
	if l.end >= 0 && (n < 0 || n > l.end) {
		n = l.end
	}
	if n < 0 {
		return -1
	}
	return max(n-l.start, 0)
}

func (l *Limiter) Position() int {
	return l.r.Position() - l.start
}

func (l *Limiter) ReadSamples(dst []float32) (int, error) {
	ch := l.r.Specs().Channels
	if len(dst)%ch != 0 {
		return 0, ErrInvalidDstSize
	}

	limited := false
	if l.end >= 0 {
		remaining := l.end - l.r.Position()
		if remaining <= 0 {
			return 0, io.EOF
		}
		if len(dst) >= remaining*ch {
			dst = dst[:remaining*ch]
			limited = true
		}
	}

	n, err := ReadFull(l.r, dst)
	if err == nil && limited && n == len(dst) {
		err = io.EOF
	}
	return n, err
}

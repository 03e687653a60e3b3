// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize   = errors.New("dst size must be multiple of channels")
	ErrNotSeekable      = errors.New("audio: reader is not seekable")
	ErrInvalidSpecs     = errors.New("audio: invalid specs")
	ErrUnknownFormat    = errors.New("audio: unknown sample format")
	ErrNoDecoder        = errors.New("audio: no decoder registered for format")
	ErrInfiniteReader   = errors.New("audio: cannot buffer an infinite reader")
	ErrClosed           = errors.New("audio: reader closed")
	ErrChannelsMismatch = errors.New("audio: channel count mismatch")
)

// Kind classifies the backend or resource an Error comes from.
type Kind int

const (
	KindDevice Kind = iota
	KindOpenAL
	KindSDL
	KindJACK
	KindOto
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindOpenAL:
		return "openal"
	case KindSDL:
		return "sdl"
	case KindJACK:
		return "jack"
	case KindOto:
		return "oto"
	case KindFile:
		return "file"
	}
	return "device"
}

// Error is raised for resource acquisition failures: opening devices,
// creating native buffers, sources or ports, and opening files.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError returns an *Error of the given kind wrapping err, which may be nil.
func NewError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

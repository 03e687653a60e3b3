// SPDX-License-Identifier: EPL-2.0

package device

import "errors"

var (
	ErrClosed         = errors.New("device: closed")
	ErrUnknownBackend = errors.New("device: unknown backend")
	ErrInvalidConfig  = errors.New("device: invalid configuration")
	ErrNilReader      = errors.New("device: nil reader")
)

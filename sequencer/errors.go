// SPDX-License-Identifier: EPL-2.0

package sequencer

import "errors"

var (
	ErrInvalidFPS      = errors.New("sequencer: frames per second must be positive")
	ErrInvalidPosition = errors.New("sequencer: negative position")
)

// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("wav: not a WAV file")
	ErrUnsupportedFormat   = errors.New("wav: only integer PCM is supported")
	ErrUnsupportedBitDepth = errors.New("wav: unsupported bit depth")
	ErrNoPCMData           = errors.New("wav: PCM data not found")
	ErrInfiniteReader      = errors.New("wav: cannot encode an endless reader")
)

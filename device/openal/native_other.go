// SPDX-License-Identifier: EPL-2.0

//go:build !(darwin || freebsd || linux || netbsd)

package openal

import "errors"

var errUnsupported = errors.New("openal: not supported on this platform")

func loadNative(string) (api, error) { return nil, errUnsupported }

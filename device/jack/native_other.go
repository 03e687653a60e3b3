// SPDX-License-Identifier: EPL-2.0

//go:build !(darwin || freebsd || linux || netbsd)

package jack

import "errors"

var errUnsupported = errors.New("jack: not supported on this platform")

func loadNative(string) (api, error) { return nil, errUnsupported }

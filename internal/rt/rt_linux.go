// SPDX-License-Identifier: EPL-2.0

//go:build linux

package rt

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func setPriority(nice int) error {
	// on linux PRIO_PROCESS with a thread id targets that thread only
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), nice); err != nil {
		return fmt.Errorf("setpriority %d: %w", nice, err)
	}
	return nil
}

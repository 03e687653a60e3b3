// SPDX-License-Identifier: EPL-2.0

// Package rt raises the scheduling priority of the goroutines that feed audio
// hardware.
//
// Boost locks the calling goroutine to its OS thread; the returned function
// undoes that. Failing to change the priority is not an error worth stopping
// playback for, so Boost only reports it.
package rt

import "runtime"

// Nice is the niceness requested for mixing threads.
const Nice = -10

// Boost pins the goroutine to its thread and raises the thread priority.
func Boost() (release func(), err error) {
	runtime.LockOSThread()
	err = setPriority(Nice)
	return runtime.UnlockOSThread, err
}

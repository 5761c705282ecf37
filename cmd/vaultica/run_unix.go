//go:build !windows

package main

import (
	"os"
	"syscall"
)

// isElevated reports whether the process runs with root privileges.
func isElevated() bool {
	return os.Geteuid() == 0
}

// disableCoreDumps sets RLIMIT_CORE to 0 to prevent core dumps
func disableCoreDumps() error {
	var rLimit syscall.Rlimit
	rLimit.Cur = 0
	rLimit.Max = 0
	return syscall.Setrlimit(syscall.RLIMIT_CORE, &rLimit)
}

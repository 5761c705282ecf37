//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

// isElevated reports whether the process token carries elevated rights.
func isElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// disableCoreDumps is a no-op on Windows.
// Windows Error Reporting handles crash dumps differently and doesn't use
// RLIMIT_CORE.
func disableCoreDumps() error {
	return nil
}

//go:build windows

package config

import (
	"os"
)

// openConfigFile opens the config file on Windows.
// Windows doesn't have O_NOFOLLOW, but symlinks require special privileges
// to create there.
func openConfigFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDONLY, 0)
}

// checkFileOwnership on Windows is a no-op.
// Windows uses ACLs for file ownership which requires different handling.
func checkFileOwnership(_ os.FileInfo) error {
	return nil
}

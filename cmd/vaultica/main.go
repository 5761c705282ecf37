// Package main provides the vaultica CLI application.
package main

import (
	"fmt"
	"os"
)

func main() {
	// Core dumps could leak the master key or decrypted passwords.
	if err := disableCoreDumps(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to disable core dumps: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

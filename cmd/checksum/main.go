// Package main provides the entry point for the checksum CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/checksum/pkg/checksum/verify"
)

func main() {
	if err := Execute(); err != nil {
		if !errors.Is(err, verify.ErrVerificationFailed) {
			printError("%v", err)
		}
		os.Exit(1)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

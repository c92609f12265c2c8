package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// errUsage flags a command-line usage error (spec §6's UsageError kind),
// distinguished from a ContainerError for exit-code selection in main.
var errUsage = errors.New("usage error")

// resolveOutput applies spec §6's output-filename rule: multiple
// directories require an explicit --output, otherwise the output
// defaults to the basename of the single directory with an .h5 extension.
func resolveOutput(args []string, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if len(args) > 1 {
		return "", fmt.Errorf("%w: multiple directories require --output", errUsage)
	}

	return filepath.Base(filepath.Clean(args[0])) + ".h5", nil
}

const durationRoundTo = 10 * time.Millisecond

// VersionString returns the cobra version banner, grounded on
// toHDF5.cpp's VERSIONSTRING ("toHDF5 version " VERSION).
func VersionString() string {
	return "toHDF5 version " + Version
}

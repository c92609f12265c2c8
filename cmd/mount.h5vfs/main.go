/*
mount.h5vfs - FUSE mount helper

This program is a helper for the mount/fstab mechanism. It is normally
located in /sbin or another directory searched by mount(8) for filesystem
helpers, and is not intended to be invoked directly by end users.

Usage:

	mount.h5vfs source mountpoint [-o key[=value],key[=value],...]

For running the filesystem as another (e.g. unprivileged) user:

	mount.h5vfs source mountpoint -o setuid=USER[,key[=value],...]

Example (fstab entry):

	/data/archive.h5   /mnt/h5vfs   h5vfs   allow_other,diag-addr=:8000   0  0

Mount helper events are logged to standard error (stderr).
*/
//nolint:mnd,err113
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const mountTimeout = 20 * time.Second

// Version is the program version (filled in from the Makefile).
var Version string

// allowedKeys are the mount options this helper recognizes, split between
// h5vfs's own flags and the FUSE options h5vfs forwards unchanged.
var allowedKeys = map[string]struct{}{
	"diag-addr":           {},
	"allow_other":         {},
	"allow_root":          {},
	"default_permissions": {},
	"nonempty":            {},
	"async_read":          {},
	"writeback_cache":     {},
	"subtype":             {},
	"volname":             {},
	"max_readahead":       {},
}

// ownFlagKeys are keys consumed by h5vfs itself rather than forwarded as a
// FUSE "-o" option (spec §6: h5vfs appends "-ofsname=h5vfs -oro" to
// whatever is passed to FUSE, but --diag-addr is not a FUSE option).
var ownFlagKeys = map[string]struct{}{
	"diag-addr": {},
}

// MountHelper holds one mount(8) invocation's parsed arguments.
type MountHelper struct {
	Program    string
	Source     string
	Mountpoint string
	Options    map[string]string
	Setuid     string
	Binary     string
}

// NewMountHelper parses args (the raw os.Args) into a MountHelper.
func NewMountHelper(args []string) (*MountHelper, error) {
	mh := &MountHelper{
		Program:    "h5vfs",
		Source:     args[1],
		Mountpoint: args[2],
		Options:    make(map[string]string),
	}

	if mh.Source == "" {
		return nil, errors.New("no source argument was given")
	}
	if mh.Mountpoint == "" {
		return nil, errors.New("no mountpoint argument was given")
	}

	if err := mh.parseOptions(args[3:]); err != nil {
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}

	return mh, nil
}

func (mh *MountHelper) parseOptions(args []string) error {
	for i := 0; i < len(args); i++ { //nolint:intrange
		arg := args[i]

		if arg == "-v" || arg == "-o" {
			continue
		}

		for _, opt := range strings.Split(arg, ",") {
			if opt == "" {
				continue
			}
			opt = strings.TrimPrefix(opt, "--")

			key, val, hasVal := strings.Cut(opt, "=")

			switch {
			case key == "setuid":
				mh.Setuid = val
			case key == "mbin":
				mh.Binary = val
			case !hasVal:
				if _, ok := allowedKeys[key]; ok {
					mh.Options[key] = ""
				}
			default:
				if _, ok := allowedKeys[key]; ok {
					mh.Options[key] = val
				}
			}
		}
	}

	return nil
}

func main() {
	if len(os.Args) < 3 {
		progName := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, helpTextLong, progName, Version, progName, progName)
		os.Exit(1)
	}

	helper, err := NewMountHelper(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := helper.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

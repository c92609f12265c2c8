/*
h5vfs mounts an HDF5 archive produced by toHDF5 as a read-only FUSE
filesystem. Its usage is:

	h5vfs <container-file> <mountpoint> [FUSE-options...]

The first positional argument is stripped from the argument vector before
the remainder is interpreted as FUSE mount options; "-ofsname=h5vfs" and
"-oro" are always applied on top of whatever the caller passed.

The following signals are observed at runtime:
  - SIGTERM or SIGINT gracefully unmounts the filesystem
  - SIGUSR1 forces a garbage collection (within Go)
  - SIGUSR2 dumps a diagnostic stacktrace to standard error (stderr)

A "--diag-addr=<addr>" argument, parsed ahead of the FUSE options since it
isn't one itself, starts a read-only diagnostics dashboard (see
internal/diagnostics) on that address.
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/csbrady-warwick/h5vfs/internal/diagnostics"
	"github.com/csbrady-warwick/h5vfs/internal/logging"
	"github.com/csbrady-warwick/h5vfs/internal/pathresolver"
	"github.com/csbrady-warwick/h5vfs/internal/vfs"
)

const stackTraceBuffer = 1 << 24

// Version is the program version (filled in from the Makefile).
var Version = "0.1.0"

type programArgs struct {
	containerFile string
	mountPoint    string
	diagAddr      string
	fuseArgs      []string
}

func parseArgs(args []string) (programArgs, error) {
	var positional []string
	var diagAddr string
	var fuseArgs []string

	for _, a := range args {
		if val, ok := strings.CutPrefix(a, "--diag-addr="); ok {
			diagAddr = val

			continue
		}
		if len(positional) < 2 && !strings.HasPrefix(a, "-") {
			positional = append(positional, a)

			continue
		}
		fuseArgs = append(fuseArgs, a)
	}

	if len(positional) < 2 {
		return programArgs{}, fmt.Errorf("%w: usage: h5vfs <container-file> <mountpoint> [FUSE-options...]", errInvalidArgs)
	}

	return programArgs{
		containerFile: positional[0],
		mountPoint:    positional[1],
		diagAddr:      diagAddr,
		fuseArgs:      fuseArgs,
	}, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(opts programArgs) error {
	rbuf := logging.NewRingBuffer(256, os.Stderr)

	container, err := archive.Open(opts.containerFile)
	if err != nil {
		return fmt.Errorf("open container: %w", err)
	}
	defer container.Close()

	resolver := pathresolver.New(container, pathresolver.Options{})
	fsys := vfs.New(container, resolver, opts.mountPoint, rbuf)

	mountOpts := parseMountOptions(opts.fuseArgs, func(msg string) { rbuf.Println(msg) })
	mountOpts = append(mountOpts, fuse.FSName("h5vfs"), fuse.ReadOnly())

	c, err := fuse.Mount(opts.mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("fs mount error: %w", err)
	}
	defer c.Close()
	defer fuse.Unmount(opts.mountPoint) //nolint:errcheck

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	wg.Go(func() {
		defer close(errChan)
		if err := fs.Serve(c, fsys); err != nil {
			errChan <- fmt.Errorf("fs serve error: %w", err)
		}
	})

	if opts.diagAddr != "" {
		dash, err := diagnostics.New(fsys, rbuf, Version)
		if err != nil {
			return fmt.Errorf("diagnostics: %w", err)
		}
		srv := dash.Serve(opts.diagAddr)
		defer srv.Close()
	}

	sigTerm := make(chan os.Signal, 1)
	signal.Notify(sigTerm, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range sigTerm {
			rbuf.Println("Signal received, unmounting the filesystem...")

			if err := fuse.Unmount(opts.mountPoint); err != nil {
				rbuf.Printf("Unmount error: %v (try again later)\n", err)

				continue
			}

			return
		}
	}()

	sigGC := make(chan os.Signal, 1)
	signal.Notify(sigGC, syscall.SIGUSR1)
	go func() {
		for range sigGC {
			rbuf.Println("Signal received, forcing garbage collection...")
			runtime.GC()
			debug.FreeOSMemory()
		}
	}()

	sigStack := make(chan os.Signal, 1)
	signal.Notify(sigStack, syscall.SIGUSR2)
	go func() {
		for range sigStack {
			rbuf.Println("Signal received, printing stacktrace (to stderr)...")
			buf := make([]byte, stackTraceBuffer)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()

	wg.Wait()

	return <-errChan
}

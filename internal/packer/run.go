package packer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/csbrady-warwick/h5vfs/internal/logging"
	"github.com/csbrady-warwick/h5vfs/internal/policy"
	"github.com/dustin/go-humanize"
)

// RunOptions configures one end-to-end packing run, the set of values
// cmd/toh5vfs gathers from cobra flags.
type RunOptions struct {
	Roots      []string
	OutputPath string
	Config     policy.Config
	Log        *logging.RingBuffer
}

// Result summarizes a completed run, for the CLI's final report line.
type Result struct {
	ItemsStored uint64
	BytesStored uint64
	Duration    time.Duration
}

// Run opens or creates the output archive and packs every root into it,
// draining deferred hard links once every root has been walked, mirroring
// main()'s per-run loop in the original packer.
func Run(opts RunOptions) (Result, error) {
	start := time.Now()

	container, isNew, err := openOutput(opts.OutputPath, opts.Roots, opts.Config.NewRoots)
	if err != nil {
		return Result{}, err
	}
	defer container.Close()

	if isNew {
		opts.Log.Printf("creating new archive %s", opts.OutputPath)
	} else {
		opts.Log.Printf("appending to existing archive %s", opts.OutputPath)
	}

	engine, err := policy.New(opts.Config)
	if err != nil {
		return Result{}, err
	}

	p := New(container, engine, opts.Config, opts.Log)

	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return Result{}, fmt.Errorf("resolve root %q: %w", root, err)
		}

		if _, err := p.PackRoot(abs); err != nil {
			return Result{}, fmt.Errorf("pack root %q: %w", root, err)
		}
	}

	p.DrainDeferred()

	items, bytes := p.Stats()
	opts.Log.Printf("stored %d item(s), %s", items, humanize.Bytes(bytes))

	return Result{ItemsStored: items, BytesStored: bytes, Duration: time.Since(start)}, nil
}

// openOutput implements the output-file-mode rule of spec §4.2: create
// and initialize if the output doesn't exist, otherwise open read-write
// and require every root's top-level name already exist unless newroots
// is set.
func openOutput(path string, roots []string, newRoots bool) (*archive.Container, bool, error) {
	if !fileExists(path) {
		c, err := archive.Create(path, time.Now().Unix())

		return c, true, err
	}

	c, err := archive.OpenForUpdate(path)
	if err != nil {
		return nil, false, err
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			c.Close()

			return nil, false, err
		}

		name := "/" + filepath.Base(filepath.Clean(abs))
		if !c.Exists(name) && !newRoots {
			c.Close()

			return nil, false, fmt.Errorf("%w: %q", ErrNewRootRequired, name)
		}
	}

	return c, false, nil
}

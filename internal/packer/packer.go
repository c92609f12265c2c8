// Package packer implements the Packer of spec §4.2: it walks a source
// directory tree, consults the Policy Engine for each entry, and writes
// the resulting groups, datasets, attributes and links into an archive.
package packer

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/csbrady-warwick/h5vfs/internal/logging"
	"github.com/csbrady-warwick/h5vfs/internal/policy"
)

// ErrDeferredLinkUnresolved is logged (not returned) when a deferred hard
// link's source never materializes by the end of the walk.
var ErrDeferredLinkUnresolved = errors.New("deferred hard link source never appeared")

// ErrNewRootRequired is returned when appending an input root directory
// to an existing archive that doesn't already have a group of that name,
// without the newroots option set (spec §4.2).
var ErrNewRootRequired = errors.New("new root directory requires newroots option")

type deferredLink struct {
	source string
	dest   string
}

// Packer holds the state of one packing run: the open archive, the
// constructed Policy Engine, and the deferred hard-link queue.
type Packer struct {
	container *archive.Container
	engine    *policy.Engine
	cfg       policy.Config
	log       *logging.RingBuffer

	deferred    []deferredLink
	itemsStored uint64
	bytesStored uint64
}

// New constructs a Packer over an already-open archive.
func New(container *archive.Container, engine *policy.Engine, cfg policy.Config, log *logging.RingBuffer) *Packer {
	return &Packer{
		container: container,
		engine:    engine,
		cfg:       cfg,
		log:       log,
	}
}

// Stats returns the running totals of items and bytes stored so far.
func (p *Packer) Stats() (items uint64, bytes uint64) {
	return p.itemsStored, p.bytesStored
}

// PackRoot walks one input root directory into the archive, mirroring
// the original's per-root coalesce call. It returns the number of items
// stored at or below the root.
func (p *Packer) PackRoot(rootPath string) (uint64, error) {
	rootPath = filepath.Clean(rootPath)
	rootName := filepath.Base(rootPath)

	if p.container.Exists("/" + rootName) {
		p.log.Printf("appending to existing root group %q", rootName)
	}

	return p.coalesce(1, rootPath, rootPath, "/")
}

// DrainDeferred resolves every deferred hard link recorded across all
// PackRoot calls, in insertion order, per spec §4.2. Call once after
// every root has been walked.
func (p *Packer) DrainDeferred() {
	for _, link := range p.deferred {
		if !p.container.Exists(link.source) {
			p.log.Printf("failed to link %s to %s: %v", link.source, link.dest, ErrDeferredLinkUnresolved)

			continue
		}
		if err := p.container.CreateHardLink(link.dest, link.source); err != nil {
			p.log.Printf("failed to link %s to %s: %v", link.source, link.dest, err)
		}
	}
	p.deferred = nil
}

// coalesce dispatches on the type of entryPath, mirroring
// coalescetoHDF5's lstat-based switch, and returns the count of items
// stored at or below it.
func (p *Packer) coalesce(level int, basePath, entryPath, groupPath string) (uint64, error) {
	info, err := lstatEntry(entryPath)
	if err != nil {
		return 0, err
	}

	switch {
	case info.isDir:
		return p.handleDirectory(level, basePath, entryPath, groupPath)
	case info.isRegular || info.isSymlink:
		return p.handleFile(level, basePath, entryPath, groupPath, info)
	default:
		return 0, nil
	}
}

func (p *Packer) now() int64 {
	return time.Now().Unix()
}

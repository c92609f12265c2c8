package policy

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadPattern indicates an accept/reject pattern failed to translate or
// compile into a regex.
var ErrBadPattern = errors.New("invalid filter pattern")

// Kind tags a StoreDecision's variant.
type Kind int

// Recognized Kind values, the variants of spec §4.1's StoreDecision.
const (
	DontStore Kind = iota
	AsInternal
	AsHardLink
	AsSoftLink
	AsExternalLink
)

// Decision is the tagged-union result of Decide. Path carries the
// variant-specific payload: the recorded container path for AsHardLink
// and AsSoftLink, the raw link text for AsExternalLink.
type Decision struct {
	Kind Kind
	Path string
}

// Entry describes one filesystem entry being decided, the inputs listed
// in spec §4.1.
type Entry struct {
	// BasePath is the root of the current packing run (an input root
	// directory), used to resolve symlink targets and test containment.
	BasePath string
	// SourcePath is the absolute path to the entry on the host filesystem.
	SourcePath string
	// DatasetName is the name the entry would take within ExistingGroupPath.
	DatasetName string
	// IsDir distinguishes directories from files for regex selection.
	IsDir bool
}

// ExistingLookup abstracts the archive reads Decide needs: whether a name
// already exists in the destination group, and the comparison fields of
// an existing dataset when the update policy needs them. The Packer
// supplies an implementation backed by *archive.Container; tests supply
// an in-memory fake.
type ExistingLookup interface {
	Exists(datasetName string) bool
	DatasetLength(datasetName string) (uint64, bool, error)
	ModifiedAttr(datasetName string) (int64, bool, error)
	MD5Attr(datasetName string) (string, bool, error)
}

// New constructs an Engine, compiling every configured filter once.
func New(cfg Config) (*Engine, error) {
	filters, err := newCompiledFilters(cfg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		filters:  filters,
		inodes:   make(map[uint64]string),
		singleFn: make(map[string]string),
	}, nil
}

// Decide applies the algorithm of spec §4.1 to entry, consulting lookup
// for destination-already-present cases.
func (e *Engine) Decide(entry Entry, lookup ExistingLookup) (Decision, error) {
	accept, reject := e.filters.acceptFile, e.filters.rejectFile
	if entry.IsDir {
		accept, reject = e.filters.acceptDir, e.filters.rejectDir
	}
	if !passes(entry.DatasetName, accept, reject) {
		return Decision{Kind: DontStore}, nil
	}

	info, err := os.Lstat(entry.SourcePath)
	if err != nil {
		return Decision{}, err
	}

	isSymlink := info.Mode()&os.ModeSymlink != 0
	exists := lookup.Exists(entry.DatasetName)

	if !isSymlink && !exists {
		return e.decideNewNonSymlink(entry, info)
	}

	if isSymlink && !exists {
		return e.decideNewSymlink(entry)
	}

	// Destination already present and source is not a symlink.
	if !isSymlink {
		return e.decideUpdate(entry, info, lookup)
	}

	return Decision{Kind: DontStore}, nil
}

func (e *Engine) decideNewNonSymlink(entry Entry, info os.FileInfo) (Decision, error) {
	ino, nlink, ok := inodeInfo(info)
	if !ok || nlink <= 1 {
		return Decision{Kind: AsInternal}, nil
	}

	if recorded, found := e.inodes[ino]; found {
		return Decision{Kind: AsHardLink, Path: recorded}, nil
	}

	e.inodes[ino] = ComposeLinkPath(entry.BasePath, entry.SourcePath)

	return Decision{Kind: AsInternal}, nil
}

func (e *Engine) decideNewSymlink(entry Entry) (Decision, error) {
	linkText, err := os.Readlink(entry.SourcePath)
	if err != nil {
		return Decision{Kind: DontStore}, nil //nolint:nilerr
	}

	target := linkText
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(entry.SourcePath), target)
	}

	if isSubpath(entry.BasePath, target) {
		return Decision{Kind: AsSoftLink, Path: ComposeLinkPath(entry.BasePath, target)}, nil
	}

	switch e.cfg.StoreExternalSymlinks {
	case SymlinkIgnore, "":
		return Decision{Kind: DontStore}, nil
	case SymlinkFile:
		return Decision{Kind: AsInternal}, nil
	case SymlinkSingleFile:
		if recorded, found := e.singleFn[linkText]; found {
			return Decision{Kind: AsSoftLink, Path: recorded}, nil
		}
		e.singleFn[linkText] = ComposeLinkPath(entry.BasePath, entry.SourcePath)

		return Decision{Kind: AsInternal}, nil
	case SymlinkLink:
		return Decision{Kind: AsExternalLink, Path: linkText}, nil
	default:
		return Decision{Kind: DontStore}, nil
	}
}

func (e *Engine) decideUpdate(entry Entry, info os.FileInfo, lookup ExistingLookup) (Decision, error) {
	switch e.cfg.UpdatePolicy {
	case UpdateNever, "":
		return Decision{Kind: DontStore}, nil
	case UpdateAlways:
		return Decision{Kind: AsInternal}, nil
	case UpdateFilesize:
		length, ok, err := lookup.DatasetLength(entry.DatasetName)
		if err != nil {
			return Decision{}, err
		}
		if ok && length == uint64(info.Size()) {
			return Decision{Kind: DontStore}, nil
		}

		return Decision{Kind: AsInternal}, nil
	case UpdateFiletime:
		modified, ok, err := lookup.ModifiedAttr(entry.DatasetName)
		if err != nil {
			return Decision{}, err
		}
		if ok && modified == modTimeUnix(info) {
			return Decision{Kind: DontStore}, nil
		}

		return Decision{Kind: AsInternal}, nil
	case UpdateHash:
		if entry.IsDir {
			return Decision{Kind: DontStore}, nil
		}

		existing, ok, err := lookup.MD5Attr(entry.DatasetName)
		if err != nil {
			return Decision{}, err
		}

		digest, err := HashFile(entry.SourcePath, e.chunkSize())
		if err != nil {
			return Decision{}, err
		}
		if ok && digest == existing {
			return Decision{Kind: DontStore}, nil
		}

		return Decision{Kind: AsInternal}, nil
	default:
		return Decision{Kind: DontStore}, nil
	}
}

func (e *Engine) chunkSize() int64 {
	if e.cfg.Chunk <= 0 {
		return DefaultChunkSize
	}

	return e.cfg.Chunk
}

// ComposeLinkPath composes an intra-archive absolute path for an entry
// under basePath, per spec §4.2's link-path composition rule:
// "/" + lastComponent(base_path) + "/" + relativePath(target, base_path).
func ComposeLinkPath(basePath, target string) string {
	rel, err := filepath.Rel(basePath, target)
	if err != nil || rel == "." {
		return "/" + filepath.Base(filepath.Clean(basePath))
	}

	return "/" + filepath.Base(filepath.Clean(basePath)) + "/" + filepath.ToSlash(rel)
}

func isSubpath(base, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// HashFile computes the MD5 digest of path, reading strictly increasing
// offsets in chunkSize-sized reads (spec §4.1's deterministic hashing
// order), returning the canonical lowercase hex digest.
func HashFile(path string, chunkSize int64) (string, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec

	buf := make([]byte, chunkSize)
	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

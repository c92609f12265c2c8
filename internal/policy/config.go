// Package policy implements the Policy Engine: the per-entry storage
// decision the Packer consults for every filesystem entry it walks.
package policy

import "time"

// UpdatePolicy controls whether an already-present destination is
// rewritten.
type UpdatePolicy string

// Recognized UpdatePolicy values.
const (
	UpdateNever    UpdatePolicy = "never"
	UpdateAlways   UpdatePolicy = "always"
	UpdateFilesize UpdatePolicy = "filesize"
	UpdateFiletime UpdatePolicy = "filetime"
	UpdateHash     UpdatePolicy = "hash"
)

// ExternalSymlinkPolicy controls how a symlink resolving outside the base
// path is handled.
type ExternalSymlinkPolicy string

// Recognized ExternalSymlinkPolicy values.
const (
	SymlinkIgnore     ExternalSymlinkPolicy = "ignore"
	SymlinkFile       ExternalSymlinkPolicy = "file"
	SymlinkSingleFile ExternalSymlinkPolicy = "singlefile"
	SymlinkLink       ExternalSymlinkPolicy = "link"
)

// DefaultChunkSize is the default streaming chunk size for storeFile.
const DefaultChunkSize = 10 << 20

// Config holds every Policy Engine option (spec §4.1). It is populated by
// cobra flags in cmd/toh5vfs, mirroring how the teacher's programOpts is
// built from flag variables and passed down as a plain struct.
type Config struct {
	AcceptFileGlob  []string
	AcceptFileRegex []string
	RejectFileGlob  []string
	RejectFileRegex []string
	AcceptDirGlob   []string
	AcceptDirRegex  []string
	RejectDirGlob   []string
	RejectDirRegex  []string

	UpdatePolicy           UpdatePolicy
	StoreExternalSymlinks  ExternalSymlinkPolicy
	Chunk                  int64
	AllowEmptyDirs         bool
	NewRoots               bool
}

// DefaultConfig returns the Policy Engine's default configuration.
func DefaultConfig() Config {
	return Config{
		UpdatePolicy:          UpdateNever,
		StoreExternalSymlinks: SymlinkIgnore,
		Chunk:                 DefaultChunkSize,
		AllowEmptyDirs:        false,
		NewRoots:              false,
	}
}

// compiledFilters holds the regex filters compiled once at engine
// construction, instead of recompiling a pattern on every entry.
type compiledFilters struct {
	acceptFile []matcher
	rejectFile []matcher
	acceptDir  []matcher
	rejectDir  []matcher
}

// Engine is a constructed Policy Engine ready to decide entries.
type Engine struct {
	cfg      Config
	filters  compiledFilters
	inodes   map[uint64]string
	singleFn map[string]string
	now      func() time.Time
}

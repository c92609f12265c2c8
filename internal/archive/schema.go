package archive

// Attribute names from the archive schema (spec §3).
const (
	AttrCreated      = "Created"
	AttrModified     = "Modified"
	AttrPermissions  = "Permissions"
	AttrMD5Hash      = "MD5Hash"
	AttrExternalLink = "ExternalLink"
	AttrH5VFS        = "H5VFS"
)

// EmptyMD5Hash is the canonical MD5 of zero bytes, used for empty files.
const EmptyMD5Hash = "d41d8cd98f00b204e9800998ecf8427e"

// Version is the value written into the root group's H5VFS attribute by
// archives this system produces.
const Version = "0.1.0"

// AttrSeparator is the literal token joining a child name and attribute
// name in the attribute-as-file naming convention.
const AttrSeparator = ".attr."

// ObjectKind distinguishes the container object a resolved name refers to.
type ObjectKind int

const (
	// KindUnknown is the zero value; never a valid resolution result.
	KindUnknown ObjectKind = iota
	// KindGroup is an archive group (directory).
	KindGroup
	// KindDataset is an archive dataset (regular file).
	KindDataset
)

// LinkKind distinguishes the three link flavors of spec §3.
type LinkKind int

const (
	// LinkNone means the name is not a link at all.
	LinkNone LinkKind = iota
	// LinkSoft is an intra-archive soft link.
	LinkSoft
	// LinkHard is an intra-archive hard link (resolved transparently by HDF5).
	LinkHard
	// LinkExternal is a group bearing the ExternalLink attribute.
	LinkExternal
)

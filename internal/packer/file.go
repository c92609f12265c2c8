package packer

import (
	"fmt"
	"path"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/csbrady-warwick/h5vfs/internal/policy"
)

// handleFile decides and applies the outcome for one regular file or
// symlink entry, mirroring handleFile in the original packer.
func (p *Packer) handleFile(level int, basePath, filePath, groupPath string, info entryInfo) (uint64, error) {
	name := path.Base(filePath)
	destPath := path.Join(groupPath, name)
	existed := p.container.Exists(destPath)

	lookup := archiveLookup{container: p.container, groupPath: groupPath}
	decision, err := p.engine.Decide(policy.Entry{
		BasePath:    basePath,
		SourcePath:  filePath,
		DatasetName: name,
		IsDir:       false,
	}, lookup)
	if err != nil {
		return 0, fmt.Errorf("decide %s: %w", filePath, err)
	}

	switch decision.Kind {
	case policy.DontStore:
		p.log.Printf("%sskipping %s", indent(level), name)

		return 0, nil
	case policy.AsInternal:
		verb := "creating"
		if existed {
			verb = "overwriting"
		}
		p.log.Printf("%s%s dataset %s", indent(level), verb, name)

		if err := p.storeFile(filePath, destPath, info); err != nil {
			return 0, fmt.Errorf("store %s: %w", filePath, err)
		}

		return 1, nil
	case policy.AsHardLink:
		p.log.Printf("%shard linking dataset %s", indent(level), name)
		p.hardLink(decision.Path, destPath)

		return 1, nil
	case policy.AsSoftLink:
		p.log.Printf("%ssoft linking dataset %s", indent(level), name)

		if err := p.softLink(decision.Path, destPath); err != nil {
			return 0, fmt.Errorf("soft link %s: %w", destPath, err)
		}

		return 1, nil
	case policy.AsExternalLink:
		p.log.Printf("%slinking dataset %s to external file %s", indent(level), name, decision.Path)

		if err := p.externalLink(decision.Path, destPath); err != nil {
			return 0, fmt.Errorf("external link %s: %w", destPath, err)
		}

		return 1, nil
	default:
		return 0, nil
	}
}

// storeFile writes a dataset's bytes in chunks, hashing as it streams,
// then attaches the four metadata attributes. Mirrors storeFile in the
// original packer, including the empty-file shortcut.
func (p *Packer) storeFile(sourcePath, destPath string, info entryInfo) error {
	if p.container.Exists(destPath) {
		if err := p.container.Unlink(destPath); err != nil {
			return err
		}
	}

	size := uint64(info.size)
	if err := p.container.CreateDataset(destPath, size); err != nil {
		return err
	}

	digest := archive.EmptyMD5Hash
	if size > 0 {
		d, err := p.writeChunked(sourcePath, destPath, size)
		if err != nil {
			return err
		}
		digest = d
	}

	if err := p.container.WriteObjectMeta(destPath, info.created, info.modified, info.perm); err != nil {
		return err
	}
	if err := p.container.WriteMD5Hash(destPath, digest); err != nil {
		return err
	}

	p.itemsStored++
	p.bytesStored += size

	return nil
}

func (p *Packer) chunkSize() int64 {
	if p.cfg.Chunk <= 0 {
		return policy.DefaultChunkSize
	}

	return p.cfg.Chunk
}

func indent(level int) string {
	out := make([]byte, level*2)
	for i := range out {
		out[i] = '-'
	}

	return string(out)
}

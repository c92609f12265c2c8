package packer

import (
	"fmt"
	"os"
	"path"

	"github.com/csbrady-warwick/h5vfs/internal/policy"
)

// handleDirectory decides and applies the outcome for one directory
// entry (including a directory that is itself a symlink), mirroring
// handleDirectory in the original packer.
func (p *Packer) handleDirectory(level int, basePath, dirPath, groupPath string) (uint64, error) {
	name := path.Base(dirPath)
	destPath := path.Join(groupPath, name)
	existed := p.container.Exists(destPath)

	lookup := archiveLookup{container: p.container, groupPath: groupPath}
	decision, err := p.engine.Decide(policy.Entry{
		BasePath:    basePath,
		SourcePath:  dirPath,
		DatasetName: name,
		IsDir:       true,
	}, lookup)
	if err != nil {
		return 0, fmt.Errorf("decide %s: %w", dirPath, err)
	}

	switch decision.Kind {
	case policy.DontStore:
		p.log.Printf("%sskipping directory %s", indent(level), name)

		return 0, nil
	case policy.AsSoftLink:
		p.log.Printf("%ssoft linking directory %s to %s", indent(level), name, decision.Path)

		if err := p.softLink(decision.Path, destPath); err != nil {
			return 0, fmt.Errorf("soft link %s: %w", destPath, err)
		}

		return 1, nil
	case policy.AsHardLink:
		p.log.Printf("%shard linking directory %s", indent(level), name)
		p.hardLink(decision.Path, destPath)

		return 1, nil
	}

	if existed {
		p.log.Printf("%sopening existing group %s", indent(level), name)
	} else {
		p.log.Printf("%screating group %s", indent(level), name)

		if _, err := p.container.EnsureGroup(destPath); err != nil {
			return 0, fmt.Errorf("create group %s: %w", destPath, err)
		}

		info, err := lstatEntry(dirPath)
		if err != nil {
			return 0, err
		}
		if err := p.container.WriteObjectMeta(destPath, info.created, info.modified, info.perm); err != nil {
			return 0, err
		}
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dirPath, err)
	}

	var itemCount uint64

	for _, entry := range entries {
		n, err := p.coalesce(level+1, basePath, path.Join(dirPath, entry.Name()), destPath)
		if err != nil {
			return itemCount, err
		}
		itemCount += n
	}

	if itemCount == 0 && !existed && !p.cfg.AllowEmptyDirs {
		p.log.Printf("%sremoving group %s as empty", indent(level), name)

		if err := p.container.Unlink(destPath); err != nil {
			return 0, err
		}
	}

	return itemCount, nil
}

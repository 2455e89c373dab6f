package romfs

import (
	"fmt"
	"io/fs"
	"path"
)

// Build walks source (typically an embed.FS) and returns the Directory
// tree it describes, rooted at ".". fs.ReadDir's guarantee that entries
// come back sorted by filename is what lets Directory.find binary search
// rather than scan.
func Build(source fs.FS) (*Directory, error) {
	return buildDir(source, ".", nil)
}

func buildDir(source fs.FS, dirPath string, parent *Directory) (*Directory, error) {
	dir := &Directory{parent: parent}

	entries, err := fs.ReadDir(source, dirPath)
	if err != nil {
		return nil, fmt.Errorf("romfs: read %s: %w", dirPath, err)
	}

	members := make([]Dirent, 0, len(entries))
	for _, e := range entries {
		childPath := path.Join(dirPath, e.Name())
		if e.IsDir() {
			sub, err := buildDir(source, childPath, dir)
			if err != nil {
				return nil, err
			}
			members = append(members, Dirent{Name: e.Name(), Subdir: sub})
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("romfs: stat %s: %w", childPath, err)
		}
		data, err := fs.ReadFile(source, childPath)
		if err != nil {
			return nil, fmt.Errorf("romfs: read %s: %w", childPath, err)
		}
		members = append(members, Dirent{Name: e.Name(), Contents: data, Mtime: info.ModTime()})
	}

	dir.Members = members
	return dir, nil
}

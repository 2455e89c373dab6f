package romfs

import (
	"fmt"
	"strings"
)

// FS is a navigable handle onto a compiled-in directory tree: one root plus
// a current-working-directory cursor, the way the original embedded
// filesystem exposes stat/open/opendir/chdir/getcwd over its compile-time
// dirent arrays.
type FS struct {
	root *Directory
	cwd  *Directory
	// cwdPath is the slash-separated path from root to cwd, maintained
	// alongside cwd so Getcwd doesn't need to walk parent pointers (the
	// root directory's Dirent, unlike every other directory, has no
	// parent-side entry naming it).
	cwdPath string
}

// New returns an FS rooted at root, with its current directory set to root.
func New(root *Directory) *FS {
	return &FS{root: root, cwd: root, cwdPath: "/"}
}

// rootDirent is the synthetic entry "/" resolves to: it has no Name of its
// own in any parent's Members array, so it's represented separately rather
// than forced into the Dirent type the rest of the tree uses.
func (fs *FS) rootDirent() *Dirent {
	return &Dirent{Name: "/", Subdir: fs.root}
}

// parsePath resolves path to the Dirent it names, starting at fs.cwd unless
// path begins with '/', in which case it starts at fs.root.
func (fs *FS) parsePath(path string) (*Dirent, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalid)
	}

	dir := fs.cwd
	if strings.HasPrefix(path, "/") {
		dir = fs.root
	}

	var current *Dirent
	components := strings.Split(path, "/")
	for i, comp := range components {
		if comp == "" || comp == "." {
			continue
		}
		if comp == ".." {
			if dir.parent != nil {
				dir = dir.parent
			}
			current = nil
			continue
		}

		ent := dir.find(comp)
		if ent == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		isLast := i == len(components)-1
		if !isLast {
			if !ent.IsDirectory() {
				return nil, fmt.Errorf("%w: %s", ErrNotDir, path)
			}
			dir = ent.Subdir
		}
		current = ent
	}

	if current == nil {
		// The path was "/", or consisted only of "." / ".." components:
		// it names the directory we ended up walking into.
		return fs.direntFor(dir), nil
	}
	return current, nil
}

// direntFor returns the Dirent that names dir within its parent, or the
// synthetic root entry if dir is the filesystem root.
func (fs *FS) direntFor(dir *Directory) *Dirent {
	if dir == fs.root {
		return fs.rootDirent()
	}
	if self := dir.findSelf(); self != nil {
		return self
	}
	return fs.rootDirent()
}

// Stat resolves path and returns its size/mtime/mode.
func (fs *FS) Stat(path string) (Stat, error) {
	ent, err := fs.parsePath(path)
	if err != nil {
		return Stat{}, err
	}
	return ent.Stat(), nil
}

// Open resolves path and returns its file contents. It fails with
// ErrNotDir if path names a directory.
func (fs *FS) Open(path string) ([]byte, error) {
	ent, err := fs.parsePath(path)
	if err != nil {
		return nil, err
	}
	if ent.IsDirectory() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, path)
	}
	return ent.Contents, nil
}

// Opendir resolves path and returns the Directory it names. It fails with
// ErrNotDir if path names a plain file.
func (fs *FS) Opendir(path string) (*Directory, error) {
	ent, err := fs.parsePath(path)
	if err != nil {
		return nil, err
	}
	if !ent.IsDirectory() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, path)
	}
	return ent.Subdir, nil
}

// Chdir changes the current directory to path.
func (fs *FS) Chdir(path string) error {
	dir, err := fs.Opendir(path)
	if err != nil {
		return err
	}
	fs.cwd = dir
	fs.cwdPath = normalizeCwdPath(fs.cwdPath, path)
	return nil
}

// Getcwd returns the current directory's path from the root.
func (fs *FS) Getcwd() string { return fs.cwdPath }

func normalizeCwdPath(old, path string) string {
	if strings.HasPrefix(path, "/") {
		return cleanSlashPath(path)
	}
	return cleanSlashPath(old + "/" + path)
}

// cleanSlashPath collapses "." and ".." components and repeated slashes,
// the way the shell's cd builtin presents the resulting working directory.
func cleanSlashPath(path string) string {
	parts := strings.Split(path, "/")
	var stack []string
	for _, p := range parts {
		switch p {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, p)
		}
	}
	return "/" + strings.Join(stack, "/")
}

// Fsck walks the whole tree checking for cycles: every directory must be
// reachable exactly once along any single path from the root, since the
// tree is meant to be a DAG-free hierarchy like a real filesystem.
func (fs *FS) Fsck() error {
	return fsckDir(fs.root, nil)
}

func fsckDir(dir *Directory, visited []*Directory) error {
	for _, v := range visited {
		if v == dir {
			return fmt.Errorf("romfs: directory cycle detected")
		}
	}
	visited = append(visited, dir)

	prevName := ""
	for i := range dir.Members {
		m := &dir.Members[i]
		if i > 0 && m.Name <= prevName {
			return fmt.Errorf("romfs: directory members not sorted at %q", m.Name)
		}
		prevName = m.Name
		if m.IsDirectory() {
			if m.Subdir.parent != dir {
				return fmt.Errorf("romfs: %q has a broken parent pointer", m.Name)
			}
			if err := fsckDir(m.Subdir, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

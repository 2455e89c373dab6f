package romfs

import "errors"

// Errors returned by FS operations, mirroring the POSIX errno values the
// original embedded filesystem reports (einval/enoent/enotdir).
var (
	ErrInvalid  = errors.New("romfs: invalid argument")
	ErrNotExist = errors.New("romfs: no such file or directory")
	ErrNotDir   = errors.New("romfs: not a directory")
)

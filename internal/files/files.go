// Package files implements the filesystem operations content may call
// through the host. Failures are *fault.Error values of kind FS whose
// message starts with the platform error code, for example
// "FsError: ENOENT: open /x: no such file or directory".
package files

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ppiankov/hostgate/internal/fault"
)

// DirEntry is one result of ReadDir.
type DirEntry struct {
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
}

// Info is the result of Stat. Times are milliseconds since the epoch and
// Mode carries the file type bits as well as the permissions.
type Info struct {
	IsFile         bool    `json:"isFile"`
	IsDirectory    bool    `json:"isDirectory"`
	IsSymbolicLink bool    `json:"isSymbolicLink"`
	Size           int64   `json:"size"`
	Mode           uint32  `json:"mode"`
	CtimeMs        float64 `json:"ctimeMs"`
	AtimeMs        float64 `json:"atimeMs"`
	MtimeMs        float64 `json:"mtimeMs"`
	Nlink          uint64  `json:"nlink"`
	Dev            uint64  `json:"dev"`
}

// ReadDir lists path. Symlinks are reported as non-directories.
func ReadDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fsErr(err)
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name(), IsDirectory: e.IsDir()})
	}
	return out, nil
}

// Stat follows symlinks; IsSymbolicLink reports whether path itself is one.
func Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fsErr(err)
	}
	info := Info{
		IsFile:      fi.Mode().IsRegular(),
		IsDirectory: fi.IsDir(),
		Size:        fi.Size(),
	}
	if li, err := os.Lstat(path); err == nil {
		info.IsSymbolicLink = li.Mode()&fs.ModeSymlink != 0
	}
	fillSys(path, fi, &info)
	return info, nil
}

// Mkdir creates path. With recursive, missing parents are created and an
// existing directory is not an error. A zero mode means 0777 before umask.
func Mkdir(path string, recursive bool, mode uint32) error {
	perm := fs.FileMode(0o777)
	if mode != 0 {
		perm = fs.FileMode(mode) & fs.ModePerm
	}
	var err error
	if recursive {
		err = os.MkdirAll(path, perm)
	} else {
		err = os.Mkdir(path, perm)
	}
	return fsErr(err)
}

// Unlink removes a file or symlink. Directories are refused.
func Unlink(path string) error {
	return fsErr(unlink(path))
}

// Remove deletes path. A directory needs recursive; with force a missing
// path is not an error.
func Remove(path string, recursive, force bool) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if force && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fsErr(err)
	}
	if fi.IsDir() && !recursive {
		return fault.WithCode(fault.FS, "ERR_FS_EISDIR", &fs.PathError{Op: "rm", Path: path, Err: errors.New("path is a directory")})
	}
	if recursive {
		return fsErr(os.RemoveAll(path))
	}
	return fsErr(os.Remove(path))
}

// Rename moves from to to, replacing to if it is a file.
func Rename(from, to string) error {
	return fsErr(os.Rename(from, to))
}

// ReadFile returns the contents of path.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fsErr(err)
	}
	return data, nil
}

// WriteFile creates or truncates path with data.
func WriteFile(path string, data []byte) error {
	return fsErr(os.WriteFile(path, data, 0o666))
}

func fsErr(err error) error {
	if err == nil {
		return nil
	}
	return fault.WithCode(fault.FS, Code(err), err)
}

// Code names err the way the platform does: ENOENT, EEXIST, EACCES and so
// on. Errors without an errno fall back to the io/fs sentinels.
func Code(err error) string {
	if code := errnoCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "ENOENT"
	case errors.Is(err, fs.ErrExist):
		return "EEXIST"
	case errors.Is(err, fs.ErrPermission):
		return "EACCES"
	}
	return "UNKNOWN"
}

//go:build !unix

package files

import (
	"errors"
	"io/fs"
	"os"
)

func errnoCode(error) string { return "" }

func unlink(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return &fs.PathError{Op: "unlink", Path: path, Err: errors.New("is a directory")}
	}
	return os.Remove(path)
}

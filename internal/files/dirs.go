package files

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Dirs resolves the well-known directories content asks for. Paths that
// name a directory end with a separator.
type Dirs struct {
	Identifier string
	home       func() (string, error)
	getenv     func(string) string
	goos       string
}

// NewDirs returns Dirs for the running user. identifier names the app
// data directory.
func NewDirs(identifier string) Dirs {
	return Dirs{Identifier: identifier, home: os.UserHomeDir, getenv: os.Getenv, goos: runtime.GOOS}
}

// Home returns the user's home directory.
func (d Dirs) Home() (string, error) {
	home, err := d.home()
	if err != nil {
		return "", fsErr(err)
	}
	return withSep(home), nil
}

// Documents returns ~/Documents whether or not it exists.
func (d Dirs) Documents() (string, error) {
	home, err := d.home()
	if err != nil {
		return "", fsErr(err)
	}
	return withSep(filepath.Join(home, "Documents")), nil
}

// Temp returns the temp directory without a trailing separator.
func (d Dirs) Temp() string {
	return os.TempDir()
}

// AppData returns the per-user data directory for Identifier:
// ~/Library/Application Support on macOS, %LOCALAPPDATA% on Windows and
// $XDG_DATA_HOME (default ~/.local/share) elsewhere.
func (d Dirs) AppData() (string, error) {
	home, err := d.home()
	if err != nil {
		return "", fsErr(err)
	}
	var base string
	switch d.goos {
	case "darwin":
		base = filepath.Join(home, "Library", "Application Support")
	case "windows":
		base = d.getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
	default:
		base = d.getenv("XDG_DATA_HOME")
		if base == "" {
			base = filepath.Join(home, ".local", "share")
		}
	}
	return withSep(filepath.Join(base, d.Identifier)), nil
}

// Assets is the directory served under /asset/.
func (d Dirs) Assets() (string, error) {
	data, err := d.AppData()
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "assets"), nil
}

// WindowsDrives returns the drive letters that exist, or nil on other
// platforms or when none are found.
func (d Dirs) WindowsDrives() []string {
	if d.goos != "windows" {
		return nil
	}
	var drives []string
	for c := 'A'; c <= 'Z'; c++ {
		if _, err := os.Stat(string(c) + `:\`); err == nil {
			drives = append(drives, string(c))
		}
	}
	return drives
}

func withSep(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}

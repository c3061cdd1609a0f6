package files

import "io/fs"

// POSIX file type bits.
const (
	modeDir     = 0o040000
	modeRegular = 0o100000
	modeSymlink = 0o120000
)

// fillPortable fills what io/fs knows. ctime is reported as mtime.
func fillPortable(fi fs.FileInfo, info *Info) {
	mode := uint32(fi.Mode().Perm())
	switch {
	case fi.IsDir():
		mode |= modeDir
	case fi.Mode()&fs.ModeSymlink != 0:
		mode |= modeSymlink
	case fi.Mode().IsRegular():
		mode |= modeRegular
	}
	info.Mode = mode
	info.Nlink = 1
	ms := millis(fi.ModTime().UnixNano())
	info.MtimeMs, info.CtimeMs, info.AtimeMs = ms, ms, ms
}

func millis(nanos int64) float64 {
	return float64(nanos) / 1e6
}

//go:build !linux && !darwin

package files

import "io/fs"

func fillSys(_ string, fi fs.FileInfo, info *Info) {
	fillPortable(fi, info)
}

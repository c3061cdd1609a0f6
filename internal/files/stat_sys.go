//go:build linux || darwin

package files

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

func fillSys(path string, fi fs.FileInfo, info *Info) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		fillPortable(fi, info)
		return
	}
	info.Mode = uint32(st.Mode)
	info.Nlink = uint64(st.Nlink)
	info.Dev = uint64(st.Dev)
	info.AtimeMs = millis(st.Atim.Nano())
	info.MtimeMs = millis(st.Mtim.Nano())
	info.CtimeMs = millis(st.Ctim.Nano())
}

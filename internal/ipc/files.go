package ipc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	OpFsReaddir        Op = "fsReaddir"
	OpFsStat           Op = "fsStat"
	OpFsMkdir          Op = "fsMkdir"
	OpFsUnlink         Op = "fsUnlink"
	OpFsRmdir          Op = "fsRmdir"
	OpFsRename         Op = "fsRename"
	OpFsReadFile       Op = "fsReadFile"
	OpFsWriteFile      Op = "fsWriteFile"
	OpGetDocumentsDir  Op = "getDocumentsDir"
	OpGetHomeDir       Op = "getHomeDir"
	OpGetTempDir       Op = "getTempDir"
	OpGetAppDataDir    Op = "getAppDataDir"
	OpGetWindowsDrives Op = "getWindowsDrives"
	OpGetAppPath       Op = "getAppPath"
)

// FileRequest is a Request served from the local filesystem. The host runs
// these outside its event-loop turn.
type FileRequest interface {
	Request
	fileRequest()
}

type MkdirOptions struct {
	Recursive bool   `json:"recursive,omitempty"`
	Mode      uint32 `json:"mode,omitempty"`
}

type RmOptions struct {
	Recursive bool `json:"recursive,omitempty"`
	Force     bool `json:"force,omitempty"`
}

// Bytes is file content on the wire: a JSON string is taken as UTF-8 text
// and an array of numbers as raw bytes.
type Bytes []byte

func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = Bytes(s)
		return nil
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return errors.New("data must be a string or an array of bytes")
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

type FsReaddir struct{ Path string }
type FsStat struct{ Path string }

type FsMkdir struct {
	Path    string
	Options MkdirOptions
}

type FsUnlink struct{ Path string }

type FsRmdir struct {
	Path    string
	Options RmOptions
}

type FsRename struct{ From, To string }
type FsReadFile struct{ Path string }

type FsWriteFile struct {
	Path string
	Data Bytes
}

type GetDocumentsDir struct{}
type GetHomeDir struct{}
type GetTempDir struct{}
type GetAppDataDir struct{}
type GetWindowsDrives struct{}
type GetAppPath struct{}

func (FsReaddir) Op() Op        { return OpFsReaddir }
func (FsStat) Op() Op           { return OpFsStat }
func (FsMkdir) Op() Op          { return OpFsMkdir }
func (FsUnlink) Op() Op         { return OpFsUnlink }
func (FsRmdir) Op() Op          { return OpFsRmdir }
func (FsRename) Op() Op         { return OpFsRename }
func (FsReadFile) Op() Op       { return OpFsReadFile }
func (FsWriteFile) Op() Op      { return OpFsWriteFile }
func (GetDocumentsDir) Op() Op  { return OpGetDocumentsDir }
func (GetHomeDir) Op() Op       { return OpGetHomeDir }
func (GetTempDir) Op() Op       { return OpGetTempDir }
func (GetAppDataDir) Op() Op    { return OpGetAppDataDir }
func (GetWindowsDrives) Op() Op { return OpGetWindowsDrives }
func (GetAppPath) Op() Op       { return OpGetAppPath }

func (FsReaddir) isRequest()        {}
func (FsStat) isRequest()           {}
func (FsMkdir) isRequest()          {}
func (FsUnlink) isRequest()         {}
func (FsRmdir) isRequest()          {}
func (FsRename) isRequest()         {}
func (FsReadFile) isRequest()       {}
func (FsWriteFile) isRequest()      {}
func (GetDocumentsDir) isRequest()  {}
func (GetHomeDir) isRequest()       {}
func (GetTempDir) isRequest()       {}
func (GetAppDataDir) isRequest()    {}
func (GetWindowsDrives) isRequest() {}
func (GetAppPath) isRequest()       {}

func (FsReaddir) fileRequest()        {}
func (FsStat) fileRequest()           {}
func (FsMkdir) fileRequest()          {}
func (FsUnlink) fileRequest()         {}
func (FsRmdir) fileRequest()          {}
func (FsRename) fileRequest()         {}
func (FsReadFile) fileRequest()       {}
func (FsWriteFile) fileRequest()      {}
func (GetDocumentsDir) fileRequest()  {}
func (GetHomeDir) fileRequest()       {}
func (GetTempDir) fileRequest()       {}
func (GetAppDataDir) fileRequest()    {}
func (GetWindowsDrives) fileRequest() {}

// decodeFile handles the filesystem operations. ok is false when op is not
// one of them.
func decodeFile(d *decoder) (req Request, ok bool) {
	switch Op(d.op) {
	case OpFsReaddir:
		var r FsReaddir
		d.arity(1, 1)
		d.required(0, "path", &r.Path)
		return r, true
	case OpFsStat:
		var r FsStat
		d.arity(1, 1)
		d.required(0, "path", &r.Path)
		return r, true
	case OpFsMkdir:
		var r FsMkdir
		d.arity(1, 2)
		d.required(0, "path", &r.Path)
		d.optional(1, "options", &r.Options)
		return r, true
	case OpFsUnlink:
		var r FsUnlink
		d.arity(1, 1)
		d.required(0, "path", &r.Path)
		return r, true
	case OpFsRmdir:
		var r FsRmdir
		d.arity(1, 2)
		d.required(0, "path", &r.Path)
		d.optional(1, "options", &r.Options)
		return r, true
	case OpFsRename:
		var r FsRename
		d.arity(2, 2)
		d.required(0, "oldPath", &r.From)
		d.required(1, "newPath", &r.To)
		return r, true
	case OpFsReadFile:
		var r FsReadFile
		d.arity(1, 1)
		d.required(0, "path", &r.Path)
		return r, true
	case OpFsWriteFile:
		var r FsWriteFile
		d.arity(2, 2)
		d.required(0, "path", &r.Path)
		d.required(1, "data", &r.Data)
		return r, true
	case OpGetDocumentsDir:
		d.arity(0, 0)
		return GetDocumentsDir{}, true
	case OpGetHomeDir:
		d.arity(0, 0)
		return GetHomeDir{}, true
	case OpGetTempDir:
		d.arity(0, 0)
		return GetTempDir{}, true
	case OpGetAppDataDir:
		d.arity(0, 0)
		return GetAppDataDir{}, true
	case OpGetWindowsDrives:
		d.arity(0, 0)
		return GetWindowsDrives{}, true
	case OpGetAppPath:
		d.arity(0, 0)
		return GetAppPath{}, true
	}
	return nil, false
}

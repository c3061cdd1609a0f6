package host

import (
	"github.com/ppiankov/hostgate/internal/audit"
	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/files"
	"github.com/ppiankov/hostgate/internal/ipc"
	"github.com/ppiankov/hostgate/internal/model"
)

// fileOp serves a filesystem request. It runs without h.mu, so it must not
// touch the registry, windows or sessions; from is the caller's origin
// captured inside the turn that admitted it.
func (h *Host) fileOp(id model.ContextID, from string, req ipc.FileRequest) (any, error) {
	switch r := req.(type) {
	case ipc.FsReaddir:
		return files.ReadDir(r.Path)

	case ipc.FsStat:
		return files.Stat(r.Path)

	case ipc.FsReadFile:
		return files.ReadFile(r.Path)

	case ipc.FsMkdir:
		err := files.Mkdir(r.Path, r.Options.Recursive, r.Options.Mode)
		h.fileOutcome(id, from, r.Op(), r.Path, err)
		return nil, err

	case ipc.FsUnlink:
		err := files.Unlink(r.Path)
		h.fileOutcome(id, from, r.Op(), r.Path, err)
		return nil, err

	case ipc.FsRmdir:
		err := files.Remove(r.Path, r.Options.Recursive, r.Options.Force)
		h.fileOutcome(id, from, r.Op(), r.Path, err)
		return nil, err

	case ipc.FsRename:
		err := files.Rename(r.From, r.To)
		h.fileOutcome(id, from, r.Op(), r.From+" -> "+r.To, err)
		return nil, err

	case ipc.FsWriteFile:
		err := files.WriteFile(r.Path, r.Data)
		h.fileOutcome(id, from, r.Op(), r.Path, err)
		return nil, err

	case ipc.GetHomeDir:
		return h.dirs.Home()

	case ipc.GetDocumentsDir:
		return h.dirs.Documents()

	case ipc.GetTempDir:
		return h.dirs.Temp(), nil

	case ipc.GetAppDataDir:
		return h.dirs.AppData()

	case ipc.GetWindowsDrives:
		if drives := h.dirs.WindowsDrives(); len(drives) > 0 {
			return drives, nil
		}
		return nil, nil
	}
	return nil, fault.New(fault.Validation, "unsupported operation %s", req.Op())
}

// fileOutcome audits a mutating filesystem call with the path as scope.
func (h *Host) fileOutcome(id model.ContextID, from string, op ipc.Op, path string, err error) {
	decision := audit.DecisionAllow
	if err != nil {
		decision = audit.DecisionError
		h.logger.Debug("file operation failed", "context", id, "op", op, "error", err)
	}
	h.recordFrom(id, from, string(op), path, decision, err)
}

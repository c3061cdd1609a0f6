package host

import (
	"net/url"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/ipc"
	"github.com/ppiankov/hostgate/internal/model"
	"github.com/ppiankov/hostgate/internal/proc"
)

// dispatch runs req for id. The caller holds h.mu and has passed the gate.
func (h *Host) dispatch(id model.ContextID, req ipc.Request) (any, error) {
	switch r := req.(type) {
	case ipc.EstablishTrustKey:
		err := h.sessions.Establish(id, r.Key, r.IV)
		h.outcome(id, r.Op(), "", err)
		if err == nil {
			h.logger.Info("trust established", "context", id)
		}
		return nil, err

	case ipc.RemoveTrustKey:
		err := h.sessions.Remove(id, r.Key, r.IV)
		h.outcome(id, r.Op(), "", err)
		if err == nil {
			h.logger.Info("trust removed", "context", id)
		}
		return nil, err

	case ipc.StoreCredential:
		err := h.vault.Store(r.Scope, r.Secret)
		h.outcome(id, r.Op(), r.Scope, err)
		return nil, err

	case ipc.GetCredential:
		ct, found, err := h.vault.Get(id, r.Scope)
		h.outcome(id, r.Op(), r.Scope, err)
		if err != nil || !found {
			return nil, err
		}
		return ct, nil

	case ipc.DeleteCredential:
		err := h.vault.Delete(r.Scope)
		h.outcome(id, r.Op(), r.Scope, err)
		return nil, err

	case ipc.CreateWindow:
		return h.createWindow(r.URL, WindowSpec{WindowOptions: r.Options})

	case ipc.CloseWindow:
		return nil, h.runtimeErr("close window", h.runtime.CloseWindow(id))

	case ipc.CloseWindowByLabel:
		target, ok := h.windows.ContextOf(r.Label)
		if !ok {
			return nil, nil
		}
		return nil, h.runtimeErr("close window", h.runtime.CloseWindow(target))

	case ipc.GetWindowLabels:
		return h.windows.Labels(), nil

	case ipc.GetCurrentWindowLabel:
		label, ok := h.windows.LabelOf(id)
		if !ok {
			return nil, nil
		}
		return label, nil

	case ipc.FocusWindow:
		return nil, h.runtimeErr("focus window", h.runtime.FocusWindow(id))

	case ipc.SpawnProcess:
		instance, err := h.procs.Spawn(id, r.Command, r.Args)
		if err != nil {
			return nil, fault.Wrap(fault.Runtime, err, "spawn process")
		}
		return instance, nil

	case ipc.WriteToProcess:
		if err := h.procs.Write(r.Instance, r.Data); err != nil {
			return nil, fault.Wrap(fault.Runtime, err, "write to process")
		}
		return nil, nil

	case ipc.ReadClipboard:
		text, err := h.runtime.ReadClipboard()
		if err != nil {
			return nil, h.runtimeErr("read clipboard", err)
		}
		return text, nil

	case ipc.WriteClipboard:
		return nil, h.runtimeErr("write clipboard", h.runtime.WriteClipboard(r.Text))

	case ipc.OpenExternal:
		if err := checkExternalURL(r.URL); err != nil {
			return nil, err
		}
		return nil, h.runtimeErr("open external", h.runtime.OpenExternal(r.URL))

	case ipc.GetAppName:
		return h.cfg.ProductName, nil

	case ipc.GetCLIArgs:
		return append([]string{}, h.cliArgs...), nil

	case ipc.GetAppPath:
		return h.cfg.ResolvedAppPath(), nil

	case ipc.QuitApp:
		if left := h.procs.TerminateAll(proc.DefaultTerminateTimeout); left > 0 {
			h.logger.Warn("quitting with processes still running", "count", left)
		}
		h.logger.Info("quit requested", "context", id, "exit_code", r.ExitCode)
		return nil, h.runtimeErr("quit", h.runtime.Quit(r.ExitCode))

	case ipc.ConsoleLog:
		h.logger.Info("content log", "context", id, "message", r.Message)
		return nil, nil
	}
	return nil, fault.New(fault.Validation, "unsupported operation %s", req.Op())
}

// createWindow allocates a label, asks the runtime for the window, binds the
// label and evaluates trust for the initial URL, all in the caller's turn.
func (h *Host) createWindow(rawURL string, spec WindowSpec) (any, error) {
	ns := model.Primary
	if spec.IsExtension {
		ns = model.Extension
	}
	label, err := h.windows.Allocate(ns)
	if err != nil {
		return nil, err
	}
	id, err := h.runtime.OpenWindow(label, rawURL, spec)
	if err != nil {
		return nil, h.runtimeErr("open window", err)
	}
	if err := h.windows.Register(id, label); err != nil {
		return nil, err
	}
	rec := h.registry.Update(id, rawURL)
	h.logger.Info("window created", "label", label, "context", id, "trusted", rec.Trusted)
	return label, nil
}

func (h *Host) runtimeErr(what string, err error) error {
	if err == nil {
		return nil
	}
	h.logger.Error("runtime call failed", "call", what, "error", err)
	if fault.KindOf(err) != "" {
		return err
	}
	return fault.Wrap(fault.Runtime, err, "%s failed", what)
}

// checkExternalURL only lets web and mail links leave the app.
func checkExternalURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fault.Wrap(fault.Validation, err, "invalid external URL")
	}
	switch u.Scheme {
	case "http", "https", "mailto":
		return nil
	}
	return fault.New(fault.Validation, "refusing to open %q: unsupported scheme", u.Scheme)
}

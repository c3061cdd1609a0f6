package host

import (
	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/model"
	"github.com/ppiankov/hostgate/internal/window"
)

// Loaded reports that id finished its initial load of url.
func (h *Host) Loaded(id model.ContextID, url string) {
	h.navigate(id, url, "loaded")
}

// Navigated reports that id moved to url. Any trust session is dropped in
// the same turn that trust is recomputed, so a new origin never inherits
// the previous origin's key.
func (h *Host) Navigated(id model.ContextID, url string) {
	h.navigate(id, url, "navigated")
}

func (h *Host) navigate(id model.ContextID, url, event string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := h.sessions.Destroy(id)
	rec := h.registry.Update(id, url)
	h.logger.Debug(event, "context", id, "url", url, "trusted", rec.Trusted, "session_dropped", dropped)
}

// Destroyed reports that id is gone. Cleanup order is registry, sessions,
// window label, event sink.
func (h *Host) Destroyed(id model.ContextID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.registry.Forget(id)
	h.sessions.Destroy(id)
	label, _ := h.windows.ReleaseContext(id)
	if h.events != nil {
		h.events.Detach(id)
	}
	h.logger.Debug("destroyed", "context", id, "label", label)
}

// Bounds reports new geometry for a window. Only primary windows are
// persisted.
func (h *Host) Bounds(id model.ContextID, b window.Bounds) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == nil {
		return
	}
	label, ok := h.windows.LabelOf(id)
	if !ok || !model.Primary.Owns(label) {
		return
	}
	if err := h.state.Save(b); err != nil {
		h.logger.Warn("window state not saved", "label", label, "error", err)
	}
}

// OpenMainWindow opens the first primary window at the configured load URL
// with the saved geometry.
func (h *Host) OpenMainWindow() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg.LoadURL == "" {
		return "", fault.New(fault.Validation, "load_url is not configured")
	}
	spec := WindowSpec{}
	if h.state != nil {
		b := h.state.Options()
		spec.Width, spec.Height = b.Width, b.Height
		spec.MinWidth, spec.MinHeight = window.MinWidth, window.MinHeight
		spec.X, spec.Y = b.X, b.Y
		spec.Maximized = b.Maximized
	}
	spec.WindowTitle = h.cfg.ProductName
	label, err := h.createWindow(h.cfg.LoadURL, spec)
	if err != nil {
		return "", err
	}
	return label.(string), nil
}

// Trusted reports whether id is currently trusted.
func (h *Host) Trusted(id model.ContextID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.IsTrusted(id)
}

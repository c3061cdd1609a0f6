package window

import (
	"sort"
	"strconv"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/model"
)

// MaxWindows is the hard cap of live labels per namespace.
const MaxWindows = 30

// Manager maps window labels to content contexts and back.
// Not safe for concurrent use; the host serializes access.
type Manager struct {
	byLabel   map[string]model.ContextID
	byContext map[model.ContextID]string
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		byLabel:   make(map[string]model.ContextID),
		byContext: make(map[model.ContextID]string),
	}
}

// Allocate returns the lowest free label in ns. It does not reserve the
// label; Register does.
func (m *Manager) Allocate(ns model.Namespace) (string, error) {
	prefix := ns.Prefix()
	for i := 1; i <= MaxWindows; i++ {
		label := prefix + strconv.Itoa(i)
		if _, used := m.byLabel[label]; !used {
			return label, nil
		}
	}
	return "", fault.New(fault.LabelExhausted, "no free window label available for prefix: %s", prefix)
}

// Register binds label to id.
func (m *Manager) Register(id model.ContextID, label string) error {
	if label == "" {
		return fault.New(fault.Validation, "window label must not be empty")
	}
	if holder, used := m.byLabel[label]; used && holder != id {
		return fault.New(fault.Validation, "window label %s is held by context %s", label, holder)
	}
	if old, ok := m.byContext[id]; ok && old != label {
		delete(m.byLabel, old)
	}
	m.byLabel[label] = id
	m.byContext[id] = label
	return nil
}

// Release removes the binding for label. Returns the context that held it.
func (m *Manager) Release(label string) (model.ContextID, bool) {
	id, ok := m.byLabel[label]
	if !ok {
		return 0, false
	}
	delete(m.byLabel, label)
	delete(m.byContext, id)
	return id, true
}

// ReleaseContext removes the binding held by id, if any.
func (m *Manager) ReleaseContext(id model.ContextID) (string, bool) {
	label, ok := m.byContext[id]
	if !ok {
		return "", false
	}
	delete(m.byContext, id)
	delete(m.byLabel, label)
	return label, true
}

// LabelOf returns the label bound to id.
func (m *Manager) LabelOf(id model.ContextID) (string, bool) {
	label, ok := m.byContext[id]
	return label, ok
}

// ContextOf returns the context bound to label.
func (m *Manager) ContextOf(label string) (model.ContextID, bool) {
	id, ok := m.byLabel[label]
	return id, ok
}

// Labels returns all live labels, sorted.
func (m *Manager) Labels() []string {
	labels := make([]string, 0, len(m.byLabel))
	for l := range m.byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

package window

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Default window dimensions.
const (
	DefaultWidth  = 1366
	DefaultHeight = 900
	MinWidth      = 800
	MinHeight     = 600
)

// Bounds is the persisted geometry of the primary window.
type Bounds struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	X         *int `json:"x,omitempty"`
	Y         *int `json:"y,omitempty"`
	Maximized bool `json:"isMaximized"`
}

// StateStore persists the last primary window bounds as a JSON file.
type StateStore struct {
	path string
	mu   sync.Mutex
}

// NewStateStore creates a StateStore writing to path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load returns the saved bounds, or nil if none are saved or the file is
// corrupt.
func (s *StateStore) Load() *Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var b Bounds
	if err := json.Unmarshal(data, &b); err != nil {
		return nil
	}
	return &b
}

// Save writes b atomically.
func (s *StateStore) Save(b Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("cannot create state directory: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Options returns the bounds to open the primary window with: saved bounds
// clamped to the minimums, or the defaults.
func (s *StateStore) Options() Bounds {
	out := Bounds{Width: DefaultWidth, Height: DefaultHeight}
	saved := s.Load()
	if saved == nil {
		return out
	}
	if saved.Width > 0 {
		out.Width = saved.Width
	}
	if saved.Height > 0 {
		out.Height = saved.Height
	}
	out.Width = max(out.Width, MinWidth)
	out.Height = max(out.Height, MinHeight)
	out.X, out.Y = saved.X, saved.Y
	out.Maximized = saved.Maximized
	return out
}

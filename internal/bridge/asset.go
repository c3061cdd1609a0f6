package bridge

import (
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

var errOutsideAssets = errors.New("path is not under the assets directory")

// handleAsset serves GET /asset/<escaped absolute path>. Only regular files
// whose cleaned and symlink-resolved path stays inside the assets directory
// are served.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(requested)
		if err != nil {
			http.Error(w, "bad asset path", http.StatusBadRequest)
			return
		}
		requested = unescaped
	}

	path, err := containedAsset(s.assets, requested)
	if err != nil {
		s.logger.Warn("asset access denied", "path", requested, "error", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// containedAsset resolves requested against root. Relative paths are taken
// from root. A path that does not exist yet is checked lexically only.
func containedAsset(root, requested string) (string, error) {
	if root == "" {
		return "", errOutsideAssets
	}
	requested = filepath.FromSlash(requested)
	if !filepath.IsAbs(requested) {
		requested = filepath.Join(root, requested)
	}
	clean := filepath.Clean(requested)
	if !within(root, clean) {
		return "", errOutsideAssets
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return clean, nil
	}
	if err != nil {
		return "", err
	}
	if !within(realRoot, resolved) {
		return "", errOutsideAssets
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

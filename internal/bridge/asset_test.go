package bridge

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func newAssetServer(t *testing.T) (string, string, *httptest.Server) {
	t.Helper()
	base := t.TempDir()
	assets := filepath.Join(base, "assets")
	if err := os.MkdirAll(filepath.Join(assets, "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(assets, "img", "logo.svg"), []byte("<svg/>"), 0o644)
	os.WriteFile(filepath.Join(base, "secret.txt"), []byte("secret"), 0o600)

	s := NewServer(Options{AssetsDir: assets})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return base, assets, ts
}

func getAsset(t *testing.T, ts *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/asset/" + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAssetServesFilesUnderAssetsDir(t *testing.T) {
	_, assets, ts := newAssetServer(t)

	status, body := getAsset(t, ts, url.PathEscape(filepath.ToSlash(filepath.Join(assets, "img", "logo.svg"))))
	if status != http.StatusOK || body != "<svg/>" {
		t.Fatalf("absolute path: got %d %q", status, body)
	}
	status, body = getAsset(t, ts, "img/logo.svg")
	if status != http.StatusOK || body != "<svg/>" {
		t.Fatalf("relative path: got %d %q", status, body)
	}
}

func TestAssetRejectsTraversal(t *testing.T) {
	base, assets, ts := newAssetServer(t)

	tests := []string{
		url.PathEscape(filepath.ToSlash(filepath.Join(base, "secret.txt"))),
		url.PathEscape(filepath.ToSlash(assets) + "/../secret.txt"),
		url.PathEscape("../secret.txt"),
		"..%2F..%2Fsecret.txt",
		url.PathEscape(filepath.ToSlash(assets) + "-evil/x"),
	}
	for _, path := range tests {
		if status, body := getAsset(t, ts, path); status != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d %q", path, status, body)
		}
	}
}

func TestAssetRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	base, assets, ts := newAssetServer(t)
	if err := os.Symlink(filepath.Join(base, "secret.txt"), filepath.Join(assets, "leak.txt")); err != nil {
		t.Fatal(err)
	}
	if status, _ := getAsset(t, ts, "leak.txt"); status != http.StatusForbidden {
		t.Fatalf("expected 403 for symlink out of assets, got %d", status)
	}
}

func TestAssetMissingAndDirectories(t *testing.T) {
	_, _, ts := newAssetServer(t)
	for _, path := range []string{"nope.png", "img"} {
		if status, _ := getAsset(t, ts, path); status != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, status)
		}
	}
}

func TestAssetRouteDisabledWithoutDir(t *testing.T) {
	_, ts := newTestServer(t, &fakeTarget{}, 0)
	if status, _ := getAsset(t, ts, "img/logo.svg"); status != http.StatusNotFound {
		t.Fatalf("expected 404 without an assets dir, got %d", status)
	}
}

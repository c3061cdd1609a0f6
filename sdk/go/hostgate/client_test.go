package hostgate

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/hostgate/internal/bridge"
	"github.com/ppiankov/hostgate/internal/config"
	"github.com/ppiankov/hostgate/internal/host"
	"github.com/ppiankov/hostgate/internal/model"
	"github.com/ppiankov/hostgate/internal/vault"
)

type testEnv struct {
	host   *host.Host
	server *bridge.Server
	http   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TrustedDomains = []string{"https://phcode.dev/"}

	rt := bridge.NewShellRuntime(time.Second, nil)
	srv := bridge.NewServer(bridge.Options{Shell: rt})
	h, err := host.New(host.Options{
		Config:  cfg,
		Runtime: rt,
		Backend: vault.NewMemoryBackend(),
		Events:  srv,
	})
	if err != nil {
		t.Fatal(err)
	}
	srv.Attach(h)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &testEnv{host: h, server: srv, http: ts}
}

func (e *testEnv) dial(t *testing.T, id model.ContextID, url string) *Client {
	t.Helper()
	e.host.Loaded(id, url)
	endpoint := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ipc"
	c, err := Dial(context.Background(), endpoint, e.server.Bind(id))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCredentialLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.dial(t, 1, "https://phcode.dev/")
	ctx := context.Background()

	if _, _, err := c.GetCredential(ctx, "github"); !IsKind(err, KindNoTrust) {
		t.Fatalf("expected NoTrust before establishing, got %v", err)
	}
	if err := c.EstablishTrust(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.StoreCredential(ctx, "github", "ghp_token"); err != nil {
		t.Fatal(err)
	}
	secret, found, err := c.GetCredential(ctx, "github")
	if err != nil || !found || secret != "ghp_token" {
		t.Fatalf("GetCredential = %q, %v, %v", secret, found, err)
	}

	if err := c.StoreCredential(ctx, "empty", ""); err != nil {
		t.Fatal(err)
	}
	secret, found, err = c.GetCredential(ctx, "empty")
	if err != nil || !found || secret != "" {
		t.Fatalf("empty credential: %q, %v, %v", secret, found, err)
	}

	if err := c.DeleteCredential(ctx, "github"); err != nil {
		t.Fatal(err)
	}
	if _, found, err := c.GetCredential(ctx, "github"); err != nil || found {
		t.Fatalf("expected not found after delete, got found=%v err=%v", found, err)
	}
	if err := c.DeleteCredential(ctx, "github"); !IsKind(err, KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	if err := c.RemoveTrust(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.RemoveTrust(ctx); !IsKind(err, KindNoTrust) {
		t.Fatalf("expected local NoTrust, got %v", err)
	}
}

func TestDuplicateEstablish(t *testing.T) {
	env := newTestEnv(t)
	c := env.dial(t, 1, "https://phcode.dev/")
	ctx := context.Background()

	if err := c.EstablishTrust(ctx); err != nil {
		t.Fatal(err)
	}
	err := c.EstablishTrust(ctx)
	if !IsKind(err, KindDuplicateTrust) {
		t.Fatalf("expected DuplicateTrust, got %v", err)
	}
}

func TestUntrustedClient(t *testing.T) {
	env := newTestEnv(t)
	c := env.dial(t, 2, "https://evil.example/")

	err := c.EstablishTrust(context.Background())
	if !IsKind(err, KindTrustViolation) {
		t.Fatalf("expected TrustViolation, got %v", err)
	}
	ce, ok := err.(*CallError)
	if !ok || !strings.Contains(ce.Message, "https://evil.example/") {
		t.Fatalf("expected origin in message, got %v", err)
	}
}

func TestCallIntoAndRuntimeError(t *testing.T) {
	env := newTestEnv(t)
	c := env.dial(t, 1, "https://phcode.dev/")
	ctx := context.Background()

	var labels []string
	if err := c.CallInto(ctx, &labels, "getWindowLabels"); err != nil {
		t.Fatal(err)
	}
	if len(labels) != 0 {
		t.Fatalf("expected no labels, got %v", labels)
	}

	// No shell is attached, so window creation fails at the runtime.
	_, err := c.Call(ctx, "createWindow", "https://phcode.dev/", map[string]any{})
	if !IsKind(err, KindRuntime) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
}

func TestProcessEvents(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	env := newTestEnv(t)
	c := env.dial(t, 1, "https://phcode.dev/")

	var instance int
	if err := c.CallInto(context.Background(), &instance, "spawnProcess", "sh", []string{"-c", "echo hello"}); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	var sawStdout bool
	for {
		select {
		case ev := <-c.Events():
			if ev.Instance != instance {
				continue
			}
			if ev.Kind == "process-stdout" && ev.Data == "hello" {
				sawStdout = true
			}
			if ev.Kind == "process-close" {
				if !sawStdout {
					t.Fatal("close arrived before stdout")
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for process events")
		}
	}
}

func TestDialWithUsedToken(t *testing.T) {
	env := newTestEnv(t)
	env.host.Loaded(1, "https://phcode.dev/")
	token := env.server.Bind(1)
	endpoint := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ipc"

	c, err := Dial(context.Background(), endpoint, token)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, err := Dial(context.Background(), endpoint, token); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 for reused token, got %v", err)
	}
}

func TestCallAfterClose(t *testing.T) {
	env := newTestEnv(t)
	c := env.dial(t, 1, "https://phcode.dev/")
	c.Close()
	if _, err := c.Call(context.Background(), "getAppName"); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestParseCallError(t *testing.T) {
	tests := []struct {
		msg, kind, rest string
	}{
		{"NoTrustError: trust must be established", "NoTrustError", "trust must be established"},
		{"TrustViolation: blocked IPC from untrusted origin: https://x/", "TrustViolation", "blocked IPC from untrusted origin: https://x/"},
		{"something broke", "", "something broke"},
		{"two words: not a kind", "", "two words: not a kind"},
	}
	for _, tt := range tests {
		ce := parseCallError("op", tt.msg)
		if ce.Kind != tt.kind || ce.Message != tt.rest {
			t.Errorf("parseCallError(%q) = %q, %q", tt.msg, ce.Kind, ce.Message)
		}
	}
}

func TestEventJSONShape(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"event":"process-close","instanceId":3,"code":1}`), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Kind != "process-close" || ev.Instance != 3 || ev.Code == nil || *ev.Code != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestParseFsCallError(t *testing.T) {
	ce := parseCallError("fsStat", "FsError: ENOENT: stat /x: no such file or directory")
	if ce.Kind != KindFS || ce.Code != "ENOENT" || ce.Message != "stat /x: no such file or directory" {
		t.Fatalf("unexpected %+v", ce)
	}
	if CodeOf(ce) != "ENOENT" {
		t.Fatal("CodeOf lost the code")
	}
}

func TestFileRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	c := env.dial(t, 1, "https://phcode.dev/")
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "proj")

	if err := c.MkdirAll(ctx, dir); err != nil {
		t.Fatal(err)
	}
	binary := []byte{0xff, 0x00, 0x10}
	if err := c.WriteFile(ctx, filepath.Join(dir, "bin"), binary); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteFile(ctx, filepath.Join(dir, "text"), []byte("héllo")); err != nil {
		t.Fatal(err)
	}
	got, err := c.ReadFile(ctx, filepath.Join(dir, "bin"))
	if err != nil || string(got) != string(binary) {
		t.Fatalf("ReadFile = %v, %v", got, err)
	}
	entries, err := c.ReadDir(ctx, dir)
	if err != nil || len(entries) != 2 {
		t.Fatalf("ReadDir = %+v, %v", entries, err)
	}
	info, err := c.Stat(ctx, filepath.Join(dir, "text"))
	if err != nil || info.Size != int64(len("héllo")) {
		t.Fatalf("Stat = %+v, %v", info, err)
	}

	_, err = c.Stat(ctx, filepath.Join(dir, "missing"))
	if !IsKind(err, KindFS) || CodeOf(err) != "ENOENT" {
		t.Fatalf("expected FsError ENOENT, got %v", err)
	}
	if err := c.RemoveAll(ctx, dir); err != nil {
		t.Fatal(err)
	}
	if err := c.RemoveAll(ctx, dir); err != nil {
		t.Fatalf("second RemoveAll: %v", err)
	}
}

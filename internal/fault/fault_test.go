package fault

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageCarriesKindPrefix(t *testing.T) {
	err := New(NoTrust, "trust must be established before credentials can be read")
	if !strings.HasPrefix(err.Error(), "NoTrustError: ") {
		t.Errorf("expected NoTrustError prefix, got %q", err.Error())
	}
}

func TestIsMatchesBareKind(t *testing.T) {
	err := fmt.Errorf("store: %w", New(NotFound, "no credential for scope %q", "x"))
	if !errors.Is(err, NotFound) {
		t.Error("expected errors.Is to match NotFound kind")
	}
	if errors.Is(err, Mismatch) {
		t.Error("did not expect Mismatch to match")
	}
	if !Is(err, NotFound) {
		t.Error("expected fault.Is to match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dbus not running")
	err := Wrap(VaultUnavailable, cause, "secure store unavailable")
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
	if got := err.Error(); got != "VaultUnavailable: secure store unavailable: dbus not running" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if k := KindOf(errors.New("plain")); k != "" {
		t.Errorf("expected empty kind, got %q", k)
	}
}

func TestWithCodeKeepsCodeInMessage(t *testing.T) {
	cause := errors.New("open /x: no such file or directory")
	err := WithCode(FS, "ENOENT", cause)
	if got := err.Error(); got != "FsError: ENOENT: open /x: no such file or directory" {
		t.Errorf("unexpected message %q", got)
	}
	if CodeOf(fmt.Errorf("wrapped: %w", err)) != "ENOENT" {
		t.Error("expected code through wrapping")
	}
	if !errors.Is(err, cause) || !Is(err, FS) {
		t.Error("expected kind and cause to match")
	}
	if CodeOf(New(NotFound, "x")) != "" {
		t.Error("errors without a code report none")
	}
}

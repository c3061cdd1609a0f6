package audit

import (
	"strings"
	"testing"
	"time"
)

func writeEntries(t *testing.T, entries ...AuditEntry) string {
	t.Helper()
	l, path := newTestLog(t)
	for i, e := range entries {
		if err := l.Record(e); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()
	return path
}

func TestTailFilters(t *testing.T) {
	path := writeEntries(t,
		AuditEntry{ContextID: 1, Op: "establishTrustKey", Decision: DecisionAllow},
		AuditEntry{ContextID: 2, Op: "getCredential", Decision: DecisionDeny, Reason: "TrustViolation"},
		AuditEntry{ContextID: 1, Op: "getCredential", Scope: "gh", Decision: DecisionAllow},
		AuditEntry{ContextID: 1, Op: "deleteCredential", Scope: "gh", Decision: DecisionError},
	)

	tests := []struct {
		name   string
		filter TailFilter
		want   int
	}{
		{"all", TailFilter{}, 4},
		{"context", TailFilter{ContextID: 1}, 3},
		{"op", TailFilter{Op: "getCredential"}, 2},
		{"decision", TailFilter{Decision: DecisionDeny}, 1},
		{"limit", TailFilter{Limit: 2}, 2},
		{"future", TailFilter{Since: time.Now().Add(time.Hour)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Tail(path, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(result.Entries) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(result.Entries))
			}
			if result.Summary.Total != tt.want {
				t.Fatalf("expected summary total %d, got %d", tt.want, result.Summary.Total)
			}
		})
	}
}

func TestTailLimitKeepsNewest(t *testing.T) {
	path := writeEntries(t,
		AuditEntry{ContextID: 1, Op: "a", Decision: DecisionAllow},
		AuditEntry{ContextID: 1, Op: "b", Decision: DecisionAllow},
		AuditEntry{ContextID: 1, Op: "c", Decision: DecisionDeny},
	)
	result, err := Tail(path, TailFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if result.Entries[0].Op != "b" || result.Entries[1].Op != "c" {
		t.Fatalf("expected last two entries, got %s %s", result.Entries[0].Op, result.Entries[1].Op)
	}
	if result.Summary.AllowCount != 1 || result.Summary.DenyCount != 1 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
}

func TestTailMissingFile(t *testing.T) {
	if _, err := Tail("/nonexistent/audit.jsonl", TailFilter{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFormatTimeline(t *testing.T) {
	path := writeEntries(t,
		AuditEntry{ContextID: 4, Origin: "https://evil.example/", Op: "getCredential", Decision: DecisionDeny, Reason: "TrustViolation"},
		AuditEntry{ContextID: 5, Origin: "https://phcode.dev/", Op: "storeCredential", Scope: "gh", Decision: DecisionAllow},
	)
	result, err := Tail(path, TailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	out := FormatTimeline(result)
	for _, want := range []string{"DENY", "getCredential", "(TrustViolation)", "scope=gh", "1 allow, 1 deny"} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	if got := FormatTimeline(&TailResult{}); got != "No entries found.\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(&TailResult{Entries: []AuditEntry{{Op: "x", Decision: DecisionAllow}}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"op": "x"`) {
		t.Fatalf("unexpected json %s", out)
	}
}

package model

import "testing"

func TestContextIDString(t *testing.T) {
	if got := ContextID(42).String(); got != "42" {
		t.Errorf("String() = %q, want 42", got)
	}
}

func TestNamespacePrefix(t *testing.T) {
	tests := []struct {
		ns   Namespace
		want string
	}{
		{Primary, "phcode-"},
		{Extension, "extn-"},
		{Namespace(""), "phcode-"},
	}
	for _, tt := range tests {
		if got := tt.ns.Prefix(); got != tt.want {
			t.Errorf("%q.Prefix() = %q, want %q", tt.ns, got, tt.want)
		}
	}
}

func TestNamespaceOwns(t *testing.T) {
	tests := []struct {
		ns    Namespace
		label string
		want  bool
	}{
		{Primary, "phcode-1", true},
		{Primary, "extn-1", false},
		{Extension, "extn-30", true},
		{Extension, "phcode-2", false},
		{Primary, "main", false},
	}
	for _, tt := range tests {
		if got := tt.ns.Owns(tt.label); got != tt.want {
			t.Errorf("%q.Owns(%q) = %v, want %v", tt.ns, tt.label, got, tt.want)
		}
	}
}

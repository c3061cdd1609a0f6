package model

import (
	"strconv"
	"strings"
)

// ContextID identifies one loaded content instance (one window or embedded
// view). It is assigned by the host runtime, stable while the content is
// loaded and never reused for a different instance while the host runs.
type ContextID uint64

func (id ContextID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Namespace selects the label pool a window is allocated from.
type Namespace string

const (
	Primary   Namespace = "primary"
	Extension Namespace = "extension"
)

// Prefix returns the label prefix for the namespace.
func (n Namespace) Prefix() string {
	if n == Extension {
		return "extn-"
	}
	return "phcode-"
}

// Owns reports whether label was drawn from this namespace.
func (n Namespace) Owns(label string) bool {
	return strings.HasPrefix(label, n.Prefix())
}

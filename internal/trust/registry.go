package trust

import (
	"github.com/ppiankov/hostgate/internal/model"
)

// Evaluator decides whether a URL is trusted.
type Evaluator interface {
	Trusted(rawURL string) bool
}

// Record is the trust state of one live content context. It is always
// recomputed from the current URL, never merged with an older record.
type Record struct {
	URL     string
	Trusted bool
}

// Registry tracks, for every live content context, whether its current
// origin is trusted. It holds no reference to the content itself.
//
// Registry is not safe for concurrent use; the host serializes access.
type Registry struct {
	eval    Evaluator
	records map[model.ContextID]Record
}

// NewRegistry creates a Registry that evaluates URLs with eval.
func NewRegistry(eval Evaluator) *Registry {
	return &Registry{
		eval:    eval,
		records: make(map[model.ContextID]Record),
	}
}

// Update recomputes trust for id from url. Must run on initial load and on
// every navigation so trust from a previous origin never survives.
func (r *Registry) Update(id model.ContextID, url string) Record {
	rec := Record{URL: url, Trusted: r.eval.Trusted(url)}
	r.records[id] = rec
	return rec
}

// IsTrusted returns true if id is live and its current origin is trusted.
func (r *Registry) IsTrusted(id model.ContextID) bool {
	return r.records[id].Trusted
}

// Origin returns the last URL seen for id, or "unknown".
func (r *Registry) Origin(id model.ContextID) string {
	rec, ok := r.records[id]
	if !ok || rec.URL == "" {
		return "unknown"
	}
	return rec.URL
}

// Lookup returns the record for id.
func (r *Registry) Lookup(id model.ContextID) (Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Forget removes id. Called when the context is destroyed.
func (r *Registry) Forget(id model.ContextID) {
	delete(r.records, id)
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	return len(r.records)
}

package worker

import (
	"github.com/tinywideclouds/go-push-actions/pkg/action"
)

// Registry maps action names to resolved descriptors. It is owned by the
// worker goroutine and is created empty at worker startup; registrations do
// not survive a worker restart and must be re-sent by the next foreground
// context that needs them.
//
// There is no lock: the worker's event loop is the only writer and the only
// reader, so an upsert and a lookup can never interleave.
type Registry struct {
	actions map[string]action.Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]action.Descriptor)}
}

// Upsert installs or atomically replaces the descriptor for its name.
// Last write wins; a concurrent-looking dispatch can only ever observe one
// whole descriptor, never a blend of two.
func (r *Registry) Upsert(d action.Descriptor) {
	r.actions[d.Name] = d
}

// Lookup returns the descriptor for name. A miss is an expected condition
// (stale notifications can outlive the page that registered their actions)
// and is reported via found, never as an error.
func (r *Registry) Lookup(name string) (d action.Descriptor, found bool) {
	d, found = r.actions[name]
	return d, found
}

// Len reports the number of registered actions.
func (r *Registry) Len() int {
	return len(r.actions)
}

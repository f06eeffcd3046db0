package slug

// Registry is the snapshot of known slugs for one batch run. Every slug it hands out
// is recorded immediately so later URLs in the same batch cannot collide with it.
// A Registry is owned by a single orchestrator run and is not safe for concurrent use.
type Registry struct {
	seen map[string]struct{}
}

// NewRegistry creates a registry seeded with existing slugs. The input is copied.
func NewRegistry(existing map[string]struct{}) *Registry {
	seen := make(map[string]struct{}, len(existing))
	for s := range existing {
		seen[s] = struct{}{}
	}
	return &Registry{seen: seen}
}

// EnsureUnique returns an unused slug derived from candidate and reserves it.
func (r *Registry) EnsureUnique(candidate string) string {
	s := EnsureUnique(candidate, r.seen)
	r.seen[s] = struct{}{}
	return s
}

// Has reports whether s is known.
func (r *Registry) Has(s string) bool {
	_, ok := r.seen[s]
	return ok
}

// Len returns the number of known slugs.
func (r *Registry) Len() int {
	return len(r.seen)
}

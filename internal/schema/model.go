package schema

import "fmt"

// Model describes one entity type in the dataset schema.
//
// A Model is declared once per schema and never mutated during a run. The
// reference metadata here is the single source of truth for dependency
// ordering (resolve.go) and for natural-key substitution during export and
// import.
type Model struct {
	// Name uniquely identifies the model within the registry.
	Name string

	// Namespace groups models into applications. Models in an excluded
	// namespace (Registry.ExcludedNamespaces) never participate in
	// export, import, or ordering.
	Namespace string

	// PKField is the primary-key field name (integer-valued).
	PKField string

	// NaturalKey lists the fields forming the model's portable identity.
	// References to this model are serialized as the ordered values of
	// these fields, never as the storage-internal primary key.
	NaturalKey []string

	// References are single-valued reference fields on this model.
	References []Reference

	// ManyReferences are multi-valued reference fields on this model.
	ManyReferences []ManyReference

	// DateTimeFields lists fields that hold timestamps. The export
	// encoder rewrites these to millisecond-precision UTC form.
	DateTimeFields []string

	// Includable is false for models that must never appear in a backup.
	Includable bool

	// Proxy marks a derived view over another model; proxies are never
	// independently stored and are skipped during export.
	Proxy bool
}

// Reference is a single-valued reference field pointing at another model.
type Reference struct {
	Field  string
	Target string
}

// ManyReference is a multi-valued reference field pointing at another model.
//
// Through is true when an explicitly modeled join entity carries the
// relation. Such relations contribute no dependency edge of their own: the
// join model's single-valued references already encode the ordering
// requirement, and counting both would double the edge.
type ManyReference struct {
	Field   string
	Target  string
	Through bool
}

// Edge is a directed dependency: serializing or restoring From requires To
// to be processed first.
type Edge struct {
	From string
	To   string
}

// Registry is the full schema declaration for one dataset version.
//
// Construct it once (NewRegistry or CompileRegistry) and pass it explicitly
// to the pipelines. The zero value is not usable.
type Registry struct {
	models map[string]*Model
	order  []string

	// ExcludedNamespaces names infrastructure-only namespaces whose
	// models are not part of the portable dataset.
	ExcludedNamespaces []string

	// SuppressedEdges is the hand-declared cycle-breaker list. Each entry
	// removes one specific dependency edge known to be safe to ignore.
	// This is reviewed configuration data, never inferred.
	SuppressedEdges []Edge
}

// NewRegistry builds a registry from the given models in declaration order.
// Duplicate model names are rejected.
func NewRegistry(models []Model) (*Registry, error) {
	r := &Registry{
		models: make(map[string]*Model, len(models)),
		order:  make([]string, 0, len(models)),
	}
	for i := range models {
		m := models[i]
		if m.Name == "" {
			return nil, fmt.Errorf("model at index %d has no name", i)
		}
		if _, dup := r.models[m.Name]; dup {
			return nil, fmt.Errorf("duplicate model %q", m.Name)
		}
		r.models[m.Name] = &m
		r.order = append(r.order, m.Name)
	}
	return r, nil
}

// Get returns the model with the given name.
func (r *Registry) Get(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns all models in declaration order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

// Excluded reports whether the named model belongs to an excluded namespace.
// Unknown models are treated as excluded.
func (r *Registry) Excluded(name string) bool {
	m, ok := r.models[name]
	if !ok {
		return true
	}
	for _, ns := range r.ExcludedNamespaces {
		if m.Namespace == ns {
			return true
		}
	}
	return false
}

// suppressed reports whether the edge from -> to is on the suppression list.
func (r *Registry) suppressed(from, to string) bool {
	for _, e := range r.SuppressedEdges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

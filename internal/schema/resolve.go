package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CycleError is returned when the dependency work list cannot reach a fixed
// point. It names every stuck model together with its unmet dependencies,
// sorted by model name for deterministic output.
type CycleError struct {
	Stuck []StuckModel
}

// StuckModel is one model the resolver could not place, with the
// dependencies that were still unplaced when the scan stalled.
type StuckModel struct {
	Model string
	Unmet []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Stuck))
	for _, s := range e.Stuck {
		parts = append(parts, fmt.Sprintf("%s (unmet: %s)", s.Model, strings.Join(s.Unmet, ", ")))
	}
	return "cannot resolve dependency order for: " + strings.Join(parts, "; ")
}

// IsCycleError returns true if the error is a resolver cycle error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// dependencies returns the models that must precede m, derived from its
// reference metadata:
//
//   - A single-valued reference contributes an edge unless it is a
//     self-reference.
//   - A multi-valued reference contributes an edge only when the relation
//     is implicit (no explicit join model). Explicit join models are
//     ordinary models whose own references already encode the dependency.
//   - Edges on the registry's suppression list are dropped.
func (r *Registry) dependencies(m *Model) []string {
	var deps []string
	for _, ref := range m.References {
		if ref.Target == m.Name {
			continue
		}
		if r.suppressed(m.Name, ref.Target) {
			continue
		}
		deps = append(deps, ref.Target)
	}
	for _, ref := range m.ManyReferences {
		if ref.Target == m.Name || ref.Through {
			continue
		}
		if r.suppressed(m.Name, ref.Target) {
			continue
		}
		deps = append(deps, ref.Target)
	}
	return deps
}

// Resolve computes a total order over the registry's non-excluded models
// such that every dependency precedes its dependents.
//
// The algorithm is fixed-point promotion: build a work list of
// (model, dependencies) pairs reversed from declaration order, then
// repeatedly scan it. A model is ready when every dependency is either
// outside the considered set or already placed; ready models are appended
// to the output in scan order. A full scan that places nothing means the
// remaining work list is an unresolvable cycle and Resolve fails with a
// CycleError.
func (r *Registry) Resolve() ([]*Model, error) {
	type pending struct {
		model *Model
		deps  []string
	}

	considered := make(map[string]bool)
	var work []pending
	for _, m := range r.Models() {
		if r.Excluded(m.Name) {
			continue
		}
		considered[m.Name] = true
		work = append(work, pending{model: m, deps: r.dependencies(m)})
	}
	// LIFO bias: later declarations are examined first.
	for i, j := 0, len(work)-1; i < j; i, j = i+1, j-1 {
		work[i], work[j] = work[j], work[i]
	}

	placed := make(map[string]bool, len(work))
	var out []*Model
	for len(work) > 0 {
		var skipped []pending
		changed := false
		for _, p := range work {
			ready := true
			for _, d := range p.deps {
				if considered[d] && !placed[d] {
					ready = false
					break
				}
			}
			if ready {
				out = append(out, p.model)
				placed[p.model.Name] = true
				changed = true
			} else {
				skipped = append(skipped, p)
			}
		}
		if !changed {
			stuck := make([]StuckModel, 0, len(skipped))
			for _, p := range skipped {
				var unmet []string
				for _, d := range p.deps {
					if considered[d] && !placed[d] {
						unmet = append(unmet, d)
					}
				}
				sort.Strings(unmet)
				stuck = append(stuck, StuckModel{Model: p.model.Name, Unmet: unmet})
			}
			sort.Slice(stuck, func(i, j int) bool { return stuck[i].Model < stuck[j].Model })
			return nil, &CycleError{Stuck: stuck}
		}
		work = skipped
	}
	return out, nil
}

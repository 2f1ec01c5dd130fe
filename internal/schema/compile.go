package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a schema declaration that failed to compile.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileRegistry parses a CUE value into a Registry.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The expected shape:
//
//	models: {
//		User: {
//			namespace:   "core"
//			pk:          "id"
//			natural_key: ["username"]
//			datetime_fields: ["date_joined"]
//			references: {organization: "Organization"}
//			many_references: {teams: {target: "Team", through: true}}
//			includable: true
//			proxy:      false
//		}
//	}
//	excluded_namespaces: ["auth", "contenttypes"]
//	suppressed_edges: [{from: "Actor", to: "Team"}]
func CompileRegistry(v cue.Value) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modelsVal := v.LookupPath(cue.ParsePath("models"))
	if !modelsVal.Exists() {
		return nil, &CompileError{
			Field:   "models",
			Message: "models is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var models []Model
	for iter.Next() {
		m, err := compileModel(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil, &CompileError{
			Field:   "models",
			Message: "at least one model is required",
			Pos:     modelsVal.Pos(),
		}
	}

	reg, err := NewRegistry(models)
	if err != nil {
		return nil, err
	}

	reg.ExcludedNamespaces, err = parseStringList(v, "excluded_namespaces")
	if err != nil {
		return nil, err
	}

	reg.SuppressedEdges, err = parseSuppressedEdges(v)
	if err != nil {
		return nil, err
	}

	return reg, nil
}

// compileModel parses one model declaration.
func compileModel(name string, v cue.Value) (Model, error) {
	m := Model{
		Name:       name,
		PKField:    "id",
		Includable: true,
	}

	nsVal := v.LookupPath(cue.ParsePath("namespace"))
	if !nsVal.Exists() {
		return m, &CompileError{
			Field:   name + ".namespace",
			Message: "namespace is required",
			Pos:     v.Pos(),
		}
	}
	ns, err := nsVal.String()
	if err != nil {
		return m, formatCUEError(err)
	}
	m.Namespace = ns

	pkVal := v.LookupPath(cue.ParsePath("pk"))
	if pkVal.Exists() {
		pk, err := pkVal.String()
		if err != nil {
			return m, formatCUEError(err)
		}
		m.PKField = pk
	}

	m.NaturalKey, err = parseStringList(v, "natural_key")
	if err != nil {
		return m, err
	}
	if len(m.NaturalKey) == 0 {
		return m, &CompileError{
			Field:   name + ".natural_key",
			Message: "at least one natural key field is required",
			Pos:     v.Pos(),
		}
	}

	m.DateTimeFields, err = parseStringList(v, "datetime_fields")
	if err != nil {
		return m, err
	}

	refsVal := v.LookupPath(cue.ParsePath("references"))
	if refsVal.Exists() {
		refIter, err := refsVal.Fields()
		if err != nil {
			return m, formatCUEError(err)
		}
		for refIter.Next() {
			target, err := refIter.Value().String()
			if err != nil {
				return m, formatCUEError(err)
			}
			m.References = append(m.References, Reference{
				Field:  refIter.Label(),
				Target: target,
			})
		}
	}

	manyVal := v.LookupPath(cue.ParsePath("many_references"))
	if manyVal.Exists() {
		manyIter, err := manyVal.Fields()
		if err != nil {
			return m, formatCUEError(err)
		}
		for manyIter.Next() {
			ref, err := compileManyReference(name, manyIter.Label(), manyIter.Value())
			if err != nil {
				return m, err
			}
			m.ManyReferences = append(m.ManyReferences, ref)
		}
	}

	if incVal := v.LookupPath(cue.ParsePath("includable")); incVal.Exists() {
		inc, err := incVal.Bool()
		if err != nil {
			return m, formatCUEError(err)
		}
		m.Includable = inc
	}
	if proxyVal := v.LookupPath(cue.ParsePath("proxy")); proxyVal.Exists() {
		proxy, err := proxyVal.Bool()
		if err != nil {
			return m, formatCUEError(err)
		}
		m.Proxy = proxy
	}

	return m, nil
}

// compileManyReference parses one many_references entry. Supports a bare
// target string or a struct with target and through.
func compileManyReference(model, field string, v cue.Value) (ManyReference, error) {
	ref := ManyReference{Field: field}

	// Bare string form: field: "Target"
	if target, err := v.String(); err == nil {
		ref.Target = target
		return ref, nil
	}

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if !targetVal.Exists() {
		return ref, &CompileError{
			Field:   model + "." + field,
			Message: "many reference must be a target string or {target, through}",
			Pos:     v.Pos(),
		}
	}
	target, err := targetVal.String()
	if err != nil {
		return ref, formatCUEError(err)
	}
	ref.Target = target

	if throughVal := v.LookupPath(cue.ParsePath("through")); throughVal.Exists() {
		through, err := throughVal.Bool()
		if err != nil {
			return ref, formatCUEError(err)
		}
		ref.Through = through
	}
	return ref, nil
}

// parseSuppressedEdges parses the manual cycle-breaker list.
func parseSuppressedEdges(v cue.Value) ([]Edge, error) {
	edgesVal := v.LookupPath(cue.ParsePath("suppressed_edges"))
	if !edgesVal.Exists() {
		return nil, nil
	}

	iter, err := edgesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var edges []Edge
	for iter.Next() {
		ev := iter.Value()
		from, err := ev.LookupPath(cue.ParsePath("from")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		to, err := ev.LookupPath(cue.ParsePath("to")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		edges = append(edges, Edge{From: from, To: to})
	}
	return edges, nil
}

// parseStringList parses an optional list of strings at the given path.
func parseStringList(v cue.Value, path string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(path))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

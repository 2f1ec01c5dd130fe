// Package schema holds the statically declared model registry and the
// dependency resolver that orders models for export.
//
// The registry is explicit configuration: model names, primary-key and
// natural-key fields, reference edges, and flags are declared once (in CUE,
// compiled via CompileRegistry) and treated as immutable for the rest of the
// run. Nothing in this package discovers metadata at runtime, and there is
// no ambient global registry; callers construct one and pass it around.
package schema

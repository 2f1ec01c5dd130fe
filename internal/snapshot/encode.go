package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Encoder streams instances into a JSON array document.
//
// Memory use is bounded by one instance at a time; the caller is responsible
// for feeding instances in dependency order. Close must be called to
// terminate the array.
type Encoder struct {
	w      io.Writer
	pad    string
	inner  string
	count  int
	closed bool
}

// NewEncoder creates a document encoder. indent is the pretty-print width
// in spaces; zero produces compact output.
func NewEncoder(w io.Writer, indent int) *Encoder {
	e := &Encoder{w: w}
	if indent > 0 {
		e.pad = strings.Repeat(" ", indent)
		e.inner = e.pad
	}
	return e
}

// Encode appends one instance record to the document.
//
// All strings in the payload are NFC normalized and HTML escaping is
// disabled, so the emitted bytes are deterministic for a given dataset.
func (e *Encoder) Encode(inst Instance) error {
	if e.closed {
		return fmt.Errorf("encode: document already closed")
	}

	inst.Fields = normalizeFields(inst.Fields)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.pad != "" {
		enc.SetIndent(e.pad, e.inner)
	}
	if err := enc.Encode(inst); err != nil {
		return fmt.Errorf("encode instance %s pk=%d: %w", inst.Model, inst.PK, err)
	}
	body := bytes.TrimRight(buf.Bytes(), "\n")

	sep := ",\n"
	if e.count == 0 {
		sep = "[\n"
	}
	if e.pad == "" {
		sep = strings.TrimSuffix(sep, "\n")
	}
	if _, err := io.WriteString(e.w, sep+e.pad); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if _, err := e.w.Write(body); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	e.count++
	return nil
}

// Close terminates the JSON array. Safe to call once.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.count == 0 {
		_, err := io.WriteString(e.w, "[]\n")
		return err
	}
	tail := "\n]\n"
	if e.pad == "" {
		tail = "]\n"
	}
	_, err := io.WriteString(e.w, tail)
	return err
}

// normalizeFields returns a copy of fields with every string NFC normalized,
// recursing through lists and nested objects.
func normalizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[norm.NFC.String(k)] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeValue(elem)
		}
		return out
	case map[string]any:
		return normalizeFields(val)
	default:
		return v
	}
}

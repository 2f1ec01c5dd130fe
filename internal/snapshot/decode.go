package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
)

// Decoder streams instances out of a JSON array document.
type Decoder struct {
	dec     *json.Decoder
	started bool
}

// NewDecoder creates a document decoder over r.
//
// Numbers are decoded as json.Number so that re-encoding a document does not
// reformat integer primary keys or large numeric field values.
func NewDecoder(r io.Reader) *Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{dec: dec}
}

// Next returns the next instance in document order, or io.EOF when the
// array is exhausted.
func (d *Decoder) Next() (Instance, error) {
	var inst Instance

	if !d.started {
		tok, err := d.dec.Token()
		if err != nil {
			return inst, fmt.Errorf("read document: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return inst, fmt.Errorf("read document: expected JSON array, got %v", tok)
		}
		d.started = true
	}

	if !d.dec.More() {
		// Consume the closing bracket so trailing garbage is detected.
		if _, err := d.dec.Token(); err != nil {
			return inst, fmt.Errorf("read document: %w", err)
		}
		return inst, io.EOF
	}

	if err := d.dec.Decode(&inst); err != nil {
		return inst, fmt.Errorf("decode instance: %w", err)
	}
	if inst.Model == "" {
		return inst, fmt.Errorf("decode instance: record has no model name")
	}
	return inst, nil
}

// ReadDocument decodes an entire document into memory. Used by the
// comparison pipeline, which needs random access to both sides.
func ReadDocument(r io.Reader) ([]Instance, error) {
	d := NewDecoder(r)
	var out []Instance
	for {
		inst, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
}

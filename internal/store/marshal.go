package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// marshalFields converts a field payload to JSON TEXT for storage.
// Uses json.Encoder with HTML escaping disabled and relies on Go's sorted
// map-key marshaling so stored payloads are deterministic.
func marshalFields(fields map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unmarshalFields decodes a stored field payload.
// Numbers decode as json.Number so primary keys and large integers survive
// a round trip without float reformatting.
func unmarshalFields(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}

// EncodeNaturalKey renders a natural-key tuple as its canonical string form,
// used both as the unique storage column and for import-time resolution.
func EncodeNaturalKey(values []any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", fmt.Errorf("encode natural key: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodeNaturalKey parses a canonical natural-key string back into values.
func DecodeNaturalKey(key string) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(key)))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("decode natural key: %w", err)
	}
	return values, nil
}

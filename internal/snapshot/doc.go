// Package snapshot defines the portable backup document format and its
// streaming encoder/decoder.
//
// A document is a JSON array of instance records:
//
//	[{"model": "User", "pk": 1, "fields": {...}}, ...]
//
// Reference fields inside "fields" hold natural keys, never storage-internal
// primary keys, so a document restores cleanly into a destination database
// with different key assignment. Timestamps are rendered with explicit
// millisecond precision and a trailing Z regardless of their sub-second
// value, and all strings are NFC normalized at the serialization boundary,
// so two exports of the same dataset are byte-identical.
package snapshot

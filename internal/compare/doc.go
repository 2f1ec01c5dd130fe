// Package compare diffs two snapshot documents of the same dataset.
//
// Naive field equality is wrong for several field classes: timestamps drift
// in textual form, and emails and hashes must never appear raw in a report.
// Each comparator owns a set of fields and exposes three operations over a
// paired instance: Existence (is the field on both sides), Compare
// (semantic equality), and Scrub (idempotent redaction into the reserved
// scrub side-channel). Detected variance is encoded as Findings, never as
// errors; a malformed document is the producing layer's failure, not ours.
package compare

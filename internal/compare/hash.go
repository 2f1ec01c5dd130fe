package compare

import "github.com/roach88/reliquary/internal/snapshot"

// KindHashObfuscating identifies the hash comparator.
const KindHashObfuscating = "HashObfuscatingComparator"

// HashObfuscatingComparator compares opaque hex/hash-like fields (scalar or
// ordered list) with every reported value passed through ObfuscateHash.
//
// Because the visible prefix/suffix shrinks with hash length, short list
// entries collapse to a bare `...` marker: for list hashes the existence of
// a difference matters more than per-element detail.
type HashObfuscatingComparator struct {
	fieldComparator
}

// NewHashObfuscatingComparator creates a hash comparator owning the given
// fields in order.
func NewHashObfuscatingComparator(fields ...string) *HashObfuscatingComparator {
	return &HashObfuscatingComparator{fieldComparator{
		kind:   KindHashObfuscating,
		fields: fields,
		truncate: func(values []string) []string {
			return obfuscateEach(values, ObfuscateHash)
		},
	}}
}

// Compare reports one Finding per owned field whose sides differ, with all
// values obfuscated.
func (c *HashObfuscatingComparator) Compare(id InstanceID, left, right snapshot.Instance) []Finding {
	return c.compareObfuscated(id, left, right)
}

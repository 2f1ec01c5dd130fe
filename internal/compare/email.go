package compare

import "github.com/roach88/reliquary/internal/snapshot"

// KindEmailObfuscating identifies the email comparator.
const KindEmailObfuscating = "EmailObfuscatingComparator"

// EmailObfuscatingComparator compares email-holding fields (scalar or
// ordered list) and redacts every value that reaches a Finding or scrub
// record through ObfuscateEmail. Raw addresses never leave this comparator.
type EmailObfuscatingComparator struct {
	fieldComparator
}

// NewEmailObfuscatingComparator creates an email comparator owning the
// given fields in order.
func NewEmailObfuscatingComparator(fields ...string) *EmailObfuscatingComparator {
	return &EmailObfuscatingComparator{fieldComparator{
		kind:   KindEmailObfuscating,
		fields: fields,
		truncate: func(values []string) []string {
			return obfuscateEach(values, ObfuscateEmail)
		},
	}}
}

// Compare reports one Finding per owned field whose sides differ. Scalar
// fields compare value-to-value; list fields compare position-by-position,
// with a length mismatch counting as a mismatch for the unmatched tail.
func (c *EmailObfuscatingComparator) Compare(id InstanceID, left, right snapshot.Instance) []Finding {
	return c.compareObfuscated(id, left, right)
}

package compare

import (
	"fmt"

	"github.com/roach88/reliquary/internal/snapshot"
)

// KindDateUpdated identifies the timestamp comparator.
const KindDateUpdated = "DateUpdatedComparator"

// DateUpdatedComparator compares timestamp fields by canonical instant
// rather than textual form, tolerating differing fractional-second digit
// counts and a missing zone designator.
type DateUpdatedComparator struct {
	fieldComparator
}

// NewDateUpdatedComparator creates a timestamp comparator owning the given
// fields.
func NewDateUpdatedComparator(fields ...string) *DateUpdatedComparator {
	return &DateUpdatedComparator{fieldComparator{
		kind:   KindDateUpdated,
		fields: fields,
		// Timestamps are not sensitive; scrub records them as-is.
		truncate: func(values []string) []string { return values },
	}}
}

// Compare parses each side into an instant and reports a Finding per owned
// field whose instants differ.
func (c *DateUpdatedComparator) Compare(id InstanceID, left, right snapshot.Instance) []Finding {
	var findings []Finding
	for _, f := range c.fields {
		lv, inLeft := left.Fields[f].(string)
		rv, inRight := right.Fields[f].(string)
		if !inLeft || !inRight {
			continue
		}

		lt, lerr := snapshot.ParseInstant(lv)
		rt, rerr := snapshot.ParseInstant(rv)
		if lerr != nil || rerr != nil {
			// Unparseable timestamps are variance, not an error.
			if lv != rv {
				findings = append(findings, Finding{
					On:   id,
					Kind: c.kind,
					Reason: fmt.Sprintf("the left value (%q) of `%s` was not equal to the right value (%q)",
						lv, f, rv),
				})
			}
			continue
		}

		if !lt.Equal(rt) {
			findings = append(findings, Finding{
				On:   id,
				Kind: c.kind,
				Reason: fmt.Sprintf("the left value (%q) of `%s` was not equal to the right value (%q)",
					lv, f, rv),
			})
		}
	}
	return findings
}

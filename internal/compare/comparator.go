package compare

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/reliquary/internal/snapshot"
)

// Comparator is a field-owning unit of diff and redaction logic.
//
// A comparator is stateless configuration: its field list never changes
// across invocations, and it only ever reports on fields it owns.
type Comparator interface {
	// Kind identifies the comparator in Findings and scrub keys.
	Kind() string

	// OwnedFields lists the fields this comparator is responsible for.
	OwnedFields() []string

	// Existence checks that each owned field is present on both sides or
	// absent on both sides. Exactly one Finding is produced per field that
	// exists on only one side, naming the missing side.
	Existence(id InstanceID, left, right snapshot.Instance) []Finding

	// Compare performs the comparator-specific semantic equality check.
	// Fields missing on either side are Existence's concern and are
	// skipped here.
	Compare(id InstanceID, left, right snapshot.Instance) []Finding

	// Scrub redacts the owned fields of both instances into the reserved
	// scrub side-channel, keyed "<Kind>::<field>". The original field
	// values are never removed or altered, and repeated calls produce an
	// identical scrub record.
	Scrub(left, right *snapshot.Instance)
}

// fieldComparator carries the shared configuration and behavior of the
// concrete comparators: the owned field list, the existence check, and the
// scrub implementation parameterized by an obfuscation transform.
type fieldComparator struct {
	kind     string
	fields   []string
	truncate func([]string) []string
}

func (c *fieldComparator) Kind() string { return c.kind }

func (c *fieldComparator) OwnedFields() []string { return c.fields }

func (c *fieldComparator) Existence(id InstanceID, left, right snapshot.Instance) []Finding {
	var findings []Finding
	for _, f := range c.fields {
		_, inLeft := left.Fields[f]
		_, inRight := right.Fields[f]
		if inLeft == inRight {
			continue
		}
		side := "left"
		if inLeft {
			side = "right"
		}
		findings = append(findings, Finding{
			On:   id,
			Kind: c.kind,
			Reason: fmt.Sprintf("the %s side of `%s` is missing the field `%s`",
				side, id, f),
		})
	}
	return findings
}

func (c *fieldComparator) Scrub(left, right *snapshot.Instance) {
	scrubInstance(left, c.kind, c.fields, c.truncate)
	scrubInstance(right, c.kind, c.fields, c.truncate)
}

// scrubInstance writes the obfuscated form of each owned field under the
// reserved scrub key. The value is always a sequence, even for scalar
// fields. Recomputing from the untouched originals makes repeat calls
// idempotent.
func scrubInstance(inst *snapshot.Instance, kind string, fields []string, truncate func([]string) []string) {
	for _, f := range fields {
		v, ok := inst.Fields[f]
		if !ok || v == nil {
			continue
		}
		values, _ := stringValues(v)
		if values == nil {
			continue
		}
		if inst.Scrubbed == nil {
			inst.Scrubbed = make(map[string][]string)
		}
		inst.Scrubbed[kind+"::"+f] = truncate(values)
	}
}

// compareObfuscated is the shared Compare for comparators whose Findings
// must never leak raw values. One Finding is emitted per owned field whose
// sides differ; the reason embeds only obfuscated forms.
func (c *fieldComparator) compareObfuscated(id InstanceID, left, right snapshot.Instance) []Finding {
	var findings []Finding
	for _, f := range c.fields {
		lv, inLeft := left.Fields[f]
		rv, inRight := right.Fields[f]
		if !inLeft || !inRight {
			continue
		}
		if reflect.DeepEqual(lv, rv) {
			continue
		}

		lvals, lScalar := stringValues(lv)
		rvals, rScalar := stringValues(rv)
		if lvals == nil || rvals == nil {
			continue
		}
		lt := c.truncate(lvals)
		rt := c.truncate(rvals)

		var reason string
		if lScalar && rScalar {
			reason = fmt.Sprintf("the left value (%q) of `%s` was not equal to the right value (%q)",
				lt[0], f, rt[0])
		} else {
			reason = fmt.Sprintf("the left values (%s) of `%s` were not equal to the right values (%s)",
				quoteList(lt), f, quoteList(rt))
		}
		findings = append(findings, Finding{On: id, Kind: c.kind, Reason: reason})
	}
	return findings
}

// stringValues coerces a field value into a list of strings. Scalars become
// a one-element list; the second return reports whether the original was a
// scalar. Non-string content yields nil (malformed input is the producing
// layer's concern).
func stringValues(v any) ([]string, bool) {
	switch val := v.(type) {
	case string:
		return []string{val}, true
	case []any:
		out := make([]string, 0, len(val))
		for _, elem := range val {
			s, ok := elem.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, false
	default:
		return nil, false
	}
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

package backup

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reliquary/internal/compare"
	"github.com/roach88/reliquary/internal/snapshot"
)

// TestRoundTrip verifies export -> import -> re-export reproduces the
// document exactly: byte-identical output and a clean comparison.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)

	source := createTestStore(t)
	seedOrgChart(t, source)

	var first bytes.Buffer
	require.NoError(t, Export(ctx, source, reg, &first, ExportOptions{Silent: true, Indent: 2}))

	dest := createTestStore(t)
	require.NoError(t, Import(ctx, dest, reg, bytes.NewReader(first.Bytes())))

	var second bytes.Buffer
	require.NoError(t, Export(ctx, dest, reg, &second, ExportOptions{Silent: true, Indent: 2}))

	assert.Equal(t, first.String(), second.String())

	left, err := snapshot.ReadDocument(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	right, err := snapshot.ReadDocument(bytes.NewReader(second.Bytes()))
	require.NoError(t, err)

	plan, err := compare.ParsePlan([]byte(`
comparators:
  Organization:
    - kind: DateUpdatedComparator
      fields: [date_created]
  User:
    - kind: DateUpdatedComparator
      fields: [date_joined]
    - kind: EmailObfuscatingComparator
      fields: [email]
`))
	require.NoError(t, err)

	report := compare.Run(left, right, plan, compare.Options{Workers: 4})
	assert.Empty(t, report.Findings)
	assert.Equal(t, 4, report.Pairs)
}

// TestRoundTrip_RemappedKeys verifies identity follows natural keys, not
// storage keys: a destination with different pk assignments still re-exports
// the same reference identities.
func TestRoundTrip_RemappedKeys(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)

	source := createTestStore(t)
	// Deliberately sparse, shuffled primary keys.
	seedRecord(t, source, "Organization", 7, []any{"acme"}, map[string]any{
		"slug":         "acme",
		"name":         "Acme, Inc.",
		"date_created": "2023-06-22T23:00:00Z",
	})
	seedRecord(t, source, "Team", 31, []any{"eng"}, map[string]any{
		"slug":         "eng",
		"organization": int64(7),
	})

	var doc bytes.Buffer
	require.NoError(t, Export(ctx, source, reg, &doc, ExportOptions{Silent: true, Indent: 2}))

	dest := createTestStore(t)
	require.NoError(t, Import(ctx, dest, reg, bytes.NewReader(doc.Bytes())))

	team, ok, err := dest.GetInstance(ctx, "Team", 31)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), asInt64(t, team.Fields["organization"]))

	var again bytes.Buffer
	require.NoError(t, Export(ctx, dest, reg, &again, ExportOptions{Silent: true, Indent: 2}))
	assert.Equal(t, doc.String(), again.String())
}

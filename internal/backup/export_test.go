package backup

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reliquary/internal/schema"
	"github.com/roach88/reliquary/internal/snapshot"
)

// TestExport_Document pins the full document an export produces: dependency
// order, natural-key substitution, timestamp normalization, and layout.
func TestExport_Document(t *testing.T) {
	st := createTestStore(t)
	seedOrgChart(t, st)

	var buf bytes.Buffer
	err := Export(context.Background(), st, testRegistry(t), &buf, ExportOptions{
		Silent: true,
		Indent: 2,
	})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "org_chart", buf.Bytes())
}

// TestExport_SkipsNonIncludableAndProxy verifies flagged models never reach
// the document.
func TestExport_SkipsNonIncludableAndProxy(t *testing.T) {
	st := createTestStore(t)
	seedOrgChart(t, st)
	seedRecord(t, st, "LostPasswordHash", 1, []any{"1239fe0ab0afc39b"}, map[string]any{
		"hash": "1239fe0ab0afc39b",
	})
	seedRecord(t, st, "Session", 1, []any{"abc123"}, map[string]any{
		"session_key": "abc123",
	})

	var buf bytes.Buffer
	err := Export(context.Background(), st, testRegistry(t), &buf, ExportOptions{Silent: true, Indent: 2})
	require.NoError(t, err)

	doc := buf.String()
	assert.NotContains(t, doc, "LostPasswordHash")
	assert.NotContains(t, doc, "Session")
	assert.NotContains(t, doc, "1239fe0ab0afc39b")
}

// TestExport_ExcludeFlagIsCaseInsensitive verifies the caller-provided
// exclusion list.
func TestExport_ExcludeFlagIsCaseInsensitive(t *testing.T) {
	st := createTestStore(t)
	seedOrgChart(t, st)

	var buf bytes.Buffer
	err := Export(context.Background(), st, testRegistry(t), &buf, ExportOptions{
		Silent:  true,
		Indent:  2,
		Exclude: []string{"MEMBERSHIP"},
	})
	require.NoError(t, err)

	instances, err := snapshot.ReadDocument(strings.NewReader(buf.String()))
	require.NoError(t, err)
	for _, inst := range instances {
		assert.NotEqual(t, "Membership", inst.Model)
	}
	assert.Len(t, instances, 3)
}

// TestExport_ReferenceSubstitution verifies references serialize as natural
// identities: scalars for single-field keys, lists for composite keys.
func TestExport_ReferenceSubstitution(t *testing.T) {
	st := createTestStore(t)
	seedOrgChart(t, st)

	reg := testRegistry(t)
	var buf bytes.Buffer
	err := Export(context.Background(), st, reg, &buf, ExportOptions{Silent: true, Indent: 2})
	require.NoError(t, err)

	instances, err := snapshot.ReadDocument(strings.NewReader(buf.String()))
	require.NoError(t, err)

	byModel := make(map[string]snapshot.Instance)
	for _, inst := range instances {
		byModel[inst.Model] = inst
	}

	user := byModel["User"]
	assert.Equal(t, "acme", user.Fields["organization"])
	assert.Equal(t, []any{"eng"}, user.Fields["teams"])
	assert.Equal(t, "2023-06-22T23:12:34.567Z", user.Fields["date_joined"])
	assert.NotContains(t, user.Fields, "id")

	org := byModel["Organization"]
	assert.Equal(t, "2023-06-22T23:00:00.000Z", org.Fields["date_created"])

	membership := byModel["Membership"]
	assert.Equal(t, "eng", membership.Fields["team"])
	assert.Equal(t, "alice", membership.Fields["user"])
}

// TestExport_DanglingReference verifies a reference to a missing instance
// fails the export instead of emitting a broken document.
func TestExport_DanglingReference(t *testing.T) {
	st := createTestStore(t)
	seedRecord(t, st, "Team", 1, []any{"eng"}, map[string]any{
		"slug":         "eng",
		"organization": int64(99),
	})

	var buf bytes.Buffer
	err := Export(context.Background(), st, testRegistry(t), &buf, ExportOptions{Silent: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Organization pk=99 does not exist")
}

// TestExport_EmptyStore verifies an empty dataset exports as an empty
// document.
func TestExport_EmptyStore(t *testing.T) {
	st := createTestStore(t)

	var buf bytes.Buffer
	err := Export(context.Background(), st, testRegistry(t), &buf, ExportOptions{Silent: true, Indent: 2})
	require.NoError(t, err)
	assert.Equal(t, "[]\n", buf.String())
}

// TestExport_CycleFails verifies an unresolvable schema aborts before any
// output.
func TestExport_CycleFails(t *testing.T) {
	reg, err := schema.NewRegistry([]schema.Model{
		{Name: "A", Namespace: "core", PKField: "id", NaturalKey: []string{"k"}, Includable: true,
			References: []schema.Reference{{Field: "b", Target: "B"}}},
		{Name: "B", Namespace: "core", PKField: "id", NaturalKey: []string{"k"}, Includable: true,
			References: []schema.Reference{{Field: "a", Target: "A"}}},
	})
	require.NoError(t, err)

	st := createTestStore(t)
	var buf bytes.Buffer
	err = Export(context.Background(), st, reg, &buf, ExportOptions{Silent: true})
	require.Error(t, err)
	assert.True(t, schema.IsCycleError(err))
	assert.Zero(t, buf.Len())
}

package backup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/reliquary/internal/schema"
	"github.com/roach88/reliquary/internal/store"
)

// testRegistry builds the shared fixture schema: a small org chart with a
// composite-key join model and an excluded infrastructure namespace.
func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	reg, err := schema.NewRegistry([]schema.Model{
		{
			Name: "Organization", Namespace: "core", PKField: "id",
			NaturalKey:     []string{"slug"},
			DateTimeFields: []string{"date_created"},
			Includable:     true,
		},
		{
			Name: "Team", Namespace: "core", PKField: "id",
			NaturalKey: []string{"slug"},
			References: []schema.Reference{{Field: "organization", Target: "Organization"}},
			Includable: true,
		},
		{
			Name: "User", Namespace: "core", PKField: "id",
			NaturalKey:     []string{"username"},
			DateTimeFields: []string{"date_joined"},
			References:     []schema.Reference{{Field: "organization", Target: "Organization"}},
			ManyReferences: []schema.ManyReference{{Field: "teams", Target: "Team"}},
			Includable:     true,
		},
		{
			Name: "Membership", Namespace: "core", PKField: "id",
			NaturalKey: []string{"team", "user"},
			References: []schema.Reference{
				{Field: "team", Target: "Team"},
				{Field: "user", Target: "User"},
			},
			Includable: true,
		},
		{
			Name: "LostPasswordHash", Namespace: "core", PKField: "id",
			NaturalKey: []string{"hash"},
			Includable: false,
		},
		{
			Name: "Session", Namespace: "sessions", PKField: "id",
			NaturalKey: []string{"session_key"},
			Includable: true,
		},
	})
	require.NoError(t, err)
	reg.ExcludedNamespaces = []string{"sessions"}
	return reg
}

// createTestStore opens a store backed by a throwaway database file.
func createTestStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// seedRecord writes one record in its own committed transaction, encoding
// the natural key from the given values.
func seedRecord(t *testing.T, s *store.Store, model string, pk int64, key []any, fields map[string]any) {
	t.Helper()

	naturalKey, err := store.EncodeNaturalKey(key)
	require.NoError(t, err)

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.UpsertInstance(ctx, tx, store.Record{
		Model: model, PK: pk, NaturalKey: naturalKey, Fields: fields,
	}))
	require.NoError(t, tx.Commit())
}

// seedOrgChart populates the fixture dataset used by the export and
// round-trip tests.
func seedOrgChart(t *testing.T, s *store.Store) {
	t.Helper()

	seedRecord(t, s, "Organization", 1, []any{"acme"}, map[string]any{
		"slug":         "acme",
		"name":         "Acme, Inc.",
		"date_created": "2023-06-22T23:00:00Z",
	})
	seedRecord(t, s, "Team", 1, []any{"eng"}, map[string]any{
		"slug":         "eng",
		"organization": int64(1),
	})
	seedRecord(t, s, "User", 1, []any{"alice"}, map[string]any{
		"username":     "alice",
		"email":        "alice@example.com",
		"date_joined":  "2023-06-22T23:12:34.567Z",
		"organization": int64(1),
		"teams":        []any{int64(1)},
	})
	seedRecord(t, s, "Membership", 1, []any{int64(1), int64(1)}, map[string]any{
		"role": "member",
		"team": int64(1),
		"user": int64(1),
	})
}

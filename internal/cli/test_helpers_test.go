package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchemaCUE = `package schema

models: {
	Organization: {
		namespace:       "core"
		natural_key:     ["slug"]
		datetime_fields: ["date_created"]
	}
	Team: {
		namespace:   "core"
		natural_key: ["slug"]
		references: {organization: "Organization"}
	}
	User: {
		namespace:       "core"
		natural_key:     ["username"]
		datetime_fields: ["date_joined"]
		references: {organization: "Organization"}
	}
}
excluded_namespaces: ["sessions"]
`

const cyclicSchemaCUE = `package schema

models: {
	Alpha: {
		namespace:   "core"
		natural_key: ["name"]
		references: {beta: "Beta"}
	}
	Beta: {
		namespace:   "core"
		natural_key: ["name"]
		references: {alpha: "Alpha"}
	}
}
`

// writeTestSchema writes a CUE schema into a throwaway directory and
// returns the directory path.
func writeTestSchema(t *testing.T, src string) string {
	t.Helper()

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "schema.cue"), []byte(src), 0o644)
	require.NoError(t, err)
	return dir
}

// writeTestFile writes content into a throwaway file and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
	return path
}

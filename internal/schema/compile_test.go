package schema

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchema = `
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
		pk:              "user_id"
		natural_key:     ["username"]
		datetime_fields: ["date_joined", "last_active"]
		references: {organization: "Organization"}
		many_references: {teams: {target: "Team", through: true}}
	}
	Membership: {
		namespace:   "core"
		natural_key: ["team", "user"]
		references: {team: "Team", user: "User"}
	}
	LostPasswordHash: {
		namespace:   "core"
		natural_key: ["hash"]
		includable:  false
	}
	SuperUser: {
		namespace:   "core"
		natural_key: ["username"]
		proxy:       true
	}
}
excluded_namespaces: ["sessions", "contenttypes"]
suppressed_edges: [{from: "Organization", to: "Team"}]
`

func compileString(t *testing.T, src string) (*Registry, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	return CompileRegistry(v)
}

// TestCompileRegistry verifies the full declaration shape lands in the
// registry: defaults, overrides, references, flags, and the top-level lists.
func TestCompileRegistry(t *testing.T) {
	reg, err := compileString(t, sampleSchema)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, m := range reg.Models() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Organization", "Team", "User", "Membership", "LostPasswordHash", "SuperUser"}, names)

	org, ok := reg.Get("Organization")
	require.True(t, ok)
	assert.Equal(t, "core", org.Namespace)
	assert.Equal(t, "id", org.PKField) // default
	assert.Equal(t, []string{"slug"}, org.NaturalKey)
	assert.Equal(t, []string{"date_created"}, org.DateTimeFields)
	assert.True(t, org.Includable)
	assert.False(t, org.Proxy)

	user, ok := reg.Get("User")
	require.True(t, ok)
	assert.Equal(t, "user_id", user.PKField)
	assert.Equal(t, []Reference{{Field: "organization", Target: "Organization"}}, user.References)
	require.Len(t, user.ManyReferences, 1)
	assert.Equal(t, ManyReference{Field: "teams", Target: "Team", Through: true}, user.ManyReferences[0])

	hash, _ := reg.Get("LostPasswordHash")
	assert.False(t, hash.Includable)
	super, _ := reg.Get("SuperUser")
	assert.True(t, super.Proxy)

	assert.Equal(t, []string{"sessions", "contenttypes"}, reg.ExcludedNamespaces)
	assert.Equal(t, []Edge{{From: "Organization", To: "Team"}}, reg.SuppressedEdges)
}

// TestCompileRegistry_BareStringManyReference verifies the shorthand form.
func TestCompileRegistry_BareStringManyReference(t *testing.T) {
	reg, err := compileString(t, `
models: {
	Team: {
		namespace:   "core"
		natural_key: ["slug"]
	}
	User: {
		namespace:   "core"
		natural_key: ["username"]
		many_references: {teams: "Team"}
	}
}
`)
	require.NoError(t, err)

	user, _ := reg.Get("User")
	require.Len(t, user.ManyReferences, 1)
	assert.Equal(t, ManyReference{Field: "teams", Target: "Team", Through: false}, user.ManyReferences[0])
}

func TestCompileRegistry_MissingNamespace(t *testing.T) {
	_, err := compileString(t, `
models: {
	User: {natural_key: ["username"]}
}
`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "User.namespace", ce.Field)
}

func TestCompileRegistry_MissingNaturalKey(t *testing.T) {
	_, err := compileString(t, `
models: {
	User: {namespace: "core"}
}
`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "User.natural_key", ce.Field)
}

func TestCompileRegistry_NoModels(t *testing.T) {
	_, err := compileString(t, `excluded_namespaces: ["sessions"]`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "models", ce.Field)
}

func TestCompileRegistry_MalformedManyReference(t *testing.T) {
	_, err := compileString(t, `
models: {
	User: {
		namespace:   "core"
		natural_key: ["username"]
		many_references: {teams: {through: true}}
	}
}
`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "User.teams", ce.Field)
}

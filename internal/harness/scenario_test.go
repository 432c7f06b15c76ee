package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_AllShippedScenariosParse(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		_, err := LoadScenario(p)
		assert.NoError(t, err, p)
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
stepz:
  - op: clear
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stepz")
}

func TestParseScenario_SeedForms(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: raw
description: d
seed: "{broken"
steps: [{op: clear}]
`))
	require.NoError(t, err)
	payload, err := s.Seed.Payload()
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(payload))

	s, err = ParseScenario([]byte(`
name: lines
description: d
seed:
  - {product_id: p1, price: 2, quantity: 3}
steps: [{op: clear}]
`))
	require.NoError(t, err)
	payload, err = s.Seed.Payload()
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"productId":"p1","slug":"","name":"","image":"","price":2,"quantity":3}]`,
		string(payload))
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "description: d\nsteps: [{op: clear}]\n", "name is required"},
		{"no description", "name: n\nsteps: [{op: clear}]\n", "description is required"},
		{"no steps", "name: n\ndescription: d\n", "steps list is required"},
		{"add without item", "name: n\ndescription: d\nsteps: [{op: add}]\n", "add requires item.product_id"},
		{"remove without id", "name: n\ndescription: d\nsteps: [{op: remove}]\n", "remove requires product_id"},
		{"update without qty", "name: n\ndescription: d\nsteps: [{op: update, product_id: p}]\n", "update requires quantity"},
		{"unknown op", "name: n\ndescription: d\nsteps: [{op: checkout}]\n", `unknown op "checkout"`},
		{"missing op", "name: n\ndescription: d\nsteps: [{product_id: p}]\n", "op is required"},
		{"remote calls without remote", "name: n\ndescription: d\nsteps: [{op: clear}]\nexpect: {remote_calls: 1}\n", "requires remote.enabled"},
		{"seed line without id", "name: n\ndescription: d\nseed: [{price: 1}]\nsteps: [{op: clear}]\n", "seed[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: n\ndescription: d\nsteps: [{op: undo}]\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, OpUndo, s.Steps[0].Op)
}

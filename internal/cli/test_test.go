package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: two-adds
description: Two adds of one product merge into a single line.
steps:
  - op: add
    item: {product_id: a, price: 2}
    quantity: 1
  - op: add
    item: {product_id: a, price: 2}
    quantity: 2
expect:
  items:
    - {product_id: a, quantity: 3}
  total: "6"
`

const failingScenario = `name: wrong-total
description: Expects a total the cart cannot have.
steps:
  - op: add
    item: {product_id: a, price: 2}
    quantity: 1
expect:
  total: "99"
`

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandPassAndFail(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass.yaml", passingScenario)
	writeScenario(t, dir, "fail.yaml", failingScenario)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ two-adds")
	assert.Contains(t, out, "✗ wrong-total")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pass.yaml", passingScenario)
	writeScenario(t, dir, "fail.yaml", failingScenario)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir, "--filter", "pass*")
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, "two-adds", resp.Data.Scenarios[0].Name)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\ndescription: bad op\nsteps: [{op: fly}]\n")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	goldenDir := filepath.Join(dir, "golden")
	writeScenario(t, dir, "pass.yaml", passingScenario)

	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--golden", goldenDir, "--update")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(goldenDir, "two-adds.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "scenario: two-adds")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--golden", goldenDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ two-adds")

	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "two-adds.golden"), []byte("stale\n"), 0644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--golden", goldenDir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandUpdateRequiresGolden(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir(), "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandShippedScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}),
		"../harness/testdata/scenarios", "--golden", "../harness/testdata/golden")
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 failed")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte(""), 0644))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

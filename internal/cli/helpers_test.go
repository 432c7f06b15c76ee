package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// cartResponse decodes a JSON CartView response.
type cartResponse struct {
	Status string    `json:"status"`
	Data   CartView  `json:"data"`
	Error  *CLIError `json:"error"`
}

// sqliteOpts returns root options for a fresh sqlite database in a temp dir.
func sqliteOpts(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:   format,
		Backend:  "sqlite",
		Database: filepath.Join(t.TempDir(), "cart.db"),
	}
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeCart parses a JSON cart response.
func decodeCart(t *testing.T, out string) cartResponse {
	t.Helper()
	var resp cartResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workspace writes an arche.yaml pointing the file store at a temp dir.
func workspace(t *testing.T) (configPath, storeDir string) {
	t.Helper()
	dir := t.TempDir()
	storeDir = filepath.Join(dir, "projects")
	configPath = filepath.Join(dir, "arche.yaml")
	content := fmt.Sprintf("store:\n  backend: file\n  dir: %q\n  format: json\nlog:\n  level: error\n", storeDir)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath, storeDir
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	configPath, _ := workspace(t)
	out, err := run(t, configPath, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "arche version")
	assert.Contains(t, out, "record format v1")
}

func TestValidate(t *testing.T) {
	configPath, _ := workspace(t)

	out, err := run(t, configPath, "validate", "testdata/project.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ testdata/project.yaml: 6 nodes, 2 aggregating")

	out, err = run(t, configPath, "validate", "testdata/project.yaml", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 records invalid")
	assert.Contains(t, out, "✗ testdata/invalid.yaml")
	assert.Contains(t, out, "fileId")
}

func TestReplay(t *testing.T) {
	configPath, _ := workspace(t)

	out, err := run(t, configPath, "replay", "--json=true", "testdata/events.jsonl", "testdata/project.yaml")
	require.NoError(t, err)

	var got struct {
		Delivered int                        `json:"delivered"`
		Rejected  int                        `json:"rejected"`
		Summaries map[string]json.RawMessage `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4, got.Delivered)
	assert.Equal(t, 1, got.Rejected)
	assert.JSONEq(t, `{"count":2}`, string(got.Summaries["basin"]))
	assert.JSONEq(t, `{"count":3,"ids":["r1","r2"]}`, string(got.Summaries["grid"]))

	out, err = run(t, configPath, "replay", "--json=false", "testdata/events.jsonl", "testdata/project.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "NODE")
	assert.Contains(t, out, "[r1 r2]")
	assert.Contains(t, out, "4 delivered, 1 rejected")
}

func TestTree(t *testing.T) {
	configPath, _ := workspace(t)

	out, err := run(t, configPath, "tree", "--raw", "--events", "testdata/events.jsonl", "testdata/project.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "# Project Basin")
	assert.Contains(t, out, "| grid | observation-mesh | 3 | r1, r2 |")
}

func TestProjectLifecycle(t *testing.T) {
	configPath, storeDir := workspace(t)

	out, err := run(t, configPath, "project", "import", "testdata/project.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "imported basin (6 nodes)")
	assert.FileExists(t, filepath.Join(storeDir, "basin.json"))

	_, err = run(t, configPath, "project", "import", "testdata/project.yaml")
	assert.Error(t, err)

	out, err = run(t, configPath, "project", "import", "--force", "--id", "copy", "testdata/project.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "imported copy")

	out, err = run(t, configPath, "project", "list")
	require.NoError(t, err)
	assert.Equal(t, "basin\ncopy\n", out)

	out, err = run(t, configPath, "project", "export", "--format", "json", "basin")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "observation-mesh"`)

	out, err = run(t, configPath, "graph", "--project", "basin", "--progress", "--events", "testdata/events.jsonl")
	require.NoError(t, err)
	assert.Contains(t, out, `grid[["grid <br/> 3"]]`)
	assert.Contains(t, out, "class r2 resolved;")

	_, err = run(t, configPath, "project", "delete", "copy")
	require.NoError(t, err)
	out, err = run(t, configPath, "project", "list")
	require.NoError(t, err)
	assert.Equal(t, "basin\n", out)
}

func TestConfigOverrides(t *testing.T) {
	configPath, _ := workspace(t)

	_, err := run(t, configPath, "--store", "s3", "version")
	assert.ErrorContains(t, err, "unknown store backend")

	_, err = run(t, configPath, "--store", "file", "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "loud")

	_, err = run(t, configPath, "--log-level", "error", "version")
	require.NoError(t, err)
}

func TestProjectEncryptedStore(t *testing.T) {
	configPath, storeDir := workspace(t)
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	t.Setenv("ARCHE_ENCRYPTION_KEY", key)

	_, err := run(t, configPath, "project", "import", "--force=false", "--id", "secret", "testdata/project.yaml")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(storeDir, "secret.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "__encrypted__")
	assert.NotContains(t, string(raw), "observation-mesh")

	out, err := run(t, configPath, "project", "export", "--format", "yaml", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: observation-mesh")
}

func TestSolve(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("solver fixture uses sh")
	}
	configPath, _ := workspace(t)
	testdata, err := filepath.Abs("testdata")
	require.NoError(t, err)

	solvers := filepath.Join(t.TempDir(), "solvers.yaml")
	require.NoError(t, os.WriteFile(solvers, []byte(`
solvers:
  - name: playback
    command: sh
    args: ["-c", "echo solving $ARCHE_PROJECT_ID; cat \"$ARCHE_EVENTS\""]
`), 0644))

	out, err := run(t, configPath, "solve", "--json=true",
		"--solvers", solvers, "--workdir", testdata, "--param", "events=events.jsonl",
		"playback", "testdata/project.yaml")
	require.NoError(t, err)

	var got struct {
		Delivered int                        `json:"delivered"`
		Rejected  int                        `json:"rejected"`
		Ignored   int                        `json:"ignored"`
		Summaries map[string]json.RawMessage `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4, got.Delivered)
	assert.Equal(t, 1, got.Rejected)
	assert.Equal(t, 2, got.Ignored)
	assert.JSONEq(t, `{"count":3,"ids":["r1","r2"]}`, string(got.Summaries["grid"]))

	_, err = run(t, configPath, "solve", "--solvers", solvers, "missing", "testdata/project.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver not registered")
}

func TestOpenSourceEventsFlag(t *testing.T) {
	bare := &cobra.Command{Use: "bare"}
	bare.Flags().String("project", "", "")
	p, err := openSource(bare, []string{"testdata/project.yaml"})
	require.NoError(t, err)
	root, err := p.Summary("basin")
	require.NoError(t, err)
	assert.Equal(t, 0, root.Count)
	p.Close()

	withEvents := &cobra.Command{Use: "with-events"}
	addSourceFlags(withEvents)
	require.NoError(t, withEvents.Flags().Set("events", "testdata/events.jsonl"))
	p, err = openSource(withEvents, []string{"testdata/project.yaml"})
	require.NoError(t, err)
	defer p.Close()
	root, err = p.Summary("basin")
	require.NoError(t, err)
	assert.Equal(t, 2, root.Count)
}

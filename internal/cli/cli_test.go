package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/quadgraph/internal/storage"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "quadgraph", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"stats", "convert", "compare", "save", "restore"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	for _, name := range []string{"config", "format", "policy"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestStats(t *testing.T) {
	out, err := execute(t, "", "stats", "testdata/multigraph.ndjson")
	require.NoError(t, err)

	for _, line := range []string{
		"files: 1",
		"statements: 22",
		"skipped: 0",
		"quads: 18",
		"triples: 15",
		"contexts: 4",
		"subjects: 5",
		"predicates: 10",
		"objects: 14",
		"  <https://example.com/graph/1>\t6",
	} {
		assert.Contains(t, out, line+"\n")
	}
}

func TestStatsFromStdin(t *testing.T) {
	input := "<http://example.org/s> <http://example.org/p> \"o\" <http://example.org/g> .\n"
	out, err := execute(t, input, "stats", "--format", "nq", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "quads: 1\n")
	assert.Contains(t, out, "  <http://example.org/g>\t1\n")
}

func TestStatsSkipInvalid(t *testing.T) {
	input := `["http://example.org/s", "http://example.org/p", "x", "http://www.w3.org/2001/XMLSchema#string", "en", ""]
["http://example.org/s", "http://example.org/p", "y", "", "", ""]
`
	_, err := execute(t, input, "stats", "--format", "hext", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, input, "stats", "--format", "hext", "--policy", "skip-invalid", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped: 1\n")
	assert.Contains(t, out, "quads: 1\n")
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "", "stats", "--policy", "sometimes", "testdata/a.nq")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "stats", "--format", "turtle", "testdata/a.nq")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "stats", "--config", "testdata/missing.toml", "testdata/a.nq")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConvert(t *testing.T) {
	out, err := execute(t, "", "convert", "--to", "nt", "testdata/multigraph.ndjson")
	require.NoError(t, err)
	// 15 distinct triples across all contexts
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 15)

	path := filepath.Join(t.TempDir(), "out.nq")
	_, err = execute(t, "", "convert", "-o", path, "testdata/multigraph.ndjson")
	require.NoError(t, err)

	out, err = execute(t, "", "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "quads: 18\n")
	assert.Contains(t, out, "contexts: 4\n")
}

func TestCompare(t *testing.T) {
	out, err := execute(t, "", "compare", "testdata/a.nq", "testdata/b.nq")
	require.NoError(t, err)
	assert.Equal(t, "isomorphic\n", out)

	out, err = execute(t, "", "compare", "testdata/a.nq", "testdata/c.nq")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "not isomorphic\n", out)

	out, err = execute(t, "", "compare", "-v", "testdata/a.nq", "testdata/b.nq")
	require.NoError(t, err)
	assert.Contains(t, out, "testdata/a.nq: 3 triples")
}

func TestSaveRestore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snapshot")

	out, err := execute(t, "", "save", "--db", db, "testdata/multigraph.ndjson")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "saved 18 quads in 4 contexts"))

	out, err = execute(t, "", "restore", "--db", db)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 18)

	path := filepath.Join(t.TempDir(), "restored.hext")
	_, err = execute(t, "", "restore", "--db", db, "--to", "hext", "-o", path)
	require.NoError(t, err)
	out, err = execute(t, "", "compare", path, "testdata/multigraph.ndjson")
	require.NoError(t, err)
	assert.Equal(t, "isomorphic\n", out)
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	_, err := execute(t, "", "restore", "--db", t.TempDir())
	require.ErrorIs(t, err, storage.ErrNoSnapshot)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSaveUsesConfigPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "quadgraph.toml")
	db := filepath.Join(dir, "db")
	require.NoError(t, os.WriteFile(configPath, []byte("[storage]\npath = \""+filepath.ToSlash(db)+"\"\n"), 0o600))

	_, err := execute(t, "", "save", "--config", configPath, "testdata/a.nq")
	require.NoError(t, err)

	out, err := execute(t, "", "restore", "--config", configPath, "--to", "ntriples")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

package repoconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadRepoOverwritesGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".chronocore.toml"), `
[user]
name = "Alice"
email = "alice@example.com"

[revsets]
default = "all()"
`)

	repoDir := t.TempDir()
	writeFile(t, filepath.Join(repoDir, "config.toml"), `
[user]
email = "alice@work.example.com"

[revsets.aliases]
mine = "author(\"alice\")"
`)

	cfg, err := LoadRepo(repoDir)
	require.NoError(t, err)
	require.Equal(t, "Alice", cfg.User.Name, "repo config didn't set name, global value should survive")
	require.Equal(t, "alice@work.example.com", cfg.User.Email, "repo config's email should win over global")
	require.Equal(t, "all()", cfg.Revsets.Default, "repo config didn't set default, global value should survive")
	require.Equal(t, `author("alice")`, cfg.Revsets.Aliases["mine"])
}

func TestLoadRepoWithNoFilesReturnsEmptyConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadRepo(t.TempDir())
	require.NoError(t, err)
	require.True(t, cfg.User.Empty())
}

func TestNewAliasTableBareAndParameterized(t *testing.T) {
	tbl, err := NewAliasTable(map[string]RawAlias{
		"mine":         `author("me@example.com")`,
		"closest(x)":   `heads(x)`,
		"between(a,b)": `a:b`,
	})
	require.NoError(t, err)

	d, ok := tbl.Lookup("mine")
	require.True(t, ok)
	require.Empty(t, d.Params)
	require.Equal(t, `author("me@example.com")`, d.Body)

	d2, ok := tbl.Lookup("closest")
	require.True(t, ok)
	require.Equal(t, []string{"x"}, d2.Params)

	d3, ok := tbl.Lookup("between")
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, d3.Params)

	_, ok = tbl.Lookup("nosuchalias")
	require.False(t, ok)
}

func TestNewAliasTableRejectsMalformedKey(t *testing.T) {
	_, err := NewAliasTable(map[string]RawAlias{"not an ident": "all()"})
	require.Error(t, err)
	var bad *BadAliasKey
	require.ErrorAs(t, err, &bad)
}

func TestNewAliasTableRejectsUnclosedParen(t *testing.T) {
	_, err := NewAliasTable(map[string]RawAlias{"closest(x": "heads(x)"})
	require.Error(t, err)
}

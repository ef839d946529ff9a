// Package repoconfig loads TOML-backed repository settings, in particular
// the revset alias table, mirroring the teacher's layered config idiom
// (modules/zeta/config) but scoped to this engine's own settings.
package repoconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chronovc/chronocore/revset/parser"
)

// User identifies the author/committer signature new commits are stamped
// with when no explicit signature is supplied.
type User struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

func (u User) Empty() bool { return u.Name == "" && u.Email == "" }

func overwriteString(a, b string) string {
	if b != "" {
		return b
	}
	return a
}

func (u *User) overwrite(o User) {
	u.Name = overwriteString(u.Name, o.Name)
	u.Email = overwriteString(u.Email, o.Email)
}

// RawAlias is a single `[revsets.aliases]` table entry as it appears on
// disk: `mine = "author(\"me@example.com\")"` for a plain alias, or
// `"closest(x)" = "heads(x)"` for a parameterized one (the key carries the
// formal parameter list; TOML keys may be quoted strings for this reason).
type RawAlias = string

// Revsets holds the revset-language settings: aliases and a default
// expression for implicit-revset contexts (e.g. a bare `log` with no
// argument).
type Revsets struct {
	Aliases map[string]RawAlias `toml:"aliases,omitempty"`
	Default string               `toml:"default,omitempty"`
}

func (r *Revsets) overwrite(o Revsets) {
	if o.Default != "" {
		r.Default = o.Default
	}
	if len(o.Aliases) == 0 {
		return
	}
	if r.Aliases == nil {
		r.Aliases = map[string]RawAlias{}
	}
	for k, v := range o.Aliases {
		r.Aliases[k] = v
	}
}

// Workspace holds per-workspace defaults: which bookmark name new
// workspaces should check out onto.
type Workspace struct {
	DefaultBookmark string `toml:"defaultBookmark,omitempty"`
}

func (w *Workspace) overwrite(o Workspace) {
	w.DefaultBookmark = overwriteString(w.DefaultBookmark, o.DefaultBookmark)
}

// Config is the full settings shape, split into tables the way the
// teacher's Config splits into Core/User/HTTP/etc: one struct per TOML
// table, each with its own overwrite merge rule.
type Config struct {
	User      User      `toml:"user,omitempty"`
	Revsets   Revsets   `toml:"revsets,omitempty"`
	Workspace Workspace `toml:"workspace,omitempty"`
}

// Overwrite merges o's non-zero fields onto c, o taking precedence —
// the same "repo overwrites global overwrites system" direction the
// teacher's Config.Overwrite uses.
func (c *Config) Overwrite(o *Config) {
	c.User.overwrite(o.User)
	c.Revsets.overwrite(o.Revsets)
	c.Workspace.overwrite(o.Workspace)
}

// LoadGlobal reads the user-level config at ~/.chronocore.toml, returning
// an empty Config (not an error) if the file doesn't exist.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}
	return loadOptional(filepath.Join(home, ".chronocore.toml"))
}

// LoadRepo reads the repo-level config at <repoDir>/config.toml, layered
// on top of the global config (repo settings win on conflict).
func LoadRepo(repoDir string) (*Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return nil, err
	}
	if repoDir == "" {
		return global, nil
	}
	local, err := loadOptional(filepath.Join(repoDir, "config.toml"))
	if err != nil {
		return nil, err
	}
	global.Overwrite(local)
	return global, nil
}

func loadOptional(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("repoconfig: decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// AliasTable adapts a Config's [revsets.aliases] table into a
// parser.AliasResolver, parsing each entry's key (a bare name or a
// `name(params...)` call form) and body once at load time rather than on
// every Lookup.
type AliasTable struct {
	defs map[string]parser.AliasDef
}

// NewAliasTable parses every entry of aliases into an AliasDef, returning
// the first malformed key as a BadAliasKey error — an alias table is
// loaded once per repo open, so fail fast rather than per-lookup.
func NewAliasTable(aliases map[string]RawAlias) (*AliasTable, error) {
	defs := make(map[string]parser.AliasDef, len(aliases))
	for key, body := range aliases {
		name, params, err := parseAliasKey(key)
		if err != nil {
			return nil, err
		}
		defs[name] = parser.AliasDef{Name: name, Params: params, Body: body}
	}
	return &AliasTable{defs: defs}, nil
}

func (t *AliasTable) Lookup(name string) (parser.AliasDef, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// BadAliasKey is reported when a [revsets.aliases] key is neither a bare
// identifier nor a `name(params...)` call form.
type BadAliasKey struct {
	Key string
}

func (e *BadAliasKey) Error() string {
	return fmt.Sprintf("repoconfig: bad alias key %q", e.Key)
}

// parseAliasKey splits a `name` or `name(a, b, c)` key into its bare name
// and formal parameter list.
func parseAliasKey(key string) (name string, params []string, err error) {
	open := indexByte(key, '(')
	if open < 0 {
		if !isIdent(key) {
			return "", nil, &BadAliasKey{Key: key}
		}
		return key, nil, nil
	}
	if key[len(key)-1] != ')' {
		return "", nil, &BadAliasKey{Key: key}
	}
	name = key[:open]
	if !isIdent(name) {
		return "", nil, &BadAliasKey{Key: key}
	}
	inner := key[open+1 : len(key)-1]
	if inner == "" {
		return name, nil, nil
	}
	for _, part := range splitComma(inner) {
		p := trimSpace(part)
		if !isIdent(p) {
			return "", nil, &BadAliasKey{Key: key}
		}
		params = append(params, p)
	}
	return name, params, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
		if !isAlnum {
			return false
		}
		if i == 0 && c >= '0' && c <= '9' {
			return false
		}
	}
	return true
}

package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

func TestKeep(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		table string
		want  bool
	}{
		{"no rules keeps everything", Rules{}, "users", true},
		{"exact do match ignores case", Rules{DoTables: []string{"Users"}}, "users", true},
		{"exact do miss", Rules{DoTables: []string{"users"}}, "orders", false},
		{"exact does not match prefix", Rules{DoTables: []string{"user"}}, "users", false},
		{"regex do", Rules{DoTables: []string{"~^order_"}}, "ORDER_items", true},
		{"ignore exact", Rules{IgnoreTables: []string{"audit_log"}}, "audit_log", false},
		{"ignore regex", Rules{IgnoreTables: []string{"~_bak$"}}, "users_bak", false},
		{"ignore after do", Rules{DoTables: []string{"~^users"}, IgnoreTables: []string{"users_tmp"}}, "users_tmp", false},
		{"dot is literal in exact names", Rules{DoTables: []string{"a.b"}}, "axb", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.rules)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Keep(tt.table))
		})
	}
}

func TestNewRejectsBadPatterns(t *testing.T) {
	_, err := New(Rules{DoTables: []string{"~("}})
	assert.ErrorContains(t, err, "invalid table pattern")

	_, err = New(Rules{IgnoreTables: []string{""}})
	assert.ErrorContains(t, err, "empty table pattern")
}

func TestApply(t *testing.T) {
	s := schema.NewSchema(schema.MySQL)
	for _, n := range []string{"users", "orders", "users_bak", "audit"} {
		s.AddTable(schema.NewTable(n))
	}
	f, err := New(Rules{IgnoreTables: []string{"~_bak$", "AUDIT"}})
	require.NoError(t, err)

	dropped := f.Apply(s)
	assert.Equal(t, []string{"users_bak", "audit"}, dropped)
	assert.Equal(t, []string{"users", "orders"}, s.Names())
	assert.Len(t, s.Tables, 2)

	var nilFilter *Filter
	assert.Nil(t, nilFilter.Apply(s))
	assert.True(t, nilFilter.Keep("anything"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filter.toml")
	require.NoError(t, os.WriteFile(path, []byte("do-tables = [\"~^app_\"]\nignore-tables = [\"app_tmp\"]\n"), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, f.Keep("app_users"))
	assert.False(t, f.Keep("app_tmp"))
	assert.False(t, f.Keep("other"))

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("do-table = [\"x\"]\n"), 0o600))
	_, err = LoadFile(bad)
	assert.ErrorContains(t, err, "unknown keys")

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/cmd/unisql/commands"
	"github.com/satishbabariya/unisql/internal/adapters/database"
	_ "github.com/satishbabariya/unisql/internal/adapters/database/sqlite"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema/schematest"
	"github.com/satishbabariya/unisql/internal/version"
	"github.com/satishbabariya/unisql/pkg/client"
)

// project creates a seeded database, a mapping document and a config file
// pointing at both, and returns the config path.
func project(t *testing.T, users int) string {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db := filepath.Join(dir, "app.db")

	pool, err := database.Open(ctx, database.Config{Provider: "sqlite", URL: db})
	require.NoError(t, err)
	_, err = pool.DB().ExecContext(ctx, schematest.SQLiteDDL)
	require.NoError(t, err)
	require.NoError(t, schematest.Seed(ctx, pool.DB(), users))
	require.NoError(t, pool.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.yaml"), []byte(schematest.MappingYAML), 0o644))
	cfg := filepath.Join(dir, ".unisql.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("url: "+db+"\nmetadata: mapping.yaml\nlog:\n  level: disabled\n"), 0o644))
	return cfg
}

func run(t *testing.T, cfg string, opts []commands.Option, args ...string) (string, string, error) {
	t.Helper()
	root := commands.NewRootCommand(opts...)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestQuery(t *testing.T) {
	cfg := project(t, 3)

	out, _, err := run(t, cfg, nil, "--no-input", "query",
		"SELECT u.username FROM User u WHERE u.id > :id ORDER BY u.id", "-p", "id=1")
	require.NoError(t, err)
	assert.Contains(t, out, "user02")
	assert.Contains(t, out, "user03")
	assert.NotContains(t, out, "user01")
	assert.Contains(t, out, "(2 rows)")

	out, _, err = run(t, cfg, nil, "query", "FROM User u WHERE u.id = :id", "-p", "id=2")
	require.NoError(t, err)
	assert.Contains(t, out, "createdAt")
	assert.Contains(t, out, "User 02")

	out, _, err = run(t, cfg, nil, "query", "SELECT u.username FROM User u ORDER BY u.id", "--offset", "1", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "user02")
	assert.Contains(t, out, "(1 row)")
}

func TestQuery_File(t *testing.T) {
	cfg := project(t, 2)
	file := filepath.Join(filepath.Dir(cfg), "names.hql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT u.username, u.fullname FROM User u ORDER BY u.id DESC"), 0o644))

	out, _, err := run(t, cfg, nil, "query", "-f", file, "--shape", "map")
	require.NoError(t, err)
	assert.Contains(t, out, "User 02")

	_, _, err = run(t, cfg, nil, "query", "FROM User", "-f", file)
	assert.Error(t, err)
}

func TestQuery_Errors(t *testing.T) {
	cfg := project(t, 1)

	_, _, err := run(t, cfg, nil, "--no-input", "query", "FROM User u WHERE u.id = :id")
	assert.True(t, client.IsUnknownPlaceholder(err))

	_, _, err = run(t, cfg, nil, "query", "FROM Customer")
	assert.True(t, client.IsResolution(err))

	_, _, err = run(t, cfg, nil, "query", "SELECT u.id FROM User u", "--shape", "cube")
	assert.Error(t, err)

	_, _, err = run(t, cfg, nil, "query", "SELECT u.id FROM User u", "--watch")
	assert.EqualError(t, err, "--watch requires --file")
}

type answers map[string]string

func (a answers) Ask(p domain.Param, _ domain.LogicalType) (string, error) {
	return a[p.Key()], nil
}

func TestQuery_Prompt(t *testing.T) {
	cfg := project(t, 3)
	opts := []commands.Option{commands.WithPrompter(answers{":name": "user03"})}

	out, _, err := run(t, cfg, opts, "query", "SELECT u.id FROM User u WHERE u.username = :name")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 row)")
}

func TestNative(t *testing.T) {
	cfg := project(t, 4)

	out, _, err := run(t, cfg, nil, "native", "SELECT username AS login FROM users WHERE id >= ?1 ORDER BY id", "-p", "1=3")
	require.NoError(t, err)
	assert.Contains(t, out, "login")
	assert.Contains(t, out, "user04")
	assert.Contains(t, out, "(2 rows)")

	out, _, err = run(t, cfg, nil, "native", "UPDATE users SET fullname = :name WHERE id <= :id", "-p", "name=Renamed", "-p", "id=2")
	require.NoError(t, err)
	assert.Contains(t, out, "update: 2 rows affected")

	out, _, err = run(t, cfg, nil, "native", "SELECT * FROM users u WHERE u.id = 1", "--entity", "u=User")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed")

	_, _, err = run(t, cfg, nil, "native", "SELECT 1", "--entity", "broken")
	assert.Error(t, err)
	_, _, err = run(t, cfg, nil, "native", "SELECT 1", "--kind", "merge")
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	cfg := project(t, 0)

	out, _, err := run(t, cfg, nil, "explain", "SELECT u.username FROM User u WHERE u.id = :id", "--dialect", "postgres", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, `SELECT "u"."username" FROM "users" AS "u" WHERE "u"."id" = $1`)
	assert.Contains(t, out, "-- $1 = :id")

	out, _, err = run(t, cfg, nil, "explain", "SELECT u.id FROM User u", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "-- sqlite")
	assert.Contains(t, out, "-- postgres")
	assert.Contains(t, out, "-- mysql")

	out, _, err = run(t, cfg, nil, "explain", "SELECT * FROM users WHERE id = :id", "--native", "--dialect", "mysql", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT * FROM users WHERE id = ?")

	_, _, err = run(t, cfg, nil, "explain", "SELECT u.id FROM User u", "--dialect", "oracle")
	assert.Error(t, err)
}

func TestEntities(t *testing.T) {
	cfg := project(t, 0)

	out, _, err := run(t, cfg, nil, "entities")
	require.NoError(t, err)
	assert.Contains(t, out, "UserProfile")
	assert.Contains(t, out, "user_profile")

	out, _, err = run(t, cfg, nil, "entities", "User")
	require.NoError(t, err)
	assert.Contains(t, out, "created_at")
	assert.Contains(t, out, "users.id = Post.user_id")

	_, _, err = run(t, cfg, nil, "entities", "Nope")
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	cfg := project(t, 0)
	path := filepath.Join(t.TempDir(), "conf", ".unisql.yaml")

	out, _, err := run(t, cfg, nil, "--no-input", "--url", "postgres://localhost/app", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "provider: postgres")
	assert.Contains(t, string(data), "postgres://localhost/app")

	_, _, err = run(t, cfg, nil, "--no-input", "init", "--path", path)
	assert.Error(t, err)
	_, _, err = run(t, cfg, nil, "--no-input", "init", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	cfg := project(t, 0)

	out, _, err := run(t, cfg, nil, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)

	_, _, err = run(t, cfg, nil, "version", "--require", ">= 100.0")
	assert.Error(t, err)
}

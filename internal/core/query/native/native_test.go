package native_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/native"
	"github.com/satishbabariya/unisql/internal/core/schema/schematest"
)

func params(segs []domain.NativeSegment) []domain.Param {
	var out []domain.Param
	for _, s := range segs {
		if s.Param != nil {
			out = append(out, *s.Param)
		}
	}
	return out
}

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []domain.Param
	}{
		{
			name: "named and positional",
			text: "SELECT * FROM users WHERE id = :id AND username = ?2",
			want: []domain.Param{{Name: "id"}, {Position: 2}},
		},
		{
			name: "bare markers are numbered in order",
			text: "SELECT * FROM users WHERE id = ? OR id = ?",
			want: []domain.Param{{Position: 1}, {Position: 2}},
		},
		{
			name: "quoted text is skipped",
			text: `SELECT ':no', "col:x", ` + "`a?b`" + ` FROM t WHERE a = 'it''s :no' AND b = :yes`,
			want: []domain.Param{{Name: "yes"}},
		},
		{
			name: "comments are skipped",
			text: "SELECT 1 -- :no\nFROM t /* ?1 */ WHERE a = :yes",
			want: []domain.Param{{Name: "yes"}},
		},
		{
			name: "casts are not placeholders",
			text: "SELECT created_at::date FROM users WHERE id = :id::int",
			want: []domain.Param{{Name: "id"}},
		},
		{
			name: "no placeholders",
			text: "SELECT * FROM user",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := native.Scan(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, params(segs))

			var rebuilt string
			for _, s := range segs {
				if s.Param == nil {
					rebuilt += s.Text
				} else {
					rebuilt += s.Param.Key()
				}
			}
			if tt.name != "bare markers are numbered in order" {
				assert.Equal(t, tt.text, rebuilt)
			}
		})
	}
}

func TestScan_InvalidPosition(t *testing.T) {
	_, err := native.Scan("SELECT * FROM t WHERE id = ?0")
	assert.ErrorIs(t, err, domain.ErrSyntax)
}

func TestSniffKind(t *testing.T) {
	tests := map[string]domain.StatementKind{
		"SELECT * FROM user":                   domain.KindQuery,
		"  -- comment\nselect 1":               domain.KindQuery,
		"(SELECT 1) UNION (SELECT 2)":          domain.KindQuery,
		"WITH x AS (SELECT 1) SELECT * FROM x": domain.KindQuery,
		"/* hint */ PRAGMA table_info(users)":  domain.KindQuery,
		"UPDATE users SET fullname = :f":       domain.KindUpdate,
		"delete from users":                    domain.KindDelete,
		"INSERT INTO users(id) VALUES (1)":     domain.KindInsert,
		"CREATE TABLE x (id INT)":              domain.KindUpdate,
	}
	for text, want := range tests {
		assert.Equal(t, want, native.SniffKind(text), text)
	}
}

func TestQuery_Statement(t *testing.T) {
	stmt, err := native.New("SELECT u.*, p.* FROM users u LEFT JOIN user_profile p ON p.user_id = u.id WHERE u.id = :id").
		WithMetadata(schematest.Registry()).
		AddEntity("u", "User").
		AddJoin("p", "u.userProfile").
		Statement()
	require.NoError(t, err)

	assert.Equal(t, domain.KindQuery, stmt.Kind)
	assert.Equal(t, domain.Root{Entity: "User", Alias: "u"}, stmt.Root)
	require.NotNil(t, stmt.Native)
	assert.Equal(t, []domain.NativeEntity{{Alias: "u", Entity: "User"}}, stmt.Native.Entities)
	assert.Equal(t, []domain.NativeJoin{{Alias: "p", Owner: "u", Association: "userProfile"}}, stmt.Native.Joins)
	assert.Equal(t, []domain.Param{{Name: "id"}}, stmt.Placeholders)
}

func TestQuery_AsKind(t *testing.T) {
	q := native.New("CALL refresh_stats(:day)").AsKind(domain.KindQuery)
	stmt, err := q.Statement()
	require.NoError(t, err)
	assert.Equal(t, domain.KindQuery, stmt.Kind)
}

func TestQuery_ConstructionErrors(t *testing.T) {
	registry := schematest.Registry()

	t.Run("unknown entity", func(t *testing.T) {
		q := native.New("SELECT * FROM x").WithMetadata(registry).AddEntity("x", "Account")
		assert.ErrorIs(t, q.Err(), domain.ErrResolution)
	})

	t.Run("join owner must be declared", func(t *testing.T) {
		q := native.New("SELECT * FROM users").AddJoin("p", "u.userProfile")
		assert.ErrorIs(t, q.Err(), domain.ErrResolution)
	})

	t.Run("unknown association", func(t *testing.T) {
		q := native.New("SELECT * FROM users").WithMetadata(registry).AddEntity("u", "User").AddJoin("c", "u.comments")
		assert.ErrorIs(t, q.Err(), domain.ErrResolution)
	})

	t.Run("alias reuse", func(t *testing.T) {
		q := native.New("SELECT * FROM users").AddEntity("u", "User").AddEntity("u", "Post")
		assert.ErrorIs(t, q.Err(), domain.ErrResolution)
	})

	t.Run("entities on DML", func(t *testing.T) {
		q := native.New("DELETE FROM users").AddEntity("u", "User")
		assert.ErrorIs(t, q.Err(), domain.ErrUnsupportedOperation)
		_, err := q.Statement()
		assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	})
}

package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/mapper"
	"github.com/satishbabariya/unisql/internal/core/query/native"
	"github.com/satishbabariya/unisql/internal/core/query/template"
	"github.com/satishbabariya/unisql/internal/core/schema/schematest"
)

func compile(t *testing.T, text string) *compiler.Compiled {
	t.Helper()
	registry := schematest.Registry()
	c, err := compiler.NewSQLCompiler(domain.SQLite, registry)
	require.NoError(t, err)
	compiled, err := c.Compile(template.MustCompile(registry, text))
	require.NoError(t, err)
	return compiled
}

func names(compiled *compiler.Compiled) []string {
	out := make([]string, len(compiled.Columns))
	for i, c := range compiled.Columns {
		out[i] = c.Name
	}
	return out
}

func prepared(t *testing.T, spec domain.MaterializationSpec, compiled *compiler.Compiled) *mapper.Materializer {
	t.Helper()
	m := mapper.New(spec, compiled, schematest.Registry())
	require.NoError(t, m.Prepare(names(compiled)))
	return m
}

var created = time.Date(2021, 3, 1, 8, 0, 0, 0, time.UTC)

func userRow(id int64, name string) []any {
	return []any{id, name, "secret", "User " + name, created, created}
}

func TestMaterializer_Scalar(t *testing.T) {
	compiled := compile(t, "SELECT count(u) FROM User u")
	m := prepared(t, domain.Scalar(), compiled)

	v, emit, err := m.Row(0, []any{int64(7)})
	require.NoError(t, err)
	assert.True(t, emit)
	assert.Equal(t, int64(7), v)

	m = mapper.New(domain.Scalar(), compile(t, "SELECT u.id, u.username FROM User u"), nil)
	err = m.Prepare([]string{"id", "username"})
	var shape *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, -1, shape.Row)
}

func TestMaterializer_TupleAndMap(t *testing.T) {
	compiled := compile(t, "SELECT u.id, u.username AS login, month(u.createdAt) FROM User u")

	tuple := prepared(t, domain.Tuple(), compiled)
	v, _, err := tuple.Row(0, []any{int64(1), []byte("user01"), int64(3)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "user01", int64(3)}, v)

	row := prepared(t, domain.MapRow(), compiled)
	v, _, err = row.Row(0, []any{int64(1), "user01", int64(3)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "login": "user01", "month(u.createdAt)": int64(3)}, v)
}

func TestMaterializer_MapRowQualifiesDuplicates(t *testing.T) {
	compiled := compile(t, "SELECT u.id, p.id FROM User u JOIN u.posts p")
	m := prepared(t, domain.MapRow(), compiled)
	v, _, err := m.Row(0, []any{int64(1), int64(9)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"u.id": int64(1), "p.id": int64(9)}, v)
}

type UserDTO struct {
	FullName string `db:"fullname"`
	Username string
}

func TestMaterializer_Named(t *testing.T) {
	compiled := compile(t, "SELECT NEW UserDTO(u.fullname, u.username) FROM User u")

	t.Run("record", func(t *testing.T) {
		m := prepared(t, domain.NamedShape("UserDTO", []string{"fullname", "username"}, nil), compiled)
		v, _, err := m.Row(0, []any{"User 01", "user01"})
		require.NoError(t, err)
		rec := v.(*mapper.Record)
		assert.Equal(t, "user01", rec.Get("username"))
		assert.Equal(t, map[string]any{"fullname": "User 01", "username": "user01"}, rec.Map())
	})

	t.Run("bean", func(t *testing.T) {
		fields := []string{"fullname", "username"}
		m := prepared(t, domain.NamedShape("UserDTO", fields, mapper.MustBean[UserDTO](fields...)), compiled)
		v, _, err := m.Row(0, []any{"User 01", "user01"})
		require.NoError(t, err)
		assert.Equal(t, &UserDTO{FullName: "User 01", Username: "user01"}, v)
	})

	t.Run("field count", func(t *testing.T) {
		m := mapper.New(domain.NamedShape("UserDTO", []string{"fullname"}, nil), compiled, nil)
		assert.ErrorIs(t, m.Prepare(names(compiled)), domain.ErrShapeMismatch)
	})

	t.Run("bean rejects unknown fields", func(t *testing.T) {
		_, err := mapper.Bean[UserDTO]("email")
		assert.Error(t, err)
	})
}

func TestMaterializer_Entity(t *testing.T) {
	compiled := compile(t, "FROM User u")
	m := prepared(t, domain.EntitySpec("User"), compiled)

	v, _, err := m.Row(0, userRow(1, "user01"))
	require.NoError(t, err)
	user := v.(*mapper.Entity)
	assert.Equal(t, "User", user.Type)
	assert.Equal(t, int64(1), user.Get("id"))
	assert.Equal(t, created, user.Get("createdAt"))
	assert.Equal(t, []string{"id", "username", "password", "fullname", "createdAt", "modifiedAt"}, user.Order)

	wrong := mapper.New(domain.EntitySpec("Post"), compiled, schematest.Registry())
	assert.ErrorIs(t, wrong.Prepare(names(compiled)), domain.ErrShapeMismatch)
}

func TestMaterializer_EntityFromNativeColumns(t *testing.T) {
	stmt, err := native.New("SELECT * FROM users").Statement()
	require.NoError(t, err)
	c, err := compiler.NewSQLCompiler(domain.SQLite, schematest.Registry())
	require.NoError(t, err)
	compiled, err := c.Compile(stmt)
	require.NoError(t, err)

	m := mapper.New(domain.EntitySpec("User"), compiled, schematest.Registry())
	require.NoError(t, m.Prepare([]string{"id", "username", "password", "fullname", "created_at", "modified_at"}))
	v, _, err := m.Row(0, []any{int64(2), []byte("user02"), []byte("secret"), nil, "2021-03-01 09:00:00", created})
	require.NoError(t, err)
	user := v.(*mapper.Entity)
	assert.Equal(t, "user02", user.Get("username"))
	assert.Nil(t, user.Get("fullname"))
	assert.Equal(t, created.Add(time.Hour), user.Get("createdAt"))

	t.Run("unknown column", func(t *testing.T) {
		m := mapper.New(domain.EntitySpec("User"), compiled, schematest.Registry())
		assert.ErrorIs(t, m.Prepare([]string{"id", "email"}), domain.ErrShapeMismatch)
	})

	t.Run("missing column", func(t *testing.T) {
		m := mapper.New(domain.EntitySpec("User"), compiled, schematest.Registry())
		assert.ErrorIs(t, m.Prepare([]string{"id", "username"}), domain.ErrShapeMismatch)
	})
}

func TestMaterializer_EntityWithJoins(t *testing.T) {
	compiled := compile(t, "FROM User u LEFT JOIN u.userProfile p")
	m := prepared(t, domain.EntityWithJoins("User", "p"), compiled)

	v, _, err := m.Row(0, append(userRow(1, "user01"), int64(5), int64(1), "Hanoi", nil))
	require.NoError(t, err)
	pair := v.([]any)
	require.Len(t, pair, 2)
	assert.Equal(t, "Hanoi", pair[1].(*mapper.Entity).Get("address"))

	v, _, err = m.Row(1, append(userRow(2, "user02"), nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Nil(t, v.([]any)[1])
}

func TestMaterializer_DistinctRoot(t *testing.T) {
	compiled := compile(t, "FROM User u LEFT JOIN u.posts po LEFT JOIN u.userProfile p")
	m := prepared(t, domain.EntityWithJoins("User").DistinctRoot(), compiled)

	post := func(id int64, user int64) []any { return []any{id, user, "post"} }
	profile := []any{int64(3), int64(1), "Hanoi", "555"}
	rows := [][]any{
		append(append(userRow(1, "user01"), post(10, 1)...), profile...),
		append(append(userRow(1, "user01"), post(11, 1)...), profile...),
		append(append(userRow(2, "user02"), nil, nil, nil), nil, nil, nil, nil),
		append(append(userRow(1, "user01"), post(11, 1)...), profile...),
	}

	var roots []*mapper.Entity
	for i, r := range rows {
		v, emit, err := m.Row(i, r)
		require.NoError(t, err)
		if emit {
			roots = append(roots, v.(*mapper.Entity))
		}
	}

	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0].Get("id"))
	posts := roots[0].Many("posts")
	require.Len(t, posts, 2)
	assert.Equal(t, int64(10), posts[0].Get("id"))
	assert.Equal(t, int64(11), posts[1].Get("id"))
	assert.Equal(t, "Hanoi", roots[0].One("userProfile").Get("address"))

	assert.Empty(t, roots[1].Many("posts"))
	assert.Nil(t, roots[1].One("userProfile"))
}

func TestMaterializer_RowErrors(t *testing.T) {
	compiled := compile(t, "SELECT u.id FROM User u")
	m := prepared(t, domain.Scalar(), compiled)

	_, _, err := m.Row(4, []any{"not a number"})
	var shape *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 4, shape.Row)

	_, _, err = m.Row(5, []any{int64(1), int64(2)})
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestDecode(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		in   any
		typ  domain.LogicalType
		want any
	}{
		{name: "nil", in: nil, typ: domain.TypeInt, want: nil},
		{name: "bytes as string", in: []byte("abc"), typ: domain.TypeString, want: "abc"},
		{name: "bytes as any", in: []byte("abc"), typ: domain.TypeAny, want: "abc"},
		{name: "bytes as bytes", in: []byte("abc"), typ: domain.TypeBytes, want: []byte("abc")},
		{name: "text int", in: []byte("42"), typ: domain.TypeInt, want: int64(42)},
		{name: "integral float as int", in: float64(3), typ: domain.TypeInt, want: int64(3)},
		{name: "int as float", in: int64(2), typ: domain.TypeFloat, want: float64(2)},
		{name: "int as bool", in: int64(1), typ: domain.TypeBool, want: true},
		{name: "sqlite time", in: "2021-03-01 08:00:00+00:00", typ: domain.TypeTime, want: created},
		{name: "rfc3339 time", in: "2021-03-01T08:00:00Z", typ: domain.TypeTime, want: created},
		{name: "uuid text", in: id.String(), typ: domain.TypeUUID, want: id},
		{name: "uuid bytes", in: id[:], typ: domain.TypeUUID, want: id},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mapper.Decode(tt.in, tt.typ)
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := mapper.Decode("soon", domain.TypeTime)
	assert.Error(t, err)
	_, err = mapper.Decode(1.5, domain.TypeInt)
	assert.Error(t, err)
}

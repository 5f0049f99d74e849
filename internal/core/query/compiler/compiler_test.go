package compiler_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/builder"
	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/native"
	"github.com/satishbabariya/unisql/internal/core/query/template"
	"github.com/satishbabariya/unisql/internal/core/schema/schematest"
)

var allDialects = []domain.SQLDialect{domain.SQLite, domain.PostgreSQL, domain.MySQL}

func mustCompiler(t *testing.T, d domain.SQLDialect) *compiler.SQLCompiler {
	t.Helper()
	c, err := compiler.NewSQLCompiler(d, schematest.Registry())
	require.NoError(t, err)
	return c
}

func paged(t *testing.T, stmt *domain.Statement, offset, limit int) *domain.Statement {
	t.Helper()
	var err error
	if offset > 0 {
		stmt, err = stmt.WithOffset(offset)
		require.NoError(t, err)
	}
	if limit > 0 {
		stmt, err = stmt.WithLimit(limit)
		require.NoError(t, err)
	}
	return stmt
}

func TestCompile_Golden(t *testing.T) {
	registry := schematest.Registry()
	tpl := func(text string) *domain.Statement {
		return template.MustCompile(registry, text)
	}

	nativeStmt, err := native.New("SELECT * FROM users WHERE username LIKE :pattern;\n").Statement()
	require.NoError(t, err)

	cases := []struct {
		name string
		stmt *domain.Statement
	}{
		{
			name: "select_page",
			stmt: paged(t, tpl("SELECT u.username FROM User u WHERE u.id BETWEEN :lo AND :hi ORDER BY u.createdAt DESC, u.fullname"), 10, 5),
		},
		{
			name: "left_join",
			stmt: tpl("FROM User u LEFT JOIN u.userProfile p WHERE u.id = :id"),
		},
		{
			name: "group_having",
			stmt: tpl(`SELECT month(createdAt) AS month, COUNT(id) AS numberOfUser FROM User
				WHERE year(createdAt) = year(sysdate()) GROUP BY month(createdAt) HAVING COUNT(id) > 3`),
		},
		{
			name: "update",
			stmt: tpl("UPDATE User SET fullname = :fullname, password = :password WHERE id = :id"),
		},
		{
			name: "delete",
			stmt: tpl("DELETE FROM User WHERE month(createdAt) = :month"),
		},
		{
			name: "insert_select",
			stmt: tpl(`INSERT INTO User(fullname, username, password, createdAt, modifiedAt)
				SELECT fullname, CONCAT('copyOf', username), password, sysdate(), sysdate() FROM User`),
		},
		{
			name: "offset_only",
			stmt: paged(t, tpl("SELECT p.title FROM Post p"), 3, 0),
		},
		{
			name: "native_paged",
			stmt: paged(t, nativeStmt, 0, 2),
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".sql"),
	)
	for _, d := range allDialects {
		c := mustCompiler(t, d)
		for _, tc := range cases {
			t.Run(tc.name+"/"+string(d), func(t *testing.T) {
				compiled, err := c.Compile(tc.stmt)
				require.NoError(t, err)
				g.Assert(t, tc.name+"."+string(d), []byte(compiled.SQL+"\n"))
			})
		}
	}
}

func TestCompile_Slots(t *testing.T) {
	c := mustCompiler(t, domain.SQLite)
	stmt := template.MustCompile(schematest.Registry(),
		"SELECT u.username FROM User u WHERE u.id BETWEEN :lo AND 20 AND u.createdAt > ?1 ORDER BY u.id")
	stmt = paged(t, stmt, 4, 2)

	compiled, err := c.Compile(stmt)
	require.NoError(t, err)

	lo, pos := domain.Param{Name: "lo"}, domain.Param{Position: 1}
	assert.Equal(t, []binder.Slot{
		{Param: &lo, Type: domain.TypeInt, Target: "u.id"},
		{Value: int64(20), Type: domain.TypeInt, Target: "u.id"},
		{Param: &pos, Type: domain.TypeTime, Target: "u.createdAt"},
		{Value: int64(2), Type: domain.TypeInt, Target: "limit"},
		{Value: int64(4), Type: domain.TypeInt, Target: "offset"},
	}, compiled.Slots)
}

func TestCompile_Layout(t *testing.T) {
	c := mustCompiler(t, domain.SQLite)

	t.Run("entity spans", func(t *testing.T) {
		stmt := template.MustCompile(schematest.Registry(), "FROM User u LEFT JOIN u.userProfile p")
		compiled, err := c.Compile(stmt)
		require.NoError(t, err)
		require.Len(t, compiled.Spans, 2)
		assert.Equal(t, compiler.Span{Alias: "u", Entity: "User", Start: 0, End: 6}, compiled.Spans[0])
		assert.Equal(t, compiler.Span{Alias: "p", Entity: "UserProfile", Start: 6, End: 10,
			Owner: "u", Association: "userProfile", Join: domain.LeftJoin}, compiled.Spans[1])
		assert.Len(t, compiled.Columns, 10)
		assert.Equal(t, compiler.Column{Name: "createdAt", Alias: "u", Field: "createdAt", Type: domain.TypeTime, Span: 0}, compiled.Columns[4])
	})

	t.Run("fetch join adds a trailing span", func(t *testing.T) {
		stmt := template.MustCompile(schematest.Registry(), "FROM User u LEFT JOIN FETCH u.posts po")
		compiled, err := c.Compile(stmt)
		require.NoError(t, err)
		require.Len(t, compiled.Spans, 2)
		assert.True(t, compiled.Spans[1].Fetch)
		assert.Equal(t, "posts", compiled.Spans[1].Association)
	})

	t.Run("scalar columns", func(t *testing.T) {
		stmt := template.MustCompile(schematest.Registry(), "SELECT u.username, count(u) AS n, upper(u.fullname) FROM User u GROUP BY u.username")
		compiled, err := c.Compile(stmt)
		require.NoError(t, err)
		assert.Empty(t, compiled.Spans)
		require.Len(t, compiled.Columns, 3)
		assert.Equal(t, "username", compiled.Columns[0].Name)
		assert.Equal(t, "n", compiled.Columns[1].Name)
		assert.Equal(t, domain.TypeInt, compiled.Columns[1].Type)
		assert.Equal(t, "upper(u.fullname)", compiled.Columns[2].Name)
		assert.Contains(t, compiled.SQL, `COUNT("u"."id") AS "n"`)
	})

	t.Run("native spans", func(t *testing.T) {
		stmt, err := native.New("SELECT u.*, p.* FROM users u LEFT JOIN user_profile p ON p.user_id = u.id").
			AddEntity("u", "User").
			AddJoin("p", "u.userProfile").
			Statement()
		require.NoError(t, err)
		compiled, err := c.Compile(stmt)
		require.NoError(t, err)
		assert.True(t, compiled.Native)
		assert.Equal(t, "SELECT u.*, p.* FROM users u LEFT JOIN user_profile p ON p.user_id = u.id", compiled.SQL)
		require.Len(t, compiled.Spans, 2)
		assert.Equal(t, "UserProfile", compiled.Spans[1].Entity)
		assert.Equal(t, 6, compiled.Spans[1].Start)
	})
}

func TestCompile_StructuredMatchesTemplate(t *testing.T) {
	registry := schematest.Registry()
	qb := builder.NewQueryBuilder(registry, "User", "u")
	s := qb.Scope()
	structured, err := qb.
		Select("u.username").
		Where(builder.And(s.Equal("u.fullname", builder.Param("name")), s.GreaterThan("u.id", 3))).
		OrderBy("u.id", domain.Asc).
		Statement()
	require.NoError(t, err)
	templated := template.MustCompile(registry,
		"SELECT u.username FROM User u WHERE u.fullname = :name AND u.id > 3 ORDER BY u.id ASC")

	for _, d := range allDialects {
		c := mustCompiler(t, d)
		a, err := c.Compile(structured)
		require.NoError(t, err)
		b, err := c.Compile(templated)
		require.NoError(t, err)
		assert.Equal(t, b.SQL, a.SQL, d)

		params := new(binder.ParameterSet).Set("name", "User 04")
		argsA, err := binder.Bind(a.Slots, params)
		require.NoError(t, err)
		argsB, err := binder.Bind(b.Slots, params)
		require.NoError(t, err)
		assert.Equal(t, argsB, argsA, d)
	}
}

func TestCompile_Predicates(t *testing.T) {
	c := mustCompiler(t, domain.PostgreSQL)
	stmt := template.MustCompile(schematest.Registry(), `
		SELECT u.id FROM User u
		WHERE NOT (u.username LIKE :p OR u.fullname IS NULL) AND u.id NOT IN (1, 2, :x)`)
	compiled, err := c.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "u"."id" FROM "users" AS "u" WHERE (NOT (("u"."username" LIKE $1 OR "u"."fullname" IS NULL)) AND "u"."id" NOT IN ($2, $3, $4))`,
		compiled.SQL)
	assert.Len(t, compiled.Slots, 4)
}

func TestNewSQLCompiler_UnknownDialect(t *testing.T) {
	_, err := compiler.NewSQLCompiler(domain.SQLDialect("oracle"), schematest.Registry())
	assert.Error(t, err)
}

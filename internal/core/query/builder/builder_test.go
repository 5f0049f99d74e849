package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/builder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema/schematest"
)

func TestQueryBuilder_SelectWhereOrderPage(t *testing.T) {
	qb := builder.NewQueryBuilder(schematest.Registry(), "User", "u")
	s := qb.Scope()

	stmt, err := qb.
		Select("u.fullname").
		Where(s.Between("u.id", 1, 1000)).
		OrderBy("u.createdAt", domain.Desc).
		OrderBy("u.fullname", domain.Desc).
		Offset(10).
		Limit(5).
		Statement()
	require.NoError(t, err)

	assert.Equal(t, domain.KindQuery, stmt.Kind)
	assert.Equal(t, domain.Root{Entity: "User", Alias: "u"}, stmt.Root)
	require.Len(t, stmt.Projection.Items, 1)
	assert.Equal(t, domain.FieldRef{Alias: "u", Entity: "User", Field: "fullname", Column: "fullname", Type: domain.TypeString},
		stmt.Projection.Items[0].Expr)
	assert.Equal(t, "u.id BETWEEN 1 AND 1000", stmt.Where.String())
	assert.Equal(t, domain.Pagination{Offset: 10, Limit: 5}, stmt.Page)
	require.Len(t, stmt.Order, 2)
	assert.Equal(t, domain.Desc, stmt.Order[1].Direction)
}

func TestQueryBuilder_DefaultProjectionIsRoot(t *testing.T) {
	stmt, err := builder.NewQueryBuilder(schematest.Registry(), "User", "").Statement()
	require.NoError(t, err)
	assert.Equal(t, "User", stmt.Root.Alias)
	assert.Equal(t, []domain.SelectItem{{Expr: domain.EntityRef{Alias: "User", Entity: "User"}}}, stmt.Projection.Items)
}

func TestQueryBuilder_LiteralTakesFieldType(t *testing.T) {
	qb := builder.NewQueryBuilder(schematest.Registry(), "User", "u")
	stmt, err := qb.Where(qb.Scope().Equal("id", "1")).Statement()
	require.NoError(t, err)

	cmp := stmt.Where.(domain.Comparison)
	assert.Equal(t, domain.Literal{Value: "1", Type: domain.TypeInt}, cmp.Right[0])
}

func TestQueryBuilder_GroupByHaving(t *testing.T) {
	qb := builder.NewQueryBuilder(schematest.Registry(), "User", "")
	s := qb.Scope()
	month := s.Month("createdAt")

	stmt, err := qb.
		Select(month.As("month"), s.Count("id").As("numberOfUser")).
		Where(s.Equal(s.Year("createdAt"), s.Year(builder.CurrentTimestamp()))).
		GroupBy(month).
		Having(s.GreaterThan(s.Count("id"), 3)).
		OrderBy(s.Count("id"), domain.Desc).
		Statement()
	require.NoError(t, err)

	require.NotNil(t, stmt.Group)
	assert.Equal(t, "month(User.createdAt)", stmt.Group.Exprs[0].String())
	assert.Equal(t, "count(User.id) > 3", stmt.Group.Having.String())
	assert.Equal(t, "month", stmt.Projection.Items[0].Alias)
	assert.Equal(t, domain.TypeInt, stmt.Projection.Items[1].Expr.ResultType())
}

func TestQueryBuilder_Params(t *testing.T) {
	qb := builder.NewQueryBuilder(schematest.Registry(), "User", "u")
	s := qb.Scope()

	stmt, err := qb.
		Where(builder.Or(
			s.Equal("u.id", builder.Param("id")),
			s.Like("u.username", builder.Positional(1)),
			s.In("u.id", builder.Param("id"), 7),
		)).
		Statement()
	require.NoError(t, err)
	assert.Equal(t, []domain.Param{{Name: "id"}, {Position: 1}}, stmt.Placeholders)
}

func TestQueryBuilder_Joins(t *testing.T) {
	qb := builder.NewQueryBuilder(schematest.Registry(), "User", "u")
	stmt, err := qb.
		Join("u.userProfile", domain.LeftJoin, "p").
		Select("u", "p").
		Where(qb.Scope().IsNotNull("address")).
		Statement()
	require.NoError(t, err)

	require.Len(t, stmt.Joins, 1)
	assert.Equal(t, domain.JoinSpec{Source: "u", Association: "userProfile", Target: "UserProfile", Kind: domain.LeftJoin, Alias: "p"}, stmt.Joins[0])
	assert.Equal(t, "p.address IS NOT NULL", stmt.Where.String())
}

func TestQueryBuilder_SelectShape(t *testing.T) {
	qb := builder.NewQueryBuilder(schematest.Registry(), "User", "u")
	s := qb.Scope()
	stmt, err := qb.SelectShape("UserDTO", "u.fullname", s.Upper("u.username").As("username")).Statement()
	require.NoError(t, err)
	assert.Equal(t, &domain.ShapeDecl{Name: "UserDTO", Fields: []string{"fullname", "username"}}, stmt.Projection.Shape)

	_, err = builder.NewQueryBuilder(schematest.Registry(), "User", "u").
		SelectShape("UserDTO", s.Upper("u.username")).
		Statement()
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestQueryBuilder_Update(t *testing.T) {
	qb := builder.NewQueryBuilder(schematest.Registry(), "User", "")
	stmt, err := qb.Update().
		Set("fullname", builder.Param("fullname")).
		Set("password", "gpcoder.com").
		Where(qb.Scope().Equal("id", builder.Param("id"))).
		Statement()
	require.NoError(t, err)

	assert.Equal(t, domain.KindUpdate, stmt.Kind)
	require.Len(t, stmt.Set, 2)
	assert.Equal(t, domain.Literal{Value: "gpcoder.com", Type: domain.TypeString}, stmt.Set[1].Value)
	assert.Equal(t, []domain.Param{{Name: "fullname"}, {Name: "id"}}, stmt.Placeholders)
}

func TestQueryBuilder_Errors(t *testing.T) {
	registry := schematest.Registry()

	t.Run("unknown entity", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "Account", "a")
		assert.ErrorIs(t, qb.Err(), domain.ErrResolution)
		_, err := qb.Select("a.id").Statement()
		assert.ErrorIs(t, err, domain.ErrResolution)
	})

	t.Run("conditions through an unresolved root", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "Nope", "u")
		s := qb.Scope()
		require.NotNil(t, s)

		cond := s.Equal("id", 1)
		assert.ErrorIs(t, cond.Err(), domain.ErrResolution)
		assert.ErrorIs(t, s.Count("u.id").Err(), domain.ErrResolution)
		assert.ErrorIs(t, s.CountAll().Err(), domain.ErrResolution)
		assert.ErrorIs(t, s.Entity("u").Err(), domain.ErrResolution)
		_, err := s.Join("u.posts", domain.LeftJoin, "p", false)
		assert.ErrorIs(t, err, domain.ErrResolution)

		_, err = qb.Where(cond).Statement()
		var resolution *domain.ResolutionError
		require.ErrorAs(t, err, &resolution)
		assert.Equal(t, "Nope", resolution.Name)
	})

	t.Run("nil scope", func(t *testing.T) {
		var s *builder.Scope
		assert.ErrorIs(t, s.Equal("u.id", 1).Err(), domain.ErrResolution)
		assert.ErrorIs(t, s.Field("u.id").Err(), domain.ErrResolution)
		assert.Empty(t, s.Joins())
	})

	t.Run("unknown field surfaces at the call", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "User", "u")
		cond := qb.Scope().Equal("u.email", "x")
		var resolution *domain.ResolutionError
		require.ErrorAs(t, cond.Err(), &resolution)
		assert.Equal(t, "email", resolution.Name)

		qb.Where(cond)
		assert.Error(t, qb.Err())
	})

	t.Run("first error wins", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "User", "u")
		qb.Select("u.nope").Join("u.missing", domain.InnerJoin, "m")
		var resolution *domain.ResolutionError
		require.ErrorAs(t, qb.Err(), &resolution)
		assert.Equal(t, "nope", resolution.Name)
	})

	t.Run("arity", func(t *testing.T) {
		s := builder.NewQueryBuilder(registry, "User", "u").Scope()
		assert.Error(t, s.In("u.id").Err())
		assert.Error(t, s.Compare("u.id", domain.OpBetween, 1).Err())
		assert.Error(t, builder.And().Err())
		assert.Error(t, s.Func("month").Err())
		assert.ErrorIs(t, s.Func("soundex", "x").Err(), domain.ErrResolution)
	})

	t.Run("alias collision", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "User", "u")
		qb.Join("u.userProfile", domain.LeftJoin, "u")
		assert.ErrorIs(t, qb.Err(), domain.ErrResolution)
	})

	t.Run("bare fields", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "User", "u").
			Join("u.userProfile", domain.LeftJoin, "p").
			Join("u.posts", domain.LeftJoin, "po")
		require.NoError(t, qb.Err())
		s := qb.Scope()

		// id lives on the root, address only on p, userId on both joins.
		assert.NoError(t, s.IsNull("id").Err())
		assert.Equal(t, "p.address IS NULL", s.IsNull("address").String())
		assert.ErrorIs(t, s.IsNull("userId").Err(), domain.ErrResolution)
		assert.ErrorIs(t, s.IsNull("u.userProfile.address").Err(), domain.ErrResolution)
	})

	t.Run("pagination on DML", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "User", "u").Delete().Limit(3)
		assert.ErrorIs(t, qb.Err(), domain.ErrUnsupportedOperation)

		qb = builder.NewQueryBuilder(registry, "User", "u").Offset(2).Update()
		assert.ErrorIs(t, qb.Err(), domain.ErrUnsupportedOperation)
	})

	t.Run("having without group by", func(t *testing.T) {
		qb := builder.NewQueryBuilder(registry, "User", "u")
		qb.Having(qb.Scope().GreaterThan(qb.Scope().CountAll(), 1))
		assert.ErrorIs(t, qb.Err(), domain.ErrUnsupportedOperation)
	})

	t.Run("update needs assignments", func(t *testing.T) {
		_, err := builder.NewQueryBuilder(registry, "User", "u").Update().Statement()
		assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	})
}

func TestCondsAreReusable(t *testing.T) {
	registry := schematest.Registry()
	s := builder.NewQueryBuilder(registry, "User", "u").Scope()
	cond := builder.And(s.GreaterThan("u.id", 3), builder.Not(s.IsNull("u.fullname")))

	a, err := builder.NewQueryBuilder(registry, "User", "u").Where(cond).Statement()
	require.NoError(t, err)
	b, err := builder.NewQueryBuilder(registry, "User", "u").Where(cond).Limit(1).Statement()
	require.NoError(t, err)
	assert.Equal(t, a.Where, b.Where)
}

package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
	"github.com/satishbabariya/unisql/internal/core/schema/schematest"
)

func TestMetadataRegistry(t *testing.T) {
	registry := schematest.Registry()

	t.Run("Entity", func(t *testing.T) {
		user, err := registry.Entity("User")
		require.NoError(t, err)
		assert.Equal(t, "users", user.Table)
		assert.Len(t, user.Fields, 6)

		_, err = registry.Entity("Nope")
		assert.ErrorIs(t, err, domain.ErrResolution)
	})

	t.Run("Field", func(t *testing.T) {
		f, err := registry.Field("User", "createdAt")
		require.NoError(t, err)
		assert.Equal(t, "created_at", f.Column)
		assert.Equal(t, domain.TypeTime, f.Type)

		_, err = registry.Field("User", "email")
		var resolution *domain.ResolutionError
		require.ErrorAs(t, err, &resolution)
		assert.Equal(t, "field", resolution.Kind)
		assert.Equal(t, "email", resolution.Name)
	})

	t.Run("Association", func(t *testing.T) {
		a, err := registry.Association("User", "posts")
		require.NoError(t, err)
		assert.Equal(t, "Post", a.Target)
		assert.True(t, a.Kind.IsCollection())

		_, err = registry.Association("User", "comments")
		assert.ErrorIs(t, err, domain.ErrResolution)
	})

	t.Run("Entities sorted", func(t *testing.T) {
		var names []string
		for _, e := range registry.Entities() {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"Post", "User", "UserProfile"}, names)
	})
}

func TestMetadataRegistry_Defaults(t *testing.T) {
	registry := schema.NewMetadataRegistry()
	require.NoError(t, registry.Register(schema.Entity{
		Name:   "Tag",
		Fields: []schema.Field{{Name: "label"}},
	}))

	tag, err := registry.Entity("Tag")
	require.NoError(t, err)
	assert.Equal(t, "Tag", tag.Table)
	assert.Equal(t, "label", tag.Fields[0].Column)
	assert.Equal(t, domain.TypeAny, tag.Fields[0].Type)
	assert.Equal(t, "label", tag.IDFields()[0].Name)
}

func TestMetadataRegistry_Validate(t *testing.T) {
	registry := schema.NewMetadataRegistry()
	require.NoError(t, registry.Register(schema.Entity{
		Name:   "Post",
		Fields: []schema.Field{{Name: "id", ID: true}},
		Associations: []schema.Association{
			{Name: "author", Target: "User", Kind: schema.ManyToOne, LocalColumn: "user_id", TargetColumn: "id"},
		},
	}))
	assert.ErrorContains(t, registry.Validate(), "unknown entity User")

	err := registry.Register(schema.Entity{
		Name:   "Dup",
		Fields: []schema.Field{{Name: "a"}, {Name: "a"}},
	})
	assert.ErrorContains(t, err, "duplicate field")
}

func TestLoadYAML(t *testing.T) {
	registry, err := schema.LoadYAML(strings.NewReader(schematest.MappingYAML))
	require.NoError(t, err)

	user, err := registry.Entity("User")
	require.NoError(t, err)
	want, _ := schematest.Registry().Entity("User")
	assert.Equal(t, want, user)
}

func TestLoadYAML_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing version",
			doc:  "entities: []\n",
			want: "version is required",
		},
		{
			name: "unsupported version",
			doc:  "version: \"2.1\"\nentities: []\n",
			want: "not supported",
		},
		{
			name: "unknown key",
			doc:  "version: \"1.0\"\nentitys: []\n",
			want: "failed to parse",
		},
		{
			name: "unknown type",
			doc:  "version: \"1.0\"\nentities:\n  - name: A\n    fields:\n      - {name: x, type: money}\n",
			want: "unknown logical type",
		},
		{
			name: "duplicate entity",
			doc:  "version: \"1.0\"\nentities:\n  - {name: A, fields: [{name: x, type: int}]}\n  - {name: A, fields: [{name: x, type: int}]}\n",
			want: "duplicate entity",
		},
		{
			name: "bad association kind",
			doc:  "version: \"1.0\"\nentities:\n  - name: A\n    fields: [{name: id, type: int}]\n    associations: [{name: b, target: A, kind: many-to-many, localColumn: id, targetColumn: id}]\n",
			want: "unknown kind",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.LoadYAML(strings.NewReader(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

package prompt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/prompt"
)

var slots = []binder.Slot{
	binder.PlaceholderSlot(domain.Param{Name: "id"}, domain.TypeInt, "u.id"),
	binder.ValueSlot("user%", domain.TypeString, "u.username"),
	binder.PlaceholderSlot(domain.Param{Name: "since"}, domain.TypeTime, "u.createdAt"),
	binder.PlaceholderSlot(domain.Param{Name: "id"}, domain.TypeInt, "p.userId"),
	binder.PlaceholderSlot(domain.Param{Position: 1}, domain.TypeAny, ""),
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		text string
		typ  domain.LogicalType
		want any
	}{
		{"42", domain.TypeInt, int64(42)},
		{"42", domain.TypeAny, int64(42)},
		{"4.5", domain.TypeAny, 4.5},
		{"user01", domain.TypeAny, "user01"},
		{"42", domain.TypeString, "42"},
		{"true", domain.TypeBool, true},
		{"NULL", domain.TypeInt, nil},
		{"2024-03-01T00:00:00Z", domain.TypeTime, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := prompt.ParseValue(tt.text, tt.typ)
		require.NoError(t, err, "%s as %s", tt.text, tt.typ)
		assert.Equal(t, tt.want, got, "%s as %s", tt.text, tt.typ)
	}

	_, err := prompt.ParseValue("x", domain.TypeInt)
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestParseAssignments(t *testing.T) {
	params, err := prompt.ParseAssignments([]string{"id=7", ":since=2024-03-01T00:00:00Z", "1=abc"}, slots)
	require.NoError(t, err)

	v, ok := params.Lookup(domain.Param{Name: "id"})
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
	v, _ = params.Lookup(domain.Param{Name: "since"})
	assert.IsType(t, time.Time{}, v)
	v, _ = params.Lookup(domain.Param{Position: 1})
	assert.Equal(t, "abc", v)

	for _, bad := range []string{"novalue", "=3", "0=1", "id=seven"} {
		_, err := prompt.ParseAssignments([]string{bad}, slots)
		assert.Error(t, err, bad)
	}
}

func TestMissing(t *testing.T) {
	params := (&binder.ParameterSet{}).Set("since", time.Now())
	assert.Equal(t, []domain.Param{{Name: "id"}, {Position: 1}}, prompt.Missing(slots, params))
	assert.Len(t, prompt.Missing(slots, nil), 3)
}

type answers map[string]string

func (a answers) Ask(p domain.Param, _ domain.LogicalType) (string, error) {
	if v, ok := a[p.Key()]; ok {
		return v, nil
	}
	return "", errors.New("interrupted")
}

func TestFill(t *testing.T) {
	given := (&binder.ParameterSet{}).Set("since", time.Now())

	filled, err := prompt.Fill(slots, given, answers{":id": "3", "?1": "null"})
	require.NoError(t, err)
	assert.Equal(t, 1, given.Len())
	assert.Equal(t, 3, filled.Len())
	v, _ := filled.Lookup(domain.Param{Name: "id"})
	assert.Equal(t, int64(3), v)

	_, err = binder.Bind(slots, filled)
	require.NoError(t, err)

	_, err = prompt.Fill(slots, given, answers{":id": "3"})
	assert.Error(t, err)

	_, err = prompt.Fill(slots, given, answers{":id": "three", "?1": "x"})
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}

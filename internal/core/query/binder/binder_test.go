package binder_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

func TestBind_OrdersArgsBySlot(t *testing.T) {
	slots := []binder.Slot{
		binder.PlaceholderSlot(domain.Param{Name: "fullname"}, domain.TypeString, "fullname"),
		binder.PlaceholderSlot(domain.Param{Name: "password"}, domain.TypeString, "password"),
		binder.PlaceholderSlot(domain.Param{Name: "id"}, domain.TypeInt, "id"),
		binder.ValueSlot(5, domain.TypeInt, "limit"),
		binder.PlaceholderSlot(domain.Param{Name: "id"}, domain.TypeInt, "id"),
	}
	params := (&binder.ParameterSet{}).
		Set("fullname", "GP CODER").
		Set("password", "gpcoder.com").
		Set("id", 1)

	args, err := binder.Bind(slots, params)
	require.NoError(t, err)
	assert.Equal(t, []any{"GP CODER", "gpcoder.com", int64(1), int64(5), int64(1)}, args)
}

func TestBind_Positional(t *testing.T) {
	slots := []binder.Slot{
		binder.PlaceholderSlot(domain.Param{Position: 2}, domain.TypeString, ""),
		binder.PlaceholderSlot(domain.Param{Position: 1}, domain.TypeInt, ""),
	}
	params := (&binder.ParameterSet{}).SetPositional(1, int32(7)).SetPositional(2, "x")

	args, err := binder.Bind(slots, params)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", int64(7)}, args)
}

func TestBind_MissingPlaceholder(t *testing.T) {
	slots := []binder.Slot{binder.PlaceholderSlot(domain.Param{Name: "id"}, domain.TypeInt, "u.id")}

	_, err := binder.Bind(slots, nil)
	require.ErrorIs(t, err, domain.ErrUnknownPlaceholder)

	var unknown *domain.UnknownPlaceholderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "id", unknown.Name)
	assert.False(t, unknown.Unreferenced)
}

func TestBind_UnreferencedParameter(t *testing.T) {
	slots := []binder.Slot{binder.PlaceholderSlot(domain.Param{Name: "id"}, domain.TypeInt, "u.id")}
	params := (&binder.ParameterSet{}).Set("id", 1).Set("idd", 2)

	_, err := binder.Bind(slots, params)
	var unknown *domain.UnknownPlaceholderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "idd", unknown.Name)
	assert.True(t, unknown.Unreferenced)

	params = (&binder.ParameterSet{}).Set("id", 1).SetPositional(3, "x")
	_, err = binder.Bind(slots, params)
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 3, unknown.Position)
}

func TestBind_TypeMismatchNamesTarget(t *testing.T) {
	slots := []binder.Slot{binder.PlaceholderSlot(domain.Param{Name: "id"}, domain.TypeInt, "u.id")}
	params := (&binder.ParameterSet{}).Set("id", "1")

	_, err := binder.Bind(slots, params)
	require.ErrorIs(t, err, domain.ErrTypeMismatch)

	var mismatch *domain.TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "u.id", mismatch.Target)
	assert.Equal(t, domain.TypeInt, mismatch.Expected)
}

type status string

type celsius float64

func TestEncode(t *testing.T) {
	now := time.Date(2021, 11, 21, 10, 0, 0, 0, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	n := 42

	tests := []struct {
		name  string
		value any
		typ   domain.LogicalType
		want  any
	}{
		{"string", "a", domain.TypeString, "a"},
		{"named string", status("active"), domain.TypeString, "active"},
		{"int", 3, domain.TypeInt, int64(3)},
		{"uint8", uint8(3), domain.TypeInt, int64(3)},
		{"int widened to float", 3, domain.TypeFloat, float64(3)},
		{"named float", celsius(21.5), domain.TypeFloat, 21.5},
		{"bool", true, domain.TypeBool, true},
		{"time", now, domain.TypeTime, now},
		{"bytes", []byte("ab"), domain.TypeBytes, []byte("ab")},
		{"uuid", id, domain.TypeUUID, id.String()},
		{"uuid string", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", domain.TypeUUID, id.String()},
		{"nil", nil, domain.TypeInt, nil},
		{"pointer", &n, domain.TypeInt, int64(42)},
		{"nil pointer", (*int)(nil), domain.TypeInt, nil},
		{"valuer", sql.NullString{String: "x", Valid: true}, domain.TypeString, "x"},
		{"null valuer", sql.NullInt64{}, domain.TypeInt, nil},
		{"any", 1.5, domain.TypeAny, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := binder.Encode(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_RejectsIncompatible(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   domain.LogicalType
	}{
		{"string into int", "12", domain.TypeInt},
		{"float into int", 1.5, domain.TypeInt},
		{"int into string", 12, domain.TypeString},
		{"int into bool", 1, domain.TypeBool},
		{"string into time", "2021-01-01", domain.TypeTime},
		{"bad uuid", "not-a-uuid", domain.TypeUUID},
		{"slice", []int{1, 2}, domain.TypeInt},
		{"slice into any", []string{"a"}, domain.TypeAny},
		{"map", map[string]int{}, domain.TypeAny},
		{"huge uint", uint64(1 << 63), domain.TypeInt},
		{"bytes into string", []byte("a"), domain.TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := binder.Encode(tt.value, tt.typ)
			assert.ErrorIs(t, err, domain.ErrTypeMismatch)
		})
	}
}

func TestParameterSet(t *testing.T) {
	var params binder.ParameterSet
	params.Set("b", 1).Set("a", 2).SetPositional(2, "x")

	assert.Equal(t, []string{"a", "b"}, params.Names())
	assert.Equal(t, []int{2}, params.Positions())
	assert.Equal(t, 3, params.Len())

	clone := params.Clone()
	clone.Set("c", 3)
	assert.Equal(t, 3, params.Len())
	assert.Equal(t, 4, clone.Len())

	v, ok := params.Lookup(domain.Param{Position: 2})
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

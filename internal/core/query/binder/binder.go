package binder

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Slot is one driver argument of a compiled statement, in SQL order. It either
// references a placeholder or carries an inline value (a literal written in a
// template, a builder value, a pagination bound).
type Slot struct {
	Param *domain.Param
	Value any
	// Type is the logical type the value must be compatible with.
	Type domain.LogicalType
	// Target names the expression the slot is compared with or assigned to.
	Target string
}

// PlaceholderSlot returns a slot for p.
func PlaceholderSlot(p domain.Param, t domain.LogicalType, target string) Slot {
	return Slot{Param: &p, Type: t, Target: target}
}

// ValueSlot returns a slot carrying an inline value.
func ValueSlot(v any, t domain.LogicalType, target string) Slot {
	return Slot{Value: v, Type: t, Target: target}
}

// Bind resolves every slot against params and returns the encoded driver
// arguments. It fails before returning any argument when a placeholder has no
// value, a supplied parameter matches no placeholder, or a value is incompatible
// with its slot type. Neither slots nor params are modified.
func Bind(slots []Slot, params *ParameterSet) ([]any, error) {
	args := make([]any, len(slots))
	usedNames := make(map[string]bool)
	usedPositions := make(map[int]bool)

	for i, slot := range slots {
		var (
			v      any
			target = slot.Target
		)
		if slot.Param != nil {
			p := *slot.Param
			value, ok := params.Lookup(p)
			if !ok {
				return nil, &domain.UnknownPlaceholderError{Name: p.Name, Position: p.Position}
			}
			if p.Name != "" {
				usedNames[p.Name] = true
			} else {
				usedPositions[p.Position] = true
			}
			v = value
			if target == "" {
				target = p.Key()
			}
		} else {
			v = slot.Value
		}

		encoded, err := Encode(v, slot.Type)
		if err != nil {
			if tm, ok := err.(*domain.TypeMismatchError); ok {
				tm.Target = target
			}
			return nil, err
		}
		args[i] = encoded
	}

	for _, name := range params.Names() {
		if !usedNames[name] {
			return nil, &domain.UnknownPlaceholderError{Name: name, Unreferenced: true}
		}
	}
	for _, pos := range params.Positions() {
		if !usedPositions[pos] {
			return nil, &domain.UnknownPlaceholderError{Position: pos, Unreferenced: true}
		}
	}
	return args, nil
}

var timeType = reflect.TypeOf(time.Time{})

// Encode checks v against the logical type t and returns the driver value.
// nil binds NULL for every type. No value is ever narrowed: an integer slot
// never accepts a float and a string slot never accepts a number.
func Encode(v any, t domain.LogicalType) (any, error) {
	if v == nil {
		return nil, nil
	}
	if t == "" {
		t = domain.TypeAny
	}

	switch x := v.(type) {
	case uuid.UUID:
		if t == domain.TypeUUID || t == domain.TypeString || t == domain.TypeAny {
			return x.String(), nil
		}
		return nil, mismatch(t, v)
	case time.Time:
		if t == domain.TypeTime || t == domain.TypeAny {
			return x, nil
		}
		return nil, mismatch(t, v)
	case []byte:
		if t == domain.TypeBytes || t == domain.TypeAny {
			return x, nil
		}
		return nil, mismatch(t, v)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return nil, &domain.TypeMismatchError{Expected: t, Value: v, Cause: err}
		}
		return Encode(dv, t)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		return Encode(rv.Elem().Interface(), t)
	}

	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		switch t {
		case domain.TypeString, domain.TypeAny:
			return s, nil
		case domain.TypeUUID:
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, mismatch(t, v)
			}
			return id.String(), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		switch t {
		case domain.TypeInt, domain.TypeAny:
			return n, nil
		case domain.TypeFloat:
			return float64(n), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		switch t {
		case domain.TypeInt, domain.TypeAny:
			if n > math.MaxInt64 {
				return nil, mismatch(t, v)
			}
			return int64(n), nil
		case domain.TypeFloat:
			return float64(n), nil
		}
	case reflect.Float32, reflect.Float64:
		if t == domain.TypeFloat || t == domain.TypeAny {
			return rv.Float(), nil
		}
	case reflect.Bool:
		if t == domain.TypeBool || t == domain.TypeAny {
			return rv.Bool(), nil
		}
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) && (t == domain.TypeTime || t == domain.TypeAny) {
			return rv.Convert(timeType).Interface(), nil
		}
	}
	return nil, mismatch(t, v)
}

func mismatch(t domain.LogicalType, v any) error {
	return &domain.TypeMismatchError{Expected: t, Value: v}
}

// Describe renders args for logs, truncating long values.
func Describe(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		s := fmt.Sprintf("%v", a)
		if b, ok := a.([]byte); ok {
			s = fmt.Sprintf("<%d bytes>", len(b))
		}
		if len(s) > 64 {
			s = s[:61] + "..."
		}
		out[i] = s
	}
	return out
}

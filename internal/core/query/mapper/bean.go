package mapper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Bean returns a Constructor that fills a new T from the values of a named
// shape. Each declared field is matched to a struct field by its `db` or
// `json` tag, then by case-insensitive name. Fields with no match are
// rejected when the constructor is built.
func Bean[T any](fields ...string) (domain.Constructor, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("bean type %s is not a struct", typ)
	}

	index := make([][]int, len(fields))
	for i, name := range fields {
		sf, ok := findField(typ, name)
		if !ok {
			return nil, fmt.Errorf("bean type %s has no field for %q", typ, name)
		}
		index[i] = sf.Index
	}

	return func(values []any) (any, error) {
		if len(values) != len(index) {
			return nil, fmt.Errorf("got %d values for %d fields", len(values), len(index))
		}
		ptr := reflect.New(typ)
		for i, v := range values {
			if err := setFieldValue(ptr.Elem().FieldByIndex(index[i]), v); err != nil {
				return nil, fmt.Errorf("field %s: %w", fields[i], err)
			}
		}
		return ptr.Interface(), nil
	}, nil
}

// MustBean is like Bean but panics on error.
func MustBean[T any](fields ...string) domain.Constructor {
	c, err := Bean[T](fields...)
	if err != nil {
		panic(err)
	}
	return c
}

func findField(typ reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		if tagName(f) == name {
			return f, true
		}
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func tagName(f reflect.StructField) string {
	if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
		return tag
	}
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		name, _, _ := strings.Cut(tag, ",")
		return name
	}
	return ""
}

// setFieldValue assigns a decoded value, converting between numeric kinds.
func setFieldValue(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	ft := field.Type()
	if ft.Kind() == reflect.Ptr {
		ptr := reflect.New(ft.Elem())
		if err := setFieldValue(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	if v.Type().AssignableTo(ft) {
		field.Set(v)
		return nil
	}
	switch ft.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		switch v.Kind() {
		case reflect.Int64, reflect.Float64:
			field.Set(v.Convert(ft))
			return nil
		}
	case reflect.String:
		if v.Kind() == reflect.String {
			field.SetString(v.String())
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", value, ft)
}

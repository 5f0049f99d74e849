// Package prompt turns command-line text into parameter values and asks for
// placeholders that were not given.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/mapper"
)

// Types returns the logical type expected by each placeholder, keyed by
// placeholder key (":name" or "?n"). A placeholder used in several places
// takes the first specific type.
func Types(slots []binder.Slot) map[string]domain.LogicalType {
	types := make(map[string]domain.LogicalType)
	for _, s := range slots {
		if s.Param == nil {
			continue
		}
		key := s.Param.Key()
		if t, ok := types[key]; !ok || t == domain.TypeAny {
			types[key] = s.Type
		}
	}
	return types
}

// ParseValue converts text to a value of type t. The text "null" is NULL.
// For TypeAny, integers and floats are recognised and anything else stays
// text.
func ParseValue(text string, t domain.LogicalType) (any, error) {
	if strings.EqualFold(text, "null") {
		return nil, nil
	}
	if t == "" || t == domain.TypeAny {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, nil
		}
		return text, nil
	}
	v, err := mapper.Decode(text, t)
	if err != nil {
		return nil, &domain.TypeMismatchError{Expected: t, Value: text, Cause: err}
	}
	return v, nil
}

// ParseAssignments parses "name=value" and "n=value" pairs into a parameter
// set; a numeric name binds the positional placeholder ?n. Values are
// converted to the type their placeholder expects in slots.
func ParseAssignments(assignments []string, slots []binder.Slot) (*binder.ParameterSet, error) {
	types := Types(slots)
	params := &binder.ParameterSet{}
	for _, a := range assignments {
		name, text, ok := strings.Cut(a, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", a)
		}

		param := domain.Param{Name: name}
		if pos, err := strconv.Atoi(strings.TrimPrefix(name, "?")); err == nil {
			if pos < 1 {
				return nil, fmt.Errorf("invalid parameter %q: positions start at 1", a)
			}
			param = domain.Param{Position: pos}
		}

		v, err := ParseValue(text, types[param.Key()])
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", param.Key(), err)
		}
		if param.Name != "" {
			params.Set(param.Name, v)
		} else {
			params.SetPositional(param.Position, v)
		}
	}
	return params, nil
}

// Missing returns the placeholders in slots that params does not bind, in
// first-use order.
func Missing(slots []binder.Slot, params *binder.ParameterSet) []domain.Param {
	var missing []domain.Param
	seen := make(map[string]bool)
	for _, s := range slots {
		if s.Param == nil || seen[s.Param.Key()] {
			continue
		}
		seen[s.Param.Key()] = true
		if _, ok := params.Lookup(*s.Param); !ok {
			missing = append(missing, *s.Param)
		}
	}
	return missing
}

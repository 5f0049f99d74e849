// Package binder validates parameter values against the placeholders of a
// compiled statement and encodes them as driver arguments.
package binder

import (
	"sort"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// ParameterSet maps placeholder names and 1-based positions to values.
// The zero value is an empty set ready to use.
type ParameterSet struct {
	named      map[string]any
	positional map[int]any
}

// Set records the value of the named placeholder ":name".
func (p *ParameterSet) Set(name string, v any) *ParameterSet {
	if p.named == nil {
		p.named = make(map[string]any)
	}
	p.named[name] = v
	return p
}

// SetPositional records the value of the positional placeholder "?pos".
func (p *ParameterSet) SetPositional(pos int, v any) *ParameterSet {
	if p.positional == nil {
		p.positional = make(map[int]any)
	}
	p.positional[pos] = v
	return p
}

// Lookup returns the value bound to a placeholder.
func (p *ParameterSet) Lookup(param domain.Param) (any, bool) {
	if p == nil {
		return nil, false
	}
	if param.Name != "" {
		v, ok := p.named[param.Name]
		return v, ok
	}
	v, ok := p.positional[param.Position]
	return v, ok
}

// Names returns the bound names in sorted order.
func (p *ParameterSet) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.named))
	for n := range p.named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Positions returns the bound positions in ascending order.
func (p *ParameterSet) Positions() []int {
	if p == nil {
		return nil
	}
	out := make([]int, 0, len(p.positional))
	for pos := range p.positional {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of bound values.
func (p *ParameterSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.named) + len(p.positional)
}

// Clone returns an independent copy.
func (p *ParameterSet) Clone() *ParameterSet {
	c := &ParameterSet{}
	if p == nil {
		return c
	}
	for k, v := range p.named {
		c.Set(k, v)
	}
	for k, v := range p.positional {
		c.SetPositional(k, v)
	}
	return c
}

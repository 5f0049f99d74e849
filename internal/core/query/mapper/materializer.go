// Package mapper materializes result rows into the shape a caller asked for.
package mapper

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// Materializer turns driver rows into values of one MaterializationSpec.
// It is not safe for concurrent use; one result set owns one materializer.
type Materializer struct {
	spec     domain.MaterializationSpec
	compiled *compiler.Compiled
	metadata schema.Provider

	columns []compiler.Column
	keys    []string // map keys for MapRow

	// Entity shape over unspanned columns: field name per column.
	entity  *schema.Entity
	fieldAt []string

	// Entity-span layouts.
	root    int
	joined  []int
	fetched []int
	many    map[int]bool                  // span index -> collection association
	seen    map[string]map[string]*Entity // alias -> id -> canonical instance
}

// New returns a materializer for compiled results. Prepare must be called
// with the driver's column names before the first Row.
func New(spec domain.MaterializationSpec, compiled *compiler.Compiled, metadata schema.Provider) *Materializer {
	return &Materializer{spec: spec, compiled: compiled, metadata: metadata, root: -1}
}

// Spec returns the materialization spec.
func (m *Materializer) Spec() domain.MaterializationSpec { return m.spec }

func (m *Materializer) mismatch(row int, format string, args ...any) error {
	return &domain.ShapeMismatchError{Shape: m.spec.Kind, Row: row, Msg: fmt.Sprintf(format, args...)}
}

// Prepare checks the spec against the result columns. Every error it returns
// is a construction-time ShapeMismatchError.
func (m *Materializer) Prepare(driverColumns []string) error {
	if err := m.spec.Validate(); err != nil {
		return err
	}
	m.columns = m.compiled.Columns
	if len(m.columns) == 0 {
		m.columns = make([]compiler.Column, len(driverColumns))
		for i, name := range driverColumns {
			m.columns[i] = compiler.Column{Name: name, Type: domain.TypeAny, Span: -1}
		}
	} else if len(driverColumns) != len(m.columns) {
		return m.mismatch(-1, "statement returned %d columns, %d expected", len(driverColumns), len(m.columns))
	}

	switch m.spec.Kind {
	case domain.ShapeScalar:
		if len(m.columns) != 1 {
			return m.mismatch(-1, "scalar needs exactly one column, got %d", len(m.columns))
		}
	case domain.ShapeNamed:
		if len(m.spec.Fields) != len(m.columns) {
			return m.mismatch(-1, "%s declares %d fields for %d columns", m.spec.Name, len(m.spec.Fields), len(m.columns))
		}
	case domain.ShapeMapRow:
		m.keys = mapKeys(m.columns)
	case domain.ShapeEntity:
		return m.prepareEntity()
	case domain.ShapeEntityWithJoins:
		return m.prepareJoins()
	}
	return nil
}

func mapKeys(columns []compiler.Column) []string {
	count := make(map[string]int, len(columns))
	for _, c := range columns {
		count[c.Name]++
	}
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Name
		if count[c.Name] > 1 && c.Alias != "" {
			keys[i] = c.Alias + "." + c.Name
		}
	}
	return keys
}

func (m *Materializer) prepareEntity() error {
	spans := m.compiled.Spans
	if len(spans) == 0 {
		return m.prepareUnspanned()
	}
	for i, s := range spans {
		switch {
		case s.Fetch:
			m.fetched = append(m.fetched, i)
		case m.root < 0:
			m.root = i
		default:
			return m.mismatch(-1, "projection holds more than one entity")
		}
	}
	if m.root < 0 {
		return m.mismatch(-1, "projection holds no entity")
	}
	if spans[m.root].Entity != m.spec.Entity {
		return m.mismatch(-1, "projection holds %s, not %s", spans[m.root].Entity, m.spec.Entity)
	}
	if covered := m.spanWidth(append([]int{m.root}, m.fetched...)); covered != len(m.columns) {
		return m.mismatch(-1, "projection has %d columns outside the entity", len(m.columns)-covered)
	}
	return m.prepareAssociations(m.fetched)
}

// prepareUnspanned maps result columns onto entity fields by column or field name.
func (m *Materializer) prepareUnspanned() error {
	if m.metadata == nil {
		return m.mismatch(-1, "no metadata to resolve %s", m.spec.Entity)
	}
	e, err := m.metadata.Entity(m.spec.Entity)
	if err != nil {
		return m.mismatch(-1, "%v", err)
	}
	m.entity = e
	m.fieldAt = make([]string, len(m.columns))
	found := make(map[string]bool, len(e.Fields))
	for i, c := range m.columns {
		f, ok := e.FieldByColumn(c.Name)
		if !ok {
			f, ok = e.Field(c.Name)
		}
		if !ok {
			return m.mismatch(-1, "column %q is not a field of %s", c.Name, e.Name)
		}
		m.fieldAt[i] = f.Name
		m.columns[i].Type = f.Type
		found[f.Name] = true
	}
	for _, f := range e.Fields {
		if !found[f.Name] {
			return m.mismatch(-1, "column for %s.%s is missing", e.Name, f.Name)
		}
	}
	return nil
}

func (m *Materializer) prepareJoins() error {
	spans := m.compiled.Spans
	for i, s := range spans {
		if s.Owner == "" && s.Entity == m.spec.Entity {
			m.root = i
			break
		}
	}
	if m.root < 0 {
		return m.mismatch(-1, "projection holds no %s root", m.spec.Entity)
	}

	if len(m.spec.Joins) > 0 {
		for _, alias := range m.spec.Joins {
			idx := -1
			for i, s := range spans {
				if s.Alias == alias && i != m.root {
					idx = i
				}
			}
			if idx < 0 {
				return m.mismatch(-1, "join alias %q is not projected", alias)
			}
			m.joined = append(m.joined, idx)
		}
	} else {
		for i := range spans {
			if i != m.root {
				m.joined = append(m.joined, i)
			}
		}
	}

	if m.spec.Distinct {
		m.seen = make(map[string]map[string]*Entity)
		return m.prepareAssociations(m.joined)
	}
	return nil
}

// prepareAssociations records which spans fill a collection.
func (m *Materializer) prepareAssociations(spans []int) error {
	m.many = make(map[int]bool, len(spans))
	for _, i := range spans {
		s := m.compiled.Spans[i]
		if s.Owner == "" {
			return m.mismatch(-1, "span %s is not reachable from the root", s.Alias)
		}
		owner := m.spanByAlias(s.Owner)
		if owner < 0 {
			return m.mismatch(-1, "owner %s of %s is not projected", s.Owner, s.Alias)
		}
		if m.metadata == nil {
			return m.mismatch(-1, "no metadata to resolve %s.%s", s.Owner, s.Association)
		}
		e, err := m.metadata.Entity(m.compiled.Spans[owner].Entity)
		if err != nil {
			return m.mismatch(-1, "%v", err)
		}
		a, ok := e.Association(s.Association)
		if !ok {
			return m.mismatch(-1, "unknown association %s.%s", e.Name, s.Association)
		}
		m.many[i] = a.Kind.IsCollection()
	}
	return nil
}

func (m *Materializer) spanByAlias(alias string) int {
	for i, s := range m.compiled.Spans {
		if s.Alias == alias {
			return i
		}
	}
	return -1
}

func (m *Materializer) spanWidth(spans []int) int {
	n := 0
	for _, i := range spans {
		n += m.compiled.Spans[i].End - m.compiled.Spans[i].Start
	}
	return n
}

// Row materializes the values of row number row. emit is false when the row
// was folded into a root returned earlier.
func (m *Materializer) Row(row int, values []any) (out any, emit bool, err error) {
	if len(values) != len(m.columns) {
		return nil, false, m.mismatch(row, "got %d values for %d columns", len(values), len(m.columns))
	}
	decoded := make([]any, len(values))
	for i, v := range values {
		d, err := Decode(v, m.columns[i].Type)
		if err != nil {
			return nil, false, m.mismatch(row, "column %s: %v", m.columns[i].Name, err)
		}
		decoded[i] = d
	}

	switch m.spec.Kind {
	case domain.ShapeScalar:
		return decoded[0], true, nil
	case domain.ShapeTuple:
		return decoded, true, nil
	case domain.ShapeNamed:
		if m.spec.Construct != nil {
			v, err := m.spec.Construct(decoded)
			if err != nil {
				return nil, false, m.mismatch(row, "%s: %v", m.spec.Name, err)
			}
			return v, true, nil
		}
		return &Record{Shape: m.spec.Name, Fields: m.spec.Fields, Values: decoded}, true, nil
	case domain.ShapeMapRow:
		out := make(map[string]any, len(decoded))
		for i, k := range m.keys {
			out[k] = decoded[i]
		}
		return out, true, nil
	case domain.ShapeEntity:
		return m.entityRow(row, decoded)
	case domain.ShapeEntityWithJoins:
		return m.joinsRow(row, decoded)
	}
	return nil, false, m.mismatch(row, "unknown shape")
}

func (m *Materializer) entityRow(row int, decoded []any) (any, bool, error) {
	if m.entity != nil {
		e := newEntity(m.entity.Name, len(decoded))
		for i, f := range m.fieldAt {
			e.set(f, decoded[i])
		}
		return e, true, nil
	}
	root := m.spanEntity(m.root, decoded)
	if root == nil {
		return nil, false, m.mismatch(row, "root entity is NULL")
	}
	instances := map[string]*Entity{m.compiled.Spans[m.root].Alias: root}
	m.attach(m.fetched, decoded, instances)
	return root, true, nil
}

func (m *Materializer) joinsRow(row int, decoded []any) (any, bool, error) {
	rootSpan := m.compiled.Spans[m.root]
	root := m.spanEntity(m.root, decoded)
	if root == nil {
		return nil, false, m.mismatch(row, "root entity is NULL")
	}

	if !m.spec.Distinct {
		out := make([]any, 0, len(m.joined)+1)
		out = append(out, root)
		for _, i := range m.joined {
			if e := m.spanEntity(i, decoded); e != nil {
				out = append(out, e)
			} else {
				out = append(out, nil)
			}
		}
		return out, true, nil
	}

	canonical, isNew := m.canonical(rootSpan.Alias, root)
	instances := map[string]*Entity{rootSpan.Alias: canonical}
	m.attach(m.joined, decoded, instances)
	return canonical, isNew, nil
}

// attach links the entities of spans to their owners in instances. Spans are
// in projection order, so an owner is always seen before what it owns.
func (m *Materializer) attach(spans []int, decoded []any, instances map[string]*Entity) {
	for _, i := range spans {
		s := m.compiled.Spans[i]
		owner := instances[s.Owner]
		if owner == nil {
			continue
		}
		e := m.spanEntity(i, decoded)
		if e != nil && m.seen != nil {
			e, _ = m.canonical(s.Alias, e)
		}
		if e != nil {
			instances[s.Alias] = e
		}
		if m.many[i] {
			owner.attachMany(s.Association, e)
		} else {
			owner.attachOne(s.Association, e)
		}
	}
}

// canonical returns the first instance seen for e's identity under alias.
func (m *Materializer) canonical(alias string, e *Entity) (*Entity, bool) {
	byID := m.seen[alias]
	if byID == nil {
		byID = make(map[string]*Entity)
		m.seen[alias] = byID
	}
	if existing, ok := byID[e.id]; ok {
		return existing, false
	}
	byID[e.id] = e
	return e, true
}

// spanEntity builds the entity of span i, or nil when every column is NULL.
func (m *Materializer) spanEntity(i int, decoded []any) *Entity {
	s := m.compiled.Spans[i]
	allNull := true
	for _, v := range decoded[s.Start:s.End] {
		if v != nil {
			allNull = false
			break
		}
	}
	if allNull {
		return nil
	}

	e := newEntity(s.Entity, s.End-s.Start)
	for c := s.Start; c < s.End; c++ {
		e.set(m.columns[c].Field, decoded[c])
	}
	e.id = m.identity(s.Entity, e)
	return e
}

func (m *Materializer) identity(entity string, e *Entity) string {
	var ids []string
	if m.metadata != nil {
		if meta, err := m.metadata.Entity(entity); err == nil {
			for _, f := range meta.IDFields() {
				ids = append(ids, fmt.Sprint(e.Values[f.Name]))
			}
		}
	}
	if len(ids) == 0 {
		for _, f := range e.Order {
			ids = append(ids, fmt.Sprint(e.Values[f]))
		}
	}
	return strings.Join(ids, "\x00")
}

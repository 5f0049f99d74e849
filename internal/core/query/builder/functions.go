package builder

import "github.com/satishbabariya/unisql/internal/core/query/domain"

// Func calls a catalogued function. Every argument is an Operand, an
// expression, or a constant value; use Scope.Field for paths.
func (s *Scope) Func(name string, args ...any) Operand {
	if err := s.failure(); err != nil {
		return Operand{err: err}
	}
	exprs := make([]domain.Expr, len(args))
	for i, a := range args {
		e, err := s.value(a, domain.TypeAny)
		if err != nil {
			return Operand{err: err}
		}
		exprs[i] = e
	}
	call, err := domain.NewFuncCall(name, false, false, exprs...)
	return Operand{expr: call, err: err}
}

// unary applies a one-argument function to a path or operand.
func (s *Scope) unary(name string, distinct bool, field any) Operand {
	if err := s.failure(); err != nil {
		return Operand{err: err}
	}
	arg, err := s.path(field)
	if err != nil {
		return Operand{err: err}
	}
	call, err := domain.NewFuncCall(name, distinct, false, arg)
	return Operand{expr: call, err: err}
}

// CountAll is COUNT(*).
func (s *Scope) CountAll() Operand {
	if err := s.failure(); err != nil {
		return Operand{err: err}
	}
	call, err := domain.NewFuncCall("count", false, true)
	return Operand{expr: call, err: err}
}

// Count is COUNT(field).
func (s *Scope) Count(field any) Operand { return s.unary("count", false, field) }

// CountDistinct is COUNT(DISTINCT field).
func (s *Scope) CountDistinct(field any) Operand { return s.unary("count", true, field) }

// Sum is SUM(field).
func (s *Scope) Sum(field any) Operand { return s.unary("sum", false, field) }

// Avg is AVG(field).
func (s *Scope) Avg(field any) Operand { return s.unary("avg", false, field) }

// Min is MIN(field).
func (s *Scope) Min(field any) Operand { return s.unary("min", false, field) }

// Max is MAX(field).
func (s *Scope) Max(field any) Operand { return s.unary("max", false, field) }

// Year extracts the year of a date-time field.
func (s *Scope) Year(field any) Operand { return s.unary("year", false, field) }

// Month extracts the month (1-12) of a date-time field.
func (s *Scope) Month(field any) Operand { return s.unary("month", false, field) }

// Day extracts the day of month of a date-time field.
func (s *Scope) Day(field any) Operand { return s.unary("day", false, field) }

// Upper converts a string field to upper case.
func (s *Scope) Upper(field any) Operand { return s.unary("upper", false, field) }

// Lower converts a string field to lower case.
func (s *Scope) Lower(field any) Operand { return s.unary("lower", false, field) }

// Concat concatenates its arguments. Plain strings are constants, not paths.
func (s *Scope) Concat(args ...any) Operand { return s.Func("concat", args...) }

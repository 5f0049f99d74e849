package domain

import "strings"

// FunctionInfo describes a function callable from both front-ends. Dialect
// rendering lives in the compiler.
type FunctionInfo struct {
	Name      string
	MinArgs   int
	MaxArgs   int // -1 means unbounded
	Aggregate bool
	// AllowStar permits f(*).
	AllowStar bool
	result    func(args []Expr) LogicalType
}

// ResultType returns the function's result type for the given arguments.
func (f FunctionInfo) ResultType(args []Expr) LogicalType {
	return f.result(args)
}

func fixed(t LogicalType) func([]Expr) LogicalType {
	return func([]Expr) LogicalType { return t }
}

func firstArg(args []Expr) LogicalType {
	if len(args) == 0 {
		return TypeAny
	}
	return args[0].ResultType()
}

func sumType(args []Expr) LogicalType {
	if t := firstArg(args); t == TypeInt {
		return TypeInt
	}
	return TypeFloat
}

var functions = map[string]FunctionInfo{
	"count":             {MinArgs: 0, MaxArgs: 1, Aggregate: true, AllowStar: true, result: fixed(TypeInt)},
	"sum":               {MinArgs: 1, MaxArgs: 1, Aggregate: true, result: sumType},
	"avg":               {MinArgs: 1, MaxArgs: 1, Aggregate: true, result: fixed(TypeFloat)},
	"min":               {MinArgs: 1, MaxArgs: 1, Aggregate: true, result: firstArg},
	"max":               {MinArgs: 1, MaxArgs: 1, Aggregate: true, result: firstArg},
	"year":              {MinArgs: 1, MaxArgs: 1, result: fixed(TypeInt)},
	"month":             {MinArgs: 1, MaxArgs: 1, result: fixed(TypeInt)},
	"day":               {MinArgs: 1, MaxArgs: 1, result: fixed(TypeInt)},
	"hour":              {MinArgs: 1, MaxArgs: 1, result: fixed(TypeInt)},
	"minute":            {MinArgs: 1, MaxArgs: 1, result: fixed(TypeInt)},
	"second":            {MinArgs: 1, MaxArgs: 1, result: fixed(TypeInt)},
	"upper":             {MinArgs: 1, MaxArgs: 1, result: fixed(TypeString)},
	"lower":             {MinArgs: 1, MaxArgs: 1, result: fixed(TypeString)},
	"trim":              {MinArgs: 1, MaxArgs: 1, result: fixed(TypeString)},
	"length":            {MinArgs: 1, MaxArgs: 1, result: fixed(TypeInt)},
	"abs":               {MinArgs: 1, MaxArgs: 1, result: firstArg},
	"concat":            {MinArgs: 2, MaxArgs: -1, result: fixed(TypeString)},
	"coalesce":          {MinArgs: 1, MaxArgs: -1, result: firstArg},
	"sysdate":           {MinArgs: 0, MaxArgs: 0, result: fixed(TypeTime)},
	"current_timestamp": {MinArgs: 0, MaxArgs: 0, result: fixed(TypeTime)},
	"current_date":      {MinArgs: 0, MaxArgs: 0, result: fixed(TypeTime)},
}

// LookupFunction returns the function registered under name, case-insensitively.
func LookupFunction(name string) (FunctionInfo, bool) {
	key := strings.ToLower(name)
	f, ok := functions[key]
	if ok {
		f.Name = key
	}
	return f, ok
}

// NewFuncCall validates the call against the function catalogue and returns the
// typed call node.
func NewFuncCall(name string, distinct, star bool, args ...Expr) (FuncCall, error) {
	info, ok := LookupFunction(name)
	if !ok {
		return FuncCall{}, &ResolutionError{Kind: "function", Name: name}
	}
	if star && !info.AllowStar {
		return FuncCall{}, &ResolutionError{Kind: "function", Name: name, Reason: "does not accept *"}
	}
	if distinct && !info.Aggregate {
		return FuncCall{}, &ResolutionError{Kind: "function", Name: name, Reason: "DISTINCT is only valid in aggregates"}
	}
	n := len(args)
	if !star && (n < info.MinArgs || (info.MaxArgs >= 0 && n > info.MaxArgs)) {
		return FuncCall{}, &ResolutionError{Kind: "function", Name: name, Reason: "wrong number of arguments"}
	}
	if info.Name == "count" && !star && n == 0 {
		star = true
	}
	return FuncCall{
		Name:     info.Name,
		Args:     args,
		Distinct: distinct,
		Star:     star,
		Type:     info.ResultType(args),
	}, nil
}

// IsAggregate reports whether e contains an aggregate call.
func IsAggregate(e Expr) bool {
	found := false
	WalkExpr(e, func(x Expr) {
		if call, ok := x.(FuncCall); ok {
			if info, ok := LookupFunction(call.Name); ok && info.Aggregate {
				found = true
			}
		}
	})
	return found
}

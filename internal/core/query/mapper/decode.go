package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// timeFormats are tried in order when a time arrives as text. The second
// is the layout go-sqlite3 writes.
var timeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Decode converts a driver value to the Go representation of t.
//
//	string -> string, int -> int64, float -> float64, bool -> bool,
//	time -> time.Time, bytes -> []byte, uuid -> uuid.UUID
//
// TypeAny keeps the driver value, except that text delivered as []byte
// becomes a string.
func Decode(v any, t domain.LogicalType) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		if t == domain.TypeBytes {
			return append([]byte(nil), b...), nil
		}
		if t == domain.TypeUUID && len(b) == 16 {
			return uuid.FromBytes(b)
		}
		v = string(b)
	}

	switch t {
	case domain.TypeAny, "":
		return v, nil
	case domain.TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case time.Time:
			return x.Format(time.RFC3339Nano), nil
		case int64, float64, bool:
			return fmt.Sprint(x), nil
		}
	case domain.TypeInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		}
	case domain.TypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(strings.TrimSpace(x), 64)
		}
	case domain.TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case string:
			return strconv.ParseBool(x)
		}
	case domain.TypeTime:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			return parseTime(x)
		}
	case domain.TypeUUID:
		switch x := v.(type) {
		case uuid.UUID:
			return x, nil
		case string:
			return uuid.Parse(x)
		}
	case domain.TypeBytes:
		if s, ok := v.(string); ok {
			return []byte(s), nil
		}
	}
	return nil, fmt.Errorf("cannot decode %T as %s", v, t)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

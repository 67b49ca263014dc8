package dataset

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	dateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Normalize converts driver and literal values into the closed set of types a Table
// stores: string, int64, float64, bool, time.Time or nil.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case time.Time:
		return x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case *big.Int:
		if x == nil {
			return nil
		}
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case interface{ Float64() float64 }:
		return x.Float64()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// IsNull reports whether v is a missing value.
func IsNull(v any) bool {
	return v == nil
}

// Format renders a stored value as display text. Nulls render as the empty string and
// midnight timestamps as plain dates.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(dateLayout)
		}
		return x.Format("2006-01-02T15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// Compare orders two non-null values. ok is false when either side is null.
func Compare(a, b any) (c int, ok bool) {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return 0, false
	}

	if af, aNum := toFloat(a); aNum {
		if bf, bNum := toFloat(b); bNum {
			return cmpFloat(af, bf), true
		}
		if bs, isStr := b.(string); isStr {
			if bf, err := strconv.ParseFloat(strings.TrimSpace(bs), 64); err == nil {
				return cmpFloat(af, bf), true
			}
		}
	}
	if as, isStr := a.(string); isStr {
		if bf, bNum := toFloat(b); bNum {
			if af, err := strconv.ParseFloat(strings.TrimSpace(as), 64); err == nil {
				return cmpFloat(af, bf), true
			}
		}
	}

	switch x := a.(type) {
	case string:
		switch y := b.(type) {
		case string:
			return strings.Compare(x, y), true
		case time.Time:
			if t, parsed := parseTime(x); parsed {
				return t.Compare(y), true
			}
		}
	case bool:
		if y, isBool := b.(bool); isBool {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	case time.Time:
		switch y := b.(type) {
		case time.Time:
			return x.Compare(y), true
		case string:
			if t, parsed := parseTime(y); parsed {
				return x.Compare(t), true
			}
		}
	}

	return strings.Compare(Format(a), Format(b)), true
}

// Equal reports SQL-style equality; nulls are never equal to anything.
func Equal(a, b any) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

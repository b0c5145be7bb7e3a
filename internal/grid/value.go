package grid

import (
	"bytes"
	"cmp"
	"strings"
)

// Value is a single cell value. Sources produce nil, bool, int64, float64,
// string or []byte; other numeric widths are accepted and compare as
// numbers.
type Value any

const (
	kindNil = iota
	kindBool
	kindNumber
	kindString
	kindBytes
	kindOther
)

func kindOf(v Value) int {
	switch v.(type) {
	case nil:
		return kindNil
	case bool:
		return kindBool
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return kindNumber
	case string:
		return kindString
	case []byte:
		return kindBytes
	default:
		return kindOther
	}
}

// Compare orders two values, returning -1, 0 or 1. Values of different kinds
// order by kind: nil < bool < number < string < []byte. Within a kind,
// false < true, numbers compare numerically across integer and float
// representations, strings and byte slices compare bytewise. NaN orders
// before every other number.
func Compare(a, b Value) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case kindBool:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0
		case bv:
			return -1
		default:
			return 1
		}
	case kindNumber:
		return compareNumbers(a, b)
	case kindString:
		return strings.Compare(a.(string), b.(string))
	case kindBytes:
		return bytes.Compare(a.([]byte), b.([]byte))
	default:
		return 0
	}
}

func compareNumbers(a, b Value) int {
	ai, aInt := toInt64(a)
	bi, bInt := toInt64(b)
	if aInt && bInt {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(toFloat64(a), toFloat64(b))
}

func toInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v Value) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// Equal reports whether two values are the same for change detection.
// Unlike [Compare] it is type-strict: int64(1) and float64(1) are not equal,
// so a re-fetch that changes a value's type counts as a change.
func Equal(a, b Value) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	if _, ok := b.([]byte); ok {
		return false
	}
	return a == b
}

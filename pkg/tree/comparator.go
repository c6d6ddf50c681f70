package tree

import "bytes"

// Comparator is a total order over values stored in the tree. It must
// return a negative number if a < b, zero if a == b, and a positive
// number if a > b. The tree never interprets values itself; every
// insertion, splitter comparison, and range lookup goes through this
// function.
type Comparator func(a, b interface{}) int

// typeRank buckets a value's dynamic type into an ordering class so the
// default comparator produces a consistent cross-type order: numbers,
// then strings, then byte strings, then tuples.
func typeRank(v interface{}) int {
	switch v.(type) {
	case int, int64, float64:
		return 0
	case string:
		return 1
	case []byte:
		return 2
	case []interface{}:
		return 3
	default:
		return 4
	}
}

func asFloat64(v interface{}) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return 0
	}
}

// DefaultComparator is the cross-type total order used when a caller does
// not supply one: numbers compare numerically, strings and byte strings
// compare lexicographically, and tuples compare element-by-element with
// the shorter tuple ordering first on a common prefix. Values of
// different supported kinds never compare equal; they're ordered by
// typeRank. Values of unsupported types all share the last rank and
// compare equal to one another.
func DefaultComparator(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case 0:
		fa, fb := asFloat64(a), asFloat64(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case 1:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	case 2:
		return bytes.Compare(a.([]byte), b.([]byte))
	case 3:
		ta, tb := a.([]interface{}), b.([]interface{})
		n := len(ta)
		if len(tb) < n {
			n = len(tb)
		}
		for i := 0; i < n; i++ {
			if c := DefaultComparator(ta[i], tb[i]); c != 0 {
				return c
			}
		}
		return len(ta) - len(tb)
	default:
		return 0
	}
}

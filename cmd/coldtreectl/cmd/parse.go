package cmd

import "strconv"

// parseValue maps a CLI argument onto the tree's value domain: integers
// parse as int64 so they compare numerically against other inserted
// integers, everything else is kept as a string.
func parseValue(arg string) interface{} {
	if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return n
	}
	return arg
}

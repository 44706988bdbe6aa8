// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"math"
	"strconv"
)

// ParseID converts a path segment into a positive record id.
// It reports false for empty, signed, non-decimal, zero, or out-of-range input.
//
// Example:
//
//	id, ok := utils.ParseID("42")  // 42, true
//	_, ok = utils.ParseID("abc")   // 0, false
//	_, ok = utils.ParseID("0")     // 0, false
func ParseID(s string) (uint, bool) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 || n > math.MaxInt64 {
		return 0, false
	}
	return uint(n), true
}

package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or when either operand is negative. Table sizes are always
// non-negative, so the signed cases are rejected outright.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckSpan validates that n bytes starting at off fit in a buffer of
// bufLen bytes and returns the end offset.
//
//	end, err := buf.CheckSpan(len(data), off, size)
//	if err != nil {
//	    return fmt.Errorf("string block: %w", err)
//	}
func CheckSpan(bufLen, off, n int) (int, error) {
	if off < 0 || n < 0 {
		return 0, fmt.Errorf("negative span: off=%d n=%d", off, n)
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: off=%d + n=%d", off, n)
	}
	if end > bufLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return end, nil
}

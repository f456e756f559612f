package pattern

import "math"

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// lcmAll returns 1 for an empty list. The result saturates at limit+1 when
// limit is positive so callers can reject it without overflowing.
func lcmAll(values []uint64, limit uint64) uint64 {
	acc := uint64(1)
	for _, v := range values {
		acc = lcm(acc, v)
		if limit > 0 && acc > limit {
			return limit + 1
		}
	}
	return acc
}

// mulCap multiplies, saturating at the largest uint64.
func mulCap(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}

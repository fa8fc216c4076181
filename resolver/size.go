package resolver

import (
	"math"
	"strconv"
)

// ParseSize parses a size value with an optional nginx-style suffix: k, m or g, in
// either case. Negative and overflowing values are rejected.
func ParseSize(value string) (int64, bool) {
	if len(value) == 0 {
		return 0, false
	}

	multiplier := int64(1)
	switch value[len(value)-1] {
	case 'k', 'K':
		multiplier = 1 << 10
	case 'm', 'M':
		multiplier = 1 << 20
	case 'g', 'G':
		multiplier = 1 << 30
	}

	if multiplier != 1 {
		value = value[:len(value)-1]
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 || n > math.MaxInt64/multiplier {
		return 0, false
	}

	return n * multiplier, true
}

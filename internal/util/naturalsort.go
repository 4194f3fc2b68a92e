package util

import "sort"

// NaturalCompare compares two strings treating runs of digits as numbers,
// so "page9" sorts before "page10". Returns -1, 0, or 1.
//
// Numeric runs are compared by stripping leading zeros and then by length
// before value, so arbitrarily long digit runs never overflow. Equal
// numeric values with different zero-padding fall back to run length
// ("01" < "1" is not required; they compare equal within the run and the
// tail decides).
func NaturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		aDigit, bDigit := isDigit(ca), isDigit(cb)

		if aDigit && bDigit {
			// Consume both digit runs and compare numerically.
			ai := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			bj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}

			runA := trimLeadingZeros(a[ai:i])
			runB := trimLeadingZeros(b[bj:j])
			if len(runA) != len(runB) {
				if len(runA) < len(runB) {
					return -1
				}
				return 1
			}
			if runA != runB {
				if runA < runB {
					return -1
				}
				return 1
			}
			continue
		}

		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	default:
		return 0
	}
}

// NaturalSort sorts the slice in place using NaturalCompare.
func NaturalSort(items []string) {
	sort.SliceStable(items, func(i, j int) bool {
		return NaturalCompare(items[i], items[j]) < 0
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func trimLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

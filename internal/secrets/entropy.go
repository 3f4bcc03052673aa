package secrets

import "math"

// ShannonEntropy returns the per-character entropy of s in bits.
// Empty input has zero entropy. Used to separate random key material
// (typically > 4 bits/char) from structured or repetitive data.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}

	entropy := 0.0
	for _, n := range freq {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// isLowercaseHex reports whether s consists only of [0-9a-f].
// Pure lowercase hex is almost always a content hash, not a secret.
func isLowercaseHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

package secrets

import (
	"strings"
	"testing"
)

func TestShannonEntropy(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  float64
		max  float64
	}{
		{"empty", "", 0, 0},
		{"single char", strings.Repeat("a", 20), 0, 0},
		{"two chars", strings.Repeat("ab", 20), 1.0, 1.0},
		{"random-ish key", "kJ8fQ2mZ7xW4vN1cR5tY9uI3oP6aSdFgHjKlZxCv", 4.0, 6.0},
		{"hex hash", "3f786850e387550fdab836ed7e6dc881de23001b", 3.0, 4.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShannonEntropy(tc.in)
			if got < tc.min || got > tc.max {
				t.Errorf("entropy(%q) = %.3f, want in [%.1f, %.1f]", tc.in, got, tc.min, tc.max)
			}
		})
	}
}

func TestIsLowercaseHex(t *testing.T) {
	if !isLowercaseHex("deadbeef0123") {
		t.Error("expected lowercase hex to be recognized")
	}
	if isLowercaseHex("DeadBeef") {
		t.Error("mixed case is not pure lowercase hex")
	}
	if isLowercaseHex("deadbeefg") {
		t.Error("'g' is not a hex digit")
	}
	if isLowercaseHex("") {
		t.Error("empty string is not hex")
	}
}

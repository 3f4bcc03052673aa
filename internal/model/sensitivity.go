package model

import "fmt"

// Sensitivity classifies a document's distribution sensitivity.
type Sensitivity string

const (
	SensPublic       Sensitivity = "public"
	SensInternal     Sensitivity = "internal"
	SensConfidential Sensitivity = "confidential"
	SensRestricted   Sensitivity = "restricted"
)

// SensRank maps sensitivity to a comparable integer for hierarchy checks.
// A document may only admit context whose rank is <= its own rank.
var SensRank = map[Sensitivity]int{
	SensPublic:       0,
	SensInternal:     1,
	SensConfidential: 2,
	SensRestricted:   3,
}

// DefaultSensitivity is applied when a document carries no metadata block
// or no sensitivity field. Conservative relative to public, but silent —
// see StrictMetadata for fail-closed deployments.
const DefaultSensitivity = SensInternal

// ParseSensitivity validates a raw sensitivity string. Matching is
// case-sensitive per the metadata contract.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch Sensitivity(s) {
	case SensPublic, SensInternal, SensConfidential, SensRestricted:
		return Sensitivity(s), nil
	}
	return "", fmt.Errorf("invalid sensitivity %q: must be one of: public, internal, confidential, restricted", s)
}

// Rank returns the numeric ordering of s. Unknown values rank as the
// default level rather than panicking.
func (s Sensitivity) Rank() int {
	if r, ok := SensRank[s]; ok {
		return r
	}
	return SensRank[DefaultSensitivity]
}

// Admits reports whether a document at level s may include context at
// level ctx. The ordering is total: comparison is numeric, never by
// string equality.
func (s Sensitivity) Admits(ctx Sensitivity) bool {
	return ctx.Rank() <= s.Rank()
}

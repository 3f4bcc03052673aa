package sanitize

import "fmt"

// Validate is the companion check for a completed sanitization pass.
// It fails when a known-bad phrase survived untouched, or when the
// pass removed more of the input than MaxRemovalRatio allows — overly
// aggressive sanitization is itself a defect worth catching.
func (s *Sanitizer) Validate(original, sanitized string) error {
	for _, rule := range injectionRules {
		if loc := rule.re.FindStringIndex(sanitized); loc != nil {
			return fmt.Errorf("sanitization incomplete: %s survived at offset %d", rule.desc, loc[0])
		}
	}

	if len(original) == 0 {
		return nil
	}
	removed := float64(len(original)-len(sanitized)) / float64(len(original))
	if removed > s.removalRatio {
		return fmt.Errorf("sanitization removed %.0f%% of input, above the %.0f%% limit",
			removed*100, s.removalRatio*100)
	}
	return nil
}

// Package phone normalizes phone-shaped input to the canonical digit-only
// form stored in people.normalized_phone.
package phone

import "strings"

// Normalize strips formatting punctuation from a phone-shaped string and
// returns the remaining digits. A local 11-digit number with the 8 trunk
// prefix is rewritten to the 7 country code, matching stored numbers.
// Returns the empty string when the input carries no digits at all, which
// callers treat as "no phone to match", not an error.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	return digits
}

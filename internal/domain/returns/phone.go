package returns

import "strings"

// DefaultCountryCode is prefixed to the national number when probing
// upstream phone fields stored in international format.
const DefaultCountryCode = "91"

// NationalNumberLength is the length of the canonical national number.
const NationalNumberLength = 10

// NormalizePhone strips every non-digit character from the input.
// "+91 999-999-9999" becomes "919999999999".
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalNationalNumber returns the last 10 digits of the normalized
// input, the portion upstream systems store most consistently.
func CanonicalNationalNumber(raw string) string {
	digits := NormalizePhone(raw)
	if len(digits) <= NationalNumberLength {
		return digits
	}
	return digits[len(digits)-NationalNumberLength:]
}

// PhoneVariants builds the ordered list of phone strings to probe against
// the order directory's customer search. Upstream phone fields are stored
// inconsistently (with/without country code, with/without "+"), so the
// matcher tries each variant in turn until one hits. The list is ordered
// most-specific first and deduplicated.
func PhoneVariants(raw string) []string {
	digits := NormalizePhone(raw)
	if digits == "" {
		return nil
	}
	last10 := CanonicalNationalNumber(raw)

	candidates := []string{
		digits,
		"+" + digits,
		last10,
		"+" + DefaultCountryCode + last10,
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}

// PhoneMatches reports whether a stored upstream phone field belongs to the
// canonical national number, ignoring formatting. Used by the recent-orders
// fallback for guest checkouts that never got a customer profile.
func PhoneMatches(storedPhone, nationalNumber string) bool {
	if nationalNumber == "" {
		return false
	}
	return strings.Contains(NormalizePhone(storedPhone), nationalNumber)
}

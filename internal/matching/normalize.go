package matching

import (
	"regexp"
	"strings"
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// NormalizeEmail normalizes an email address by lowercasing and trimming
// whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone normalizes a phone number to E.164-style form: digits only
// with a leading +, defaulting 10-digit numbers to the +1 country code.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	hasPlus := strings.HasPrefix(phone, "+")
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}

	if len(digits) == 10 && !hasPlus {
		return "+1" + digits
	}
	return "+" + digits
}

// normalizeRuleValue applies a rule's declared normalization to an attribute
// value before scoring. Unknown kinds pass through untouched; the scorers
// apply their own canonical text normalization.
func normalizeRuleValue(kind, value string) string {
	switch strings.ToLower(kind) {
	case "email":
		return NormalizeEmail(value)
	case "phone":
		return NormalizePhone(value)
	default:
		return value
	}
}

package pdpa

import (
	"strings"
	"unicode/utf8"
)

const maskRune = '*'

// Redact masks a matched value before it is stored as evidence. The original
// record is never touched. Shapes the rule does not apply to come back unchanged.
func Redact(category Category, matched string) string {
	switch category {
	case CategoryNationalID:
		return redactNationalID(matched)
	case CategoryEmail:
		return redactEmail(matched)
	case CategoryPhone:
		return redactPhone(matched)
	case CategoryAddress:
		return redactAddress(matched)
	default:
		return matched
	}
}

// 1234567890121 -> 12345****0121
func redactNationalID(s string) string {
	if len(s) != nationalIDLength || !allDigits(s) {
		return s
	}
	return s[:5] + strings.Repeat(string(maskRune), 4) + s[9:]
}

// someone@example.com -> so***@example.com
func redactEmail(s string) string {
	at := strings.IndexByte(s, '@')
	if at < 3 || at == len(s)-1 {
		return s
	}
	return s[:2] + "***" + s[at:]
}

// Keeps the first and last three digits; separators stay in place.
func redactPhone(s string) string {
	digits := 0
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			digits++
		}
	}
	if digits <= 6 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	seen := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) {
			b.WriteByte(c)
			continue
		}
		if seen < 3 || seen >= digits-3 {
			b.WriteByte(c)
		} else {
			b.WriteRune(maskRune)
		}
		seen++
	}
	return b.String()
}

func redactAddress(s string) string {
	if utf8.RuneCountInString(s) <= 4 {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == 4 {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString("***")
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

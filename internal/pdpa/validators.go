package pdpa

import "regexp"

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	thaiPhoneRegex = regexp.MustCompile(`^(0\d{1,2}-?\d{3,4}-?\d{3,4}|\+66\d{9})$`)
	addressRegex   = regexp.MustCompile(`(?i)[\x{0E00}-\x{0E7F}]|(District|Sub-district|Province|Road|Soi|Moo)`)
)

const nationalIDLength = 13

// IsValidThaiNationalID reports whether text is a 13 digit Thai citizen ID
// whose last digit matches the civil-registration check digit.
func IsValidThaiNationalID(text string) bool {
	if len(text) != nationalIDLength {
		return false
	}
	last := text[nationalIDLength-1]
	if last < '0' || last > '9' {
		return false
	}
	digit, ok := NationalIDCheckDigit(text[:nationalIDLength-1])
	return ok && digit == last
}

// NationalIDCheckDigit returns the check digit for the first 12 digits of a
// national ID: 11 minus the weighted sum (weights 13 down to 2) mod 11, mod 10.
func NationalIDCheckDigit(prefix string) (byte, bool) {
	if len(prefix) != nationalIDLength-1 {
		return 0, false
	}
	sum := 0
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		sum += int(c-'0') * (nationalIDLength - i)
	}
	return byte('0' + (11-sum%11)%10), true
}

// ValidateNationalID is the public boundary for national ID checks.
func ValidateNationalID(id string) bool {
	return IsValidThaiNationalID(id)
}

// IsLikelyEmail matches common address shapes. It is not RFC 5322 complete.
func IsLikelyEmail(text string) bool {
	return emailRegex.MatchString(text)
}

// IsLikelyThaiPhone matches domestic 0XX-XXX-XXXX style numbers and +66 numbers.
func IsLikelyThaiPhone(text string) bool {
	return thaiPhoneRegex.MatchString(text)
}

// LooksLikeAddress reports whether text contains Thai script or an
// administrative keyword. Callers gate it on length; see Profile.AddressMinLength.
func LooksLikeAddress(text string) bool {
	return addressRegex.MatchString(text)
}

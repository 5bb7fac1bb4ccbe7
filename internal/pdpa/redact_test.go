package pdpa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		in       string
		want     string
	}{
		{"national id", CategoryNationalID, "1234567890121", "12345****0121"},
		{"national id wrong length", CategoryNationalID, "12345", "12345"},
		{"email", CategoryEmail, "someone@example.com", "so***@example.com"},
		{"email short local part", CategoryEmail, "ab@example.com", "ab@example.com"},
		{"email without at", CategoryEmail, "not-an-email", "not-an-email"},
		{"phone", CategoryPhone, "0812345678", "081****678"},
		{"phone nine digits", CategoryPhone, "021234567", "021***567"},
		{"phone with separators", CategoryPhone, "081-234-5678", "081-***-*678"},
		{"phone too short", CategoryPhone, "123456", "123456"},
		{"address", CategoryAddress, "99 Sukhumvit Road", "99 S***"},
		{"address thai", CategoryAddress, "กรุงเทพมหานคร", "กรุง***"},
		{"unknown", Category("passport"), "AA1234567", "AA1234567"},
		{"empty", CategoryEmail, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Redact(tc.category, tc.in))
		})
	}
}

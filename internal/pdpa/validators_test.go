package pdpa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNationalID(t *testing.T) {
	cases := map[string]bool{
		"1234567890121":  true,
		"1234567890123":  false,
		"123":            false,
		"abcdefghijklm":  false,
		"":               false,
		"12345678901210": false,
		"1111111111111":  false,
		"1111111111119":  true,
	}
	for id, want := range cases {
		assert.Equal(t, want, ValidateNationalID(id), "id %q", id)
	}
}

func TestNationalIDCheckDigitPerturbation(t *testing.T) {
	valid := "1234567890121"
	for d := byte('0'); d <= '9'; d++ {
		if d == valid[12] {
			continue
		}
		id := valid[:12] + string(d)
		assert.False(t, IsValidThaiNationalID(id), "check digit %c should be rejected", d)
	}
}

func TestNationalIDCheckDigit(t *testing.T) {
	d, ok := NationalIDCheckDigit("123456789012")
	assert.True(t, ok)
	assert.Equal(t, byte('1'), d)

	d, ok = NationalIDCheckDigit("111111111111")
	assert.True(t, ok)
	assert.Equal(t, byte('9'), d)

	_, ok = NationalIDCheckDigit("12345")
	assert.False(t, ok)
	_, ok = NationalIDCheckDigit("12345678901x")
	assert.False(t, ok)
}

func TestIsLikelyEmail(t *testing.T) {
	assert.True(t, IsLikelyEmail("test@example.com"))
	assert.True(t, IsLikelyEmail("first.last+tag@sub.example.co.th"))
	assert.False(t, IsLikelyEmail("invalid-email"))
	assert.False(t, IsLikelyEmail("a@b"))
	assert.False(t, IsLikelyEmail("contact test@example.com"))
}

func TestIsLikelyThaiPhone(t *testing.T) {
	for _, p := range []string{"0812345678", "081-234-5678", "02-123-4567", "+66812345678"} {
		assert.True(t, IsLikelyThaiPhone(p), p)
	}
	for _, p := range []string{"1234567890", "08", "+6681234", "call 0812345678"} {
		assert.False(t, IsLikelyThaiPhone(p), p)
	}
}

func TestLooksLikeAddress(t *testing.T) {
	assert.True(t, LooksLikeAddress("99 Sukhumvit Road, Bangkok"))
	assert.True(t, LooksLikeAddress("กรุงเทพมหานคร"))
	assert.True(t, LooksLikeAddress("Pathum Wan district"))
	assert.False(t, LooksLikeAddress("plain english sentence"))
}

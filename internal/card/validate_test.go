package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var august2026 = time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

func TestValidateHappyPath(t *testing.T) {
	res := Validate("4242 4242 4242 4242", "12 / 26", "123", august2026)

	assert.True(t, res.OK)
	assert.Empty(t, res.NumberErr)
	assert.Empty(t, res.ExpiryErr)
	assert.Empty(t, res.CVCErr)
}

func TestValidateNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{"empty", "", MsgNumberRequired},
		{"separators only", " - ", MsgNumberRequired},
		{"too short", "4242 4242 4242 424", MsgNumberLength},
		{"luhn failure", "1234 5678 9012 3456", MsgNumberInvalid},
		{"valid", "4242 4242 4242 4242", ""},
		{"decline fixture passes luhn", "4000 0000 0000 0002", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.number, "12 / 26", "123", august2026)
			assert.Equal(t, tt.want, res.NumberErr)
			assert.Equal(t, tt.want == "", res.OK)
		})
	}
}

func TestValidateExpiry(t *testing.T) {
	tests := []struct {
		name   string
		expiry string
		want   string
	}{
		{"empty", "", MsgExpiryRequired},
		{"month zero", "00 / 26", MsgExpiryBadMonth},
		{"month thirteen", "13 / 26", MsgExpiryBadMonth},
		{"past year", "12 / 24", MsgExpiryExpired},
		{"past month same year", "07 / 26", MsgExpiryExpired},
		{"current month", "08 / 26", ""},
		{"future month", "09 / 26", ""},
		{"future year", "01 / 27", ""},
		{"month without year", "12", MsgExpiryExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate("4242424242424242", tt.expiry, "123", august2026)
			assert.Equal(t, tt.want, res.ExpiryErr)
			assert.Equal(t, tt.want == "", res.OK)
		})
	}
}

func TestValidateCVC(t *testing.T) {
	tests := []struct {
		name string
		cvc  string
		want string
	}{
		{"empty", "", MsgCVCRequired},
		{"too short", "12", MsgCVCLength},
		{"too long", "1234", MsgCVCLength},
		{"valid", "123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate("4242424242424242", "12 / 26", tt.cvc, august2026)
			assert.Equal(t, tt.want, res.CVCErr)
			assert.Equal(t, tt.want == "", res.OK)
		})
	}
}

func TestValidateReportsAllFailures(t *testing.T) {
	res := Validate("", "", "", august2026)

	assert.False(t, res.OK)
	assert.Equal(t, MsgNumberRequired, res.NumberErr)
	assert.Equal(t, MsgExpiryRequired, res.ExpiryErr)
	assert.Equal(t, MsgCVCRequired, res.CVCErr)
}

func TestClassifyNumber(t *testing.T) {
	assert.Equal(t, Approved, ClassifyNumber("4242 4242 4242 4242"))
	assert.Equal(t, Declined, ClassifyNumber("4000 0000 0000 0002"))
	assert.Equal(t, Unknown, ClassifyNumber("4000 0566 5566 5556"))
	assert.Equal(t, Unknown, ClassifyNumber(""))
}

func TestLuhnValid(t *testing.T) {
	assert.True(t, luhnValid("4242424242424242"))
	assert.True(t, luhnValid("4000000000000002"))
	assert.True(t, luhnValid("4000056655665556"))
	assert.False(t, luhnValid("1234567890123456"))
	assert.False(t, luhnValid("4242424242424241"))
}

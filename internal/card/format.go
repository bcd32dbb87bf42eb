// Package card implements the mock checkout card logic: input
// formatting, field validation with a Luhn checksum, and the test-card
// classification used by the payment orchestrator.
package card

import "strings"

const (
	numberMaxDigits = 16
	expiryMaxDigits = 4
	cvcMaxDigits    = 3

	expirySeparator = " / "
)

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// FormatNumber normalizes raw card-number input into display form:
// digits only, at most 16, grouped by 4 with spaces. Formatting an
// already-formatted number yields the same result.
func FormatNumber(raw string) string {
	d := Digits(raw)
	if len(d) > numberMaxDigits {
		d = d[:numberMaxDigits]
	}

	var b strings.Builder
	for i := 0; i < len(d); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// FormatExpiry normalizes raw expiry input into "MM / YY" form. The
// separator appears only once a third digit is present, so a user can
// still backspace over the month.
func FormatExpiry(raw string) string {
	d := Digits(raw)
	if len(d) > expiryMaxDigits {
		d = d[:expiryMaxDigits]
	}
	if len(d) > 2 {
		return d[:2] + expirySeparator + d[2:]
	}
	return d
}

// FormatCVC normalizes raw CVC input: digits only, at most 3.
func FormatCVC(raw string) string {
	d := Digits(raw)
	if len(d) > cvcMaxDigits {
		d = d[:cvcMaxDigits]
	}
	return d
}

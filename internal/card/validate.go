package card

import (
	"strconv"
	"time"
)

// User-facing messages, kept in French to match the storefront copy.
const (
	MsgNumberRequired = "Le numéro de carte est requis"
	MsgNumberLength   = "Le numéro de carte doit comporter 16 chiffres"
	MsgNumberInvalid  = "Numéro de carte invalide"
	MsgExpiryRequired = "La date d'expiration est requise"
	MsgExpiryBadMonth = "Mois invalide"
	MsgExpiryExpired  = "Carte expirée"
	MsgCVCRequired    = "Le code CVC est requis"
	MsgCVCLength      = "Le CVC doit comporter 3 chiffres"
)

// Result reports the outcome of validating the checkout form. Empty
// field messages mean the field passed.
type Result struct {
	OK        bool   `json:"ok"`
	NumberErr string `json:"cardNumberError,omitempty"`
	ExpiryErr string `json:"expiryDateError,omitempty"`
	CVCErr    string `json:"cvcError,omitempty"`
}

// Validate checks the three card fields against the rules of the mock
// gateway: a 16-digit Luhn-valid number, an MM/YY expiry not in the
// past, a 3-digit CVC. All failures are reported, none are corrected,
// and separators in the input are ignored.
func Validate(number, expiry, cvc string, now time.Time) Result {
	res := Result{OK: true}

	digits := Digits(number)
	switch {
	case digits == "":
		res.NumberErr = MsgNumberRequired
	case len(digits) != numberMaxDigits:
		res.NumberErr = MsgNumberLength
	case !luhnValid(digits):
		res.NumberErr = MsgNumberInvalid
	}

	expiryDigits := Digits(expiry)
	if expiryDigits == "" {
		res.ExpiryErr = MsgExpiryRequired
	} else {
		month, year := parseExpiry(expiryDigits)
		curYear, curMonth := now.Year(), int(now.Month())
		switch {
		case month < 1 || month > 12:
			res.ExpiryErr = MsgExpiryBadMonth
		case year < curYear || (year == curYear && month < curMonth):
			res.ExpiryErr = MsgExpiryExpired
		}
	}

	cvcDigits := Digits(cvc)
	switch {
	case cvcDigits == "":
		res.CVCErr = MsgCVCRequired
	case len(cvcDigits) != cvcMaxDigits:
		res.CVCErr = MsgCVCLength
	}

	res.OK = res.NumberErr == "" && res.ExpiryErr == "" && res.CVCErr == ""
	return res
}

// luhnValid runs the mod-10 checksum right to left, doubling every
// second digit starting from the second-from-last and folding doubled
// values above 9 back into a single digit.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// parseExpiry splits a digit string into month and full year, reading
// a two-digit year as 2000+YY.
func parseExpiry(digits string) (month, year int) {
	if len(digits) > 2 {
		month, _ = strconv.Atoi(digits[:2])
		yy, _ := strconv.Atoi(digits[2:])
		year = 2000 + yy
		return month, year
	}
	month, _ = strconv.Atoi(digits)
	return month, 0
}

package domain

import "strings"

// Country-code prefixes recognized on 11+ digit numbers.
var foreignCountryCodes = []string{"63", "44", "61", "91", "971"}

// NormalizePhoneNumber converts a user-supplied phone number into canonical
// "+<countrycode><digits>" form. Pure and deterministic. Rules, in order:
// exactly 10 digits is domestic (+1); 11+ digits starting with "1" keeps its
// country code; 11+ digits starting with a recognized foreign country code
// keeps that code; anything else is rejected with ErrInvalidPhoneNumber.
func NormalizePhoneNumber(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return "", ErrInvalidPhoneNumber
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) >= 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, nil
	case len(digits) >= 11 && hasForeignPrefix(digits):
		return "+" + digits, nil
	default:
		return "", ErrInvalidPhoneNumber
	}
}

func hasForeignPrefix(digits string) bool {
	for _, cc := range foreignCountryCodes {
		if strings.HasPrefix(digits, cc) {
			return true
		}
	}
	return false
}

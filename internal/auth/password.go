package auth

import "unicode"

// ValidPassword applies the signup strength rule: at least 10 characters
// combining 2 of the 4 classes (upper, lower, digit, special), or at least
// 8 characters combining 3 of them. Lengths count characters, not bytes.
func ValidPassword(password string) bool {
	var upper, lower, digit, special bool
	runes := 0
	for _, r := range password {
		runes++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	classes := 0
	for _, ok := range []bool{upper, lower, digit, special} {
		if ok {
			classes++
		}
	}

	switch {
	case runes >= 10:
		return classes >= 2
	case runes >= 8:
		return classes >= 3
	default:
		return false
	}
}

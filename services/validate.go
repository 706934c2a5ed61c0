package services

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	passwordMinLen   = 8
	passwordMaxLen   = 16
	passwordSpecials = "!@#$%^&*()-_=+?"
)

const passwordPolicyMessage = "password must be 8-16 characters long and contain a digit, " +
	"a lowercase letter, an uppercase letter and one of " + passwordSpecials

// CheckPassword applies the strict password policy.
func CheckPassword(password string) error {
	length := len([]rune(password))
	if length < passwordMinLen || length > passwordMaxLen {
		return forbidden(passwordPolicyMessage)
	}

	var digit, lower, upper, special bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	if !digit || !lower || !upper || !special {
		return forbidden(passwordPolicyMessage)
	}
	return nil
}

// ParseShares accepts only positive whole numbers.
func ParseShares(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, forbidden("must provide shares")
	}

	shares, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || shares <= 0 {
		return 0, forbidden("must provide shares as a positive integer")
	}
	return shares, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

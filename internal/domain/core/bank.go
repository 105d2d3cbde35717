package core

import (
	"strings"
	"unicode"
)

// ValidRoutingNumber applies the ABA checksum: 3(d1+d4+d7) + 7(d2+d5+d8) + (d3+d6+d9) ≡ 0 mod 10.
func ValidRoutingNumber(routing string) bool {
	if len(routing) != 9 {
		return false
	}
	weights := [3]int{3, 7, 1}
	sum := 0
	for i, r := range routing {
		if r < '0' || r > '9' {
			return false
		}
		sum += int(r-'0') * weights[i%3]
	}
	return sum%10 == 0
}

func ValidateBankDetails(details BankDetails) (BankDetails, error) {
	clean := BankDetails{
		Routing:        strings.TrimSpace(details.Routing),
		Account:        strings.TrimSpace(details.Account),
		ConfirmAccount: strings.TrimSpace(details.ConfirmAccount),
	}
	if !ValidRoutingNumber(clean.Routing) {
		return BankDetails{}, ErrInvalidRouting
	}
	if len(clean.Account) < 4 || len(clean.Account) > 17 || strings.IndexFunc(clean.Account, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return BankDetails{}, ErrInvalidAccount
	}
	if clean.Account != clean.ConfirmAccount {
		return BankDetails{}, ErrAccountMismatch
	}
	return clean, nil
}

// MaskAccount keeps the last four digits.
func MaskAccount(value string) string {
	if len(value) <= 4 {
		return value
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

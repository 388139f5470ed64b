package core

import (
	"github.com/wansing/healthregistry/util"
)

// ElderlyAge is the age from which a person counts as elderly (Estatuto do Idoso).
const ElderlyAge = 60

// ValidCPF checks length and check digits of a CPF. Formatting characters are ignored.
//
// The result is advisory. A CPF with wrong check digits is still accepted, the user is warned.
func ValidCPF(cpf string) bool {

	var digits = util.Digits(cpf)
	if len(digits) != 11 {
		return false
	}

	// 000.000.000-00, 111.111.111-11 etc. pass the checksum but are invalid
	var allEqual = true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}

	return checkDigit(digits[:9]) == digits[9] && checkDigit(digits[:10]) == digits[10]
}

// checkDigit computes the next check digit of a CPF prefix with 9 or 10 digits.
func checkDigit(prefix string) byte {
	var sum = 0
	var weight = len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	var rest = 11 - sum%11
	if rest >= 10 {
		rest = 0
	}
	return byte('0' + rest)
}

// FormatCPF returns the CPF as 000.000.000-00.
func FormatCPF(cpf string) string {
	return util.Mask(util.Digits(cpf), "###.###.###-##")
}

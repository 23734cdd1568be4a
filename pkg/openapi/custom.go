package openapi

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidCPF = errors.New("invalid cpf: must consist of 11 digits, optionally punctuated as 000.000.000-00, with valid check digits")

var cpfValidationRegex = regexp.MustCompile(`^[0-9]{3}\.?[0-9]{3}\.?[0-9]{3}-?[0-9]{2}$`)

// CPF is a Brazilian taxpayer number as accepted by user registration.
// Value holds the bare digits.
type CPF struct {
	Value string
}

func (n *CPF) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	if !cpfValidationRegex.MatchString(s) {
		return ErrInvalidCPF
	}

	digits := strings.NewReplacer(".", "", "-", "").Replace(s)

	if !ValidCPF(digits) {
		return ErrInvalidCPF
	}

	*n = CPF{
		Value: digits,
	}

	return nil
}

func (n CPF) MarshalText() ([]byte, error) {
	return []byte(n.Value), nil
}

// ValidCPF checks an 11 digit CPF.  Repeated digits e.g. 111.111.111-11
// satisfy the checksum but are not issued, so are rejected.
func ValidCPF(digits string) bool {
	if len(digits) != 11 || strings.Count(digits, digits[:1]) == 11 {
		return false
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}

	first, second := cpfCheckDigits(digits[:9])

	return digits[9] == first && digits[10] == second
}

// CompleteCPF appends the check digits to a 9 digit base number.
func CompleteCPF(base string) (string, error) {
	if len(base) != 9 || strings.Trim(base, "0123456789") != "" {
		return "", ErrInvalidCPF
	}

	first, second := cpfCheckDigits(base)

	cpf := base + string([]byte{first, second})

	if !ValidCPF(cpf) {
		return "", ErrInvalidCPF
	}

	return cpf, nil
}

func cpfCheckDigits(base string) (byte, byte) {
	digit := func(s string) byte {
		sum := 0

		for i := range len(s) {
			sum += int(s[i]-'0') * (len(s) + 1 - i)
		}

		if remainder := sum % 11; remainder >= 2 {
			return byte('0' + 11 - remainder)
		}

		return '0'
	}

	first := digit(base)

	return first, digit(base + string(first))
}

// Package inn реализует проверку ИНН (идентификационного номера
// налогоплательщика): 10 цифр для организаций, 12 для ИП, с контрольными
// разрядами по весовым коэффициентам ФНС.
package inn

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidFormat значение содержит нецифровые символы
	ErrInvalidFormat = errors.New("инн: недопустимые символы в номере")
	// ErrInvalidLength длина номера не равна 10 или 12
	ErrInvalidLength = errors.New("инн: длина номера должна быть 10 или 12 цифр")
	// ErrInvalidChecksum контрольные разряды не сходятся
	ErrInvalidChecksum = errors.New("инн: неверная контрольная сумма")
)

var (
	companyWeights   = []int{2, 4, 10, 3, 5, 9, 4, 6, 8}
	personalWeights1 = []int{7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
	personalWeights2 = []int{3, 7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
)

func checkDigit(digits string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += w * int(digits[i]-'0')
	}
	return byte(sum%11%10) + '0'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Validate очищает строку от пробелов и проверяет формат, длину и контрольную
// сумму. Возвращает нормализованный номер либо одну из трех ошибок:
// ErrInvalidFormat, ErrInvalidLength, ErrInvalidChecksum.
func Validate(raw string) (string, error) {
	number := strings.Join(strings.Fields(raw), "")
	if !isDigits(number) {
		return "", ErrInvalidFormat
	}

	switch len(number) {
	case 10:
		if checkDigit(number, companyWeights) != number[9] {
			return "", ErrInvalidChecksum
		}
	case 12:
		d1 := checkDigit(number, personalWeights1)
		d2 := checkDigit(number[:10]+string(d1), personalWeights2)
		if d1 != number[10] || d2 != number[11] {
			return "", ErrInvalidChecksum
		}
	default:
		return "", ErrInvalidLength
	}

	return number, nil
}

// IsValid сообщает, является ли строка корректным ИНН. Никогда не паникует.
func IsValid(raw string) bool {
	_, err := Validate(raw)
	return err == nil
}

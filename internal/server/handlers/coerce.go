package handlers

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// CoerceValue приводит текст поля value к float64 так же, как parseFloat
// в браузере: берется самый длинный числовой префикс, "12abc" дает 12.
// Нечисловой текст, бесконечность и -0 дают 0.
func CoerceValue(s string) float64 {
	prefix := numericPrefix(strings.TrimLeftFunc(s, unicode.IsSpace))
	if prefix == "" {
		return 0
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) || v == 0 {
		return 0
	}
	return v
}

// numericPrefix возвращает префикс вида [+-]digits[.digits][e[+-]digits]
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}

	// экспонента учитывается только если за ней есть цифры
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}

	return s[:i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

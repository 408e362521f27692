package model

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// FormatPrice renders whole Australian dollars, e.g. $28,500,000
func FormatPrice(price float64) string {
	n := int64(math.Round(price))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

// Slugify lowercases a name and joins whitespace runs with '-'
func Slugify(name string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(name), unicode.IsSpace), "-")
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

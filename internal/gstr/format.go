package gstr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR renders a monetary value for display: fixed two decimals,
// Indian digit grouping (groups of two after the first three digits) and
// the rupee glyph. Negative values carry a leading minus before the glyph
// so a negative aggregate stays visually distinct from a positive one.
//
//	FormatINR(1234567.5) -> "₹12,34,567.50"
//	FormatINR(-98.7)     -> "-₹98.70"
func FormatINR(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(s, ".")
	grouped := groupIndian(intPart)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	b.WriteString(grouped)
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

// groupIndian inserts commas per the Indian convention: the last three
// digits form one group, every preceding group has two digits.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}

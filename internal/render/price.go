package render

import (
	"strings"

	"github.com/shopspring/decimal"
)

// GroupIndian applies South-Asian digit grouping to a string of digits: the
// last three digits form one group and the rest are grouped in twos
// ("1234567" becomes "12,34,567"). A leading minus sign is preserved.
func GroupIndian(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/2)
	b.WriteString(sign)
	lead := len(head) % 2
	if lead > 0 {
		b.WriteString(head[:lead])
	}
	for i := lead; i < len(head); i += 2 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}

// FormatPrice renders an amount for display, e.g. "₹1,23,456" or
// "₹1,234.50". Decimals appear only for fractional amounts.
func FormatPrice(amount decimal.Decimal, symbol string) string {
	fixed := PriceAmount(amount)
	whole, frac, _ := strings.Cut(fixed, ".")
	out := symbol + GroupIndian(whole)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// PriceAmount renders the machine-readable amount: "199" for whole amounts,
// "199.50" otherwise.
func PriceAmount(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.Truncate(0).String()
	}
	return amount.StringFixed(2)
}

package rates

import (
	"strconv"

	"finbot/internal/core"
)

var symbols = map[core.Currency]string{
	core.KZT: "тг",
	core.UZS: "сум",
	core.USD: "$",
}

// Format renders an amount with its currency symbol and thousands
// separators, rounded to whole units: "$1,234", "5,000 тг", "120,000 сум".
// Unknown currencies fall back to their raw code as a suffix. Purely
// presentational; normalization never goes through here.
func Format(m core.Money, c core.Currency) string {
	units := m.Units()
	neg := units < 0
	if neg {
		units = -units
	}
	s := groupThousands(units)
	if neg {
		s = "-" + s
	}
	if c == core.USD {
		return "$" + s
	}
	symbol, ok := symbols[c]
	if !ok {
		symbol = string(c)
	}
	return s + " " + symbol
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

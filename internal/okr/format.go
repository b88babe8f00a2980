package okr

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatValue renders x for the dashboard: one decimal and a % sign for
// percentages, "R$ " and two grouped decimals for currency, a grouped whole
// number otherwise. Grouping uses ',' for thousands and '.' for decimals.
func FormatValue(x float64, kind FormatKind) string {
	switch kind {
	case FormatPercentage:
		return strconv.FormatFloat(x, 'f', 1, 64) + "%"
	case FormatCurrency:
		return "R$ " + groupThousands(x, 2)
	default:
		return groupThousands(x, 0)
	}
}

// FormatRatio renders a progress ratio the way progress labels show it.
func FormatRatio(ratio float64) string {
	return strconv.FormatFloat(ratio, 'f', 1, 64) + "%"
}

var ptBRSeparators = strings.NewReplacer(",", ".", ".", ",")

// SheetValue serializes x back into the sheet's locale for the given kind,
// so that Normalize(SheetValue(x, kind)) == x: "45,5%", "R$ 1.234,50",
// "1.234" or "1.234,5".
func SheetValue(x float64, kind FormatKind) string {
	switch kind {
	case FormatPercentage:
		return ptBRSeparators.Replace(strconv.FormatFloat(x, 'f', -1, 64)) + "%"
	case FormatCurrency:
		return "R$ " + ptBRSeparators.Replace(groupThousands(x, 2))
	default:
		return ptBRSeparators.Replace(groupThousands(x, -1))
	}
}

// groupThousands formats x with the given number of decimals (-1 for the
// shortest exact form) and ',' between thousands groups.
func groupThousands(x float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(x), 'f', decimals, 64)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return strconv.FormatFloat(x, 'f', decimals, 64)
	}
	out := humanize.Comma(n)
	if hasFrac {
		out += "." + frac
	}
	if x < 0 && strings.Trim(s, "0.") != "" {
		out = "-" + out
	}
	return out
}

package report

import (
	"fmt"
	"strings"

	"finbot/internal/core"
)

const (
	chartTopN = 10
	// barWidth is the bar resolution: fills are rounded to 1/12 of the
	// largest category.
	barWidth = 12
)

// RenderChart draws a horizontal bar chart of the top expense categories.
// Each bar's fill is the category's amount relative to the largest one,
// rounded to the nearest bar cell. Empty input yields the no-data sentinel
// rather than an empty chart.
func RenderChart(sum Summary, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s</b>\n", title)

	if sum.Count == 0 || len(sum.ByCategory) == 0 {
		b.WriteString("\n" + NoData)
		return b.String()
	}

	top := sum.ByCategory
	if len(top) > chartTopN {
		top = top[:chartTopN]
	}
	max := top[0].Amount.Cents

	b.WriteString("\n")
	for _, ct := range top {
		fill := barFill(ct.Amount.Cents, max)
		bar := strings.Repeat("▰", fill) + strings.Repeat("▱", barWidth-fill)
		label := core.CategoryLabel(core.Expense, ct.Key)
		fmt.Fprintf(&b, "%s %s — <b>%s</b> (%.0f%%)\n",
			bar, label, fmtBase(ct.Amount), sum.ExpensePercent(ct.Amount))
	}

	return strings.TrimRight(b.String(), "\n")
}

// barFill rounds amount/max to bar cells, keeping at least one cell filled
// for any non-zero amount so small categories stay visible.
func barFill(amount, max int64) int {
	if max <= 0 || amount <= 0 {
		return 0
	}
	fill := int((amount*barWidth + max/2) / max)
	if fill < 1 {
		fill = 1
	}
	if fill > barWidth {
		fill = barWidth
	}
	return fill
}

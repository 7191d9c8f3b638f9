package report

import (
	"fmt"
	"strings"

	"finbot/internal/core"
	"finbot/internal/rates"
)

// NoData is the sentinel body for an empty window.
const NoData = "Записей нет."

// RenderText turns a Summary into the chat report. Layout: balance block
// first (only when any income exists), expense breakdown descending by
// amount, income breakdown, record count, and optionally the all-time
// balance on hand from a supplementary aggregate.
func RenderText(sum Summary, title string, allTime *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s</b>\n", title)

	if sum.Count == 0 {
		b.WriteString("\n" + NoData)
		return b.String()
	}

	if sum.TotalIncome.Cents > 0 {
		b.WriteString("\n")
		if sum.Balance.Cents >= 0 {
			fmt.Fprintf(&b, "💰 Баланс: <b>+%s</b>\n", fmtBase(sum.Balance))
		} else {
			fmt.Fprintf(&b, "🔻 Баланс: <b>-%s</b>\n", fmtBase(sum.Balance.Abs()))
		}
		fmt.Fprintf(&b, "📈 Доход: <b>%s</b>\n", fmtBase(sum.TotalIncome))
		fmt.Fprintf(&b, "📉 Расход: <b>%s</b>\n", fmtBase(sum.TotalExpense))
	}

	if len(sum.ByCategory) > 0 {
		b.WriteString("\n")
		for _, ct := range sum.ByCategory {
			label := core.CategoryLabel(core.Expense, ct.Key)
			fmt.Fprintf(&b, "%s: <b>%s</b> (%.0f%%)\n", label, fmtBase(ct.Amount), sum.ExpensePercent(ct.Amount))
		}
	}

	if len(sum.ByIncomeCategory) > 0 {
		b.WriteString("\n📈 Доходы:\n")
		for _, ct := range sum.ByIncomeCategory {
			label := core.CategoryLabel(core.Income, ct.Key)
			fmt.Fprintf(&b, "%s: <b>%s</b>\n", label, fmtBase(ct.Amount))
		}
	}

	if sum.TotalIncome.Cents == 0 {
		// Expense-only view: no balance line, just the total.
		fmt.Fprintf(&b, "\n💰 Итого: <b>%s</b>\n", fmtBase(sum.TotalExpense))
	}

	fmt.Fprintf(&b, "\n📝 Записей: %d", sum.Count)

	if allTime != nil && allTime.Count > 0 {
		if allTime.Balance.Cents >= 0 {
			fmt.Fprintf(&b, "\n💼 На руках: <b>+%s</b>", fmtBase(allTime.Balance))
		} else {
			fmt.Fprintf(&b, "\n💼 На руках: <b>-%s</b>", fmtBase(allTime.Balance.Abs()))
		}
	}

	return b.String()
}

func fmtBase(m core.Money) string {
	return rates.Format(m, core.KZT)
}

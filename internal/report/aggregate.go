// Package report aggregates transaction records into currency-normalized
// summaries and renders them as chat-ready text and bar charts.
package report

import (
	"context"
	"sort"

	"finbot/internal/core"
)

// Converter normalizes a single amount to the base currency.
type Converter interface {
	ToBase(ctx context.Context, m core.Money, c core.Currency) core.Money
}

type CategoryTotal struct {
	Key    string
	Amount core.Money
}

// Summary is the aggregate over one record window. All amounts are in the
// base currency; each record is converted individually before summation so
// mixed-currency sets never sum raw.
type Summary struct {
	TotalIncome  core.Money
	TotalExpense core.Money
	Balance      core.Money

	// Category breakdowns, descending by amount. Ties keep first-seen
	// category order.
	ByCategory       []CategoryTotal // expense records
	ByIncomeCategory []CategoryTotal // income records

	Count int
}

// ExpensePercent returns a category's share of total expenses in percent.
// A zero expense total yields 0 for every category.
func (s Summary) ExpensePercent(amount core.Money) float64 {
	return percent(amount.Cents, s.TotalExpense.Cents)
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Aggregate reduces a record set to a Summary. Empty input yields the zero
// Summary; the renderer tells "no data" from "zero balance" via Count.
func Aggregate(ctx context.Context, records []core.Record, conv Converter) Summary {
	sum := Summary{Count: len(records)}

	expense := newCategorySums()
	income := newCategorySums()

	for _, rec := range records {
		base := conv.ToBase(ctx, rec.Amount, rec.Currency)
		if rec.Type == core.Income {
			sum.TotalIncome.Cents += base.Cents
			income.add(rec.Category, base.Cents)
		} else {
			// Legacy records without a type count as expenses.
			sum.TotalExpense.Cents += base.Cents
			expense.add(rec.Category, base.Cents)
		}
	}

	sum.Balance.Cents = sum.TotalIncome.Cents - sum.TotalExpense.Cents
	sum.ByCategory = expense.sorted()
	sum.ByIncomeCategory = income.sorted()
	return sum
}

// categorySums accumulates per-category totals, remembering first-seen key
// order for stable tie-breaking.
type categorySums struct {
	totals map[string]int64
	order  []string
}

func newCategorySums() *categorySums {
	return &categorySums{totals: make(map[string]int64)}
}

func (c *categorySums) add(key string, cents int64) {
	if _, seen := c.totals[key]; !seen {
		c.order = append(c.order, key)
	}
	c.totals[key] += cents
}

func (c *categorySums) sorted() []CategoryTotal {
	if len(c.order) == 0 {
		return nil
	}
	out := make([]CategoryTotal, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, CategoryTotal{Key: key, Amount: core.Money{Cents: c.totals[key]}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

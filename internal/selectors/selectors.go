// Package selectors derives every reported figure from a ledger snapshot.
// All functions are pure: they never mutate the snapshot and recompute from
// the full transaction list on each call.
package selectors

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"financeflow/internal/core"
)

const (
	// MaxBudgetPercent leaves headroom above 100 so overshoot stays visible.
	MaxBudgetPercent = 130
	// NearLimitPercent is where a budget starts to warn.
	NearLimitPercent = 80
)

type (
	// Range is an inclusive date range. A zero bound is unbounded.
	Range struct {
		From core.Date
		To   core.Date
	}

	Totals struct {
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
		Net     core.Money `json:"net"`
	}

	CategorySum struct {
		CategoryID string     `json:"categoryId"`
		Label      string     `json:"label"`
		Value      core.Money `json:"value"`
	}

	Point struct {
		Date  core.Date  `json:"date"`
		Value core.Money `json:"value"`
	}

	BudgetLine struct {
		Category  core.Category `json:"category"`
		Spent     core.Money    `json:"spent"`
		Limit     core.Money    `json:"limit"`
		Percent   float64       `json:"percent"`
		Remaining core.Money    `json:"remaining"`
		IsOver    bool          `json:"isOver"`
	}

	Alerts struct {
		Over []core.Category `json:"over"`
		Near []core.Category `json:"near"`
	}

	Filter struct {
		Query      string
		Type       core.TxType
		CategoryID string
		Range      Range
	}

	Report struct {
		Totals
		Count int `json:"count"`
	}
)

// ParseRange builds a Range from optional YYYY-MM-DD bounds. A bound past the
// end of its month is clamped to the last real day.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if strings.TrimSpace(from) != "" {
		if r.From, err = core.ParseBoundary(from); err != nil {
			return Range{}, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if r.To, err = core.ParseBoundary(to); err != nil {
			return Range{}, err
		}
	}
	return r, nil
}

// MonthRange covers every day of m.
func MonthRange(m core.Month) Range {
	return Range{From: m.FirstDay(), To: m.LastDay()}
}

// Contains reports whether d falls inside r, bounds included.
func (r Range) Contains(d core.Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// BarWidth is Percent clamped for rendering a progress bar.
func (b BudgetLine) BarWidth() float64 {
	return clamp(b.Percent, 0, 100)
}

// CategoryLabel resolves a category id to its name, or the placeholder label.
func CategoryLabel(s core.Snapshot, id string) string {
	if c, ok := s.Category(id); ok {
		return c.Name
	}
	return core.UnknownCategoryLabel
}

// BalanceAllTime is the signed sum of every transaction.
func BalanceAllTime(s core.Snapshot) core.Money {
	var total core.Money
	for _, tx := range s.Transactions {
		total = total.Add(tx.Signed())
	}
	return total
}

// MonthTotals sums income and expense for transactions dated in m.
func MonthTotals(s core.Snapshot, m core.Month) Totals {
	return totals(s, MonthRange(m))
}

func totals(s core.Snapshot, r Range) Totals {
	var t Totals
	for _, tx := range s.Transactions {
		if !r.Contains(tx.Date) {
			continue
		}
		if tx.Type == core.Income {
			t.Income = t.Income.Add(tx.Amount)
		} else {
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// ExpensesByCategory sums expenses per category within r, largest first.
// Equal values keep the order in which their category first appeared.
func ExpensesByCategory(s core.Snapshot, r Range) []CategorySum {
	index := map[string]int{}
	out := []CategorySum{}
	for _, tx := range s.Transactions {
		if tx.Type != core.Expense || !r.Contains(tx.Date) {
			continue
		}
		i, ok := index[tx.CategoryID]
		if !ok {
			i = len(out)
			index[tx.CategoryID] = i
			out = append(out, CategorySum{CategoryID: tx.CategoryID, Label: CategoryLabel(s, tx.CategoryID)})
		}
		out[i].Value = out[i].Value.Add(tx.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Value.Cents > out[b].Value.Cents
	})
	return out
}

// DailyNetWindow returns one point per day for the days ending today, oldest
// first, including days without activity. Values are the running sum of each
// day's net.
func DailyNetWindow(s core.Snapshot, today core.Date, days int) []Point {
	if days <= 0 {
		return []Point{}
	}
	start := today.AddDays(-(days - 1))
	net := dailyNet(s, Range{From: start, To: today})

	out := make([]Point, 0, days)
	var running core.Money
	for d := start; !d.After(today); d = d.AddDays(1) {
		running = running.Add(net[d])
		out = append(out, Point{Date: d, Value: running})
	}
	return out
}

// DailyNetRange returns the running net for days within r that have at least
// one transaction, oldest first. Fewer than two points are replaced by a flat
// zero line on today so a chart always has a segment to draw.
func DailyNetRange(s core.Snapshot, r Range, today core.Date) []Point {
	net := dailyNet(s, r)
	dates := make([]core.Date, 0, len(net))
	for d := range net {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	out := make([]Point, 0, len(dates))
	var running core.Money
	for _, d := range dates {
		running = running.Add(net[d])
		out = append(out, Point{Date: d, Value: running})
	}
	if len(out) < 2 {
		return []Point{{Date: today}, {Date: today}}
	}
	return out
}

func dailyNet(s core.Snapshot, r Range) map[core.Date]core.Money {
	net := map[core.Date]core.Money{}
	for _, tx := range s.Transactions {
		if r.Contains(tx.Date) {
			net[tx.Date] = net[tx.Date].Add(tx.Signed())
		}
	}
	return net
}

// BudgetProgress reports spend against limit for month m, one line per
// category that has a positive limit or any spend in m, in category order.
func BudgetProgress(s core.Snapshot, m core.Month) []BudgetLine {
	spent := map[string]core.Money{}
	for _, c := range ExpensesByCategory(s, MonthRange(m)) {
		spent[c.CategoryID] = c.Value
	}
	limits := map[string]core.Money{}
	for _, b := range s.Budgets {
		if b.Month == m {
			limits[b.CategoryID] = b.Limit
		}
	}

	out := []BudgetLine{}
	for _, c := range s.Categories {
		line := BudgetLine{Category: c, Spent: spent[c.ID], Limit: limits[c.ID]}
		if !line.Limit.IsPositive() && line.Spent.IsZero() {
			continue
		}
		if line.Limit.IsPositive() {
			ratio := line.Spent.Decimal().Div(line.Limit.Decimal()).Mul(decimal.NewFromInt(100))
			line.Percent = clamp(ratio.InexactFloat64(), 0, MaxBudgetPercent)
			line.Remaining = line.Limit.Sub(line.Spent)
			line.IsOver = line.Spent.Cents > line.Limit.Cents
		}
		out = append(out, line)
	}
	return out
}

// BudgetAlerts splits budget lines into those over their limit and those at
// or above NearLimitPercent but not over.
func BudgetAlerts(lines []BudgetLine) Alerts {
	a := Alerts{Over: []core.Category{}, Near: []core.Category{}}
	for _, l := range lines {
		switch {
		case l.IsOver:
			a.Over = append(a.Over, l.Category)
		case l.Limit.IsPositive() && l.Percent >= NearLimitPercent:
			a.Near = append(a.Near, l.Category)
		}
	}
	return a
}

// GoalProgress is saved/target as a percentage clamped to [0, 100].
func GoalProgress(g core.Goal) float64 {
	if !g.Target.IsPositive() {
		return 0
	}
	ratio := g.Saved.Decimal().Div(g.Target.Decimal()).Mul(decimal.NewFromInt(100))
	return clamp(ratio.InexactFloat64(), 0, 100)
}

// SortedTransactions returns the transactions newest first. Same-day entries
// keep their stored order.
func SortedTransactions(s core.Snapshot) []core.Transaction {
	out := append([]core.Transaction{}, s.Transactions...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.After(out[b].Date) })
	return out
}

// Recent returns at most n of the newest transactions.
func Recent(s core.Snapshot, n int) []core.Transaction {
	sorted := SortedTransactions(s)
	if n < 0 {
		n = 0
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// FilterTransactions returns matching transactions newest first. Query
// matches the note case-insensitively; empty fields match everything.
func FilterTransactions(s core.Snapshot, f Filter) []core.Transaction {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := []core.Transaction{}
	for _, tx := range SortedTransactions(s) {
		if q != "" && !strings.Contains(strings.ToLower(tx.Note), q) {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
			continue
		}
		if !f.Range.Contains(tx.Date) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Summarize totals transactions within r and counts them.
func Summarize(s core.Snapshot, r Range) Report {
	rep := Report{Totals: totals(s, r)}
	for _, tx := range s.Transactions {
		if r.Contains(tx.Date) {
			rep.Count++
		}
	}
	return rep
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package selectors

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financeflow/internal/core"
)

func tx(id string, typ core.TxType, date string, cat string, cents int64) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{ID: id, Type: typ, Date: d, CategoryID: cat, Amount: core.Cents(cents)}
}

func ledger(txs ...core.Transaction) core.Snapshot {
	return core.Snapshot{
		Settings:     core.DefaultSettings(),
		Categories:   core.DefaultCategories(),
		Transactions: txs,
	}
}

func month(y int, m time.Month) core.Month {
	return core.Month{Year: y, Month: m}
}

func TestScenarioMonthTotalsAndBalance(t *testing.T) {
	s := ledger(
		tx("1", core.Income, "2025-03-02", "cat_other", 100000),
		tx("2", core.Expense, "2025-03-20", "cat_food", 40000),
	)
	got := MonthTotals(s, month(2025, time.March))
	assert.Equal(t, Totals{Income: core.Cents(100000), Expense: core.Cents(40000), Net: core.Cents(60000)}, got)
	assert.Equal(t, core.Cents(60000), BalanceAllTime(s))
	assert.Equal(t, Totals{}, MonthTotals(s, month(2025, time.April)))
}

func TestScenarioBudgetOverLimit(t *testing.T) {
	m := month(2025, time.March)
	s := ledger(tx("1", core.Expense, "2025-03-05", "cat_food", 13000))
	s.Budgets = []core.Budget{{ID: "b", Month: m, CategoryID: "cat_food", Limit: core.Cents(10000)}}

	lines := BudgetProgress(s, m)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.True(t, line.IsOver)
	assert.Equal(t, 100.0, line.BarWidth())
	assert.InDelta(t, 130.0, line.Percent, 1e-9)
	assert.Equal(t, core.Cents(-3000), line.Remaining)
}

func TestBudgetProgressClampsAndFilters(t *testing.T) {
	m := month(2025, time.March)
	s := ledger(
		tx("1", core.Expense, "2025-03-05", "cat_food", 50000),
		tx("2", core.Expense, "2025-03-06", "cat_fun", 900),
		tx("3", core.Expense, "2025-02-28", "cat_rent", 90000),
		tx("4", core.Income, "2025-03-06", "cat_health", 900),
	)
	s.Budgets = []core.Budget{
		{ID: "a", Month: m, CategoryID: "cat_food", Limit: core.Cents(10000)},
		{ID: "b", Month: m, CategoryID: "cat_fun", Limit: core.Cents(1000)},
		{ID: "c", Month: m, CategoryID: "cat_subs", Limit: core.Cents(2000)},
		{ID: "d", Month: month(2025, time.February), CategoryID: "cat_rent", Limit: core.Cents(1)},
	}

	lines := BudgetProgress(s, m)
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.Category.ID)
		assert.GreaterOrEqual(t, l.Percent, 0.0)
		assert.LessOrEqual(t, l.Percent, float64(MaxBudgetPercent))
		assert.LessOrEqual(t, l.BarWidth(), 100.0)
		assert.Equal(t, l.Limit.IsPositive() && l.Spent.Cents > l.Limit.Cents, l.IsOver)
	}
	assert.Equal(t, []string{"cat_food", "cat_fun", "cat_subs"}, ids)

	assert.Equal(t, float64(MaxBudgetPercent), lines[0].Percent)
	assert.InDelta(t, 90.0, lines[1].Percent, 1e-9)
	assert.Equal(t, 0.0, lines[2].Percent)
	assert.Equal(t, core.Cents(2000), lines[2].Remaining)

	alerts := BudgetAlerts(lines)
	assert.Equal(t, []core.Category{lines[0].Category}, alerts.Over)
	assert.Equal(t, []core.Category{lines[1].Category}, alerts.Near)
}

func TestBudgetProgressSpendWithoutLimit(t *testing.T) {
	m := month(2025, time.March)
	s := ledger(tx("1", core.Expense, "2025-03-05", "cat_food", 500))
	lines := BudgetProgress(s, m)
	require.Len(t, lines, 1)
	assert.Equal(t, 0.0, lines[0].Percent)
	assert.Equal(t, core.Money{}, lines[0].Remaining)
	assert.False(t, lines[0].IsOver)
}

func TestGoalProgress(t *testing.T) {
	cases := []struct {
		saved, target int64
		want          float64
	}{
		{0, 1000, 0},
		{250, 1000, 25},
		{1000, 1000, 100},
		{5000, 1000, 100},
		{100, 0, 0},
	}
	for _, tc := range cases {
		got := GoalProgress(core.Goal{Saved: core.Cents(tc.saved), Target: core.Cents(tc.target)})
		assert.InDelta(t, tc.want, got, 1e-9)
	}
}

func TestExpensesByCategory(t *testing.T) {
	s := ledger(
		tx("1", core.Expense, "2025-04-01", "cat_food", 1000),
		tx("2", core.Expense, "2025-04-10", "ghost", 5000),
		tx("3", core.Expense, "2025-04-30", "cat_food", 4500),
		tx("4", core.Income, "2025-04-15", "cat_food", 99999),
		tx("5", core.Expense, "2025-05-01", "cat_fun", 700),
		tx("6", core.Expense, "2025-04-12", "cat_fun", 5500),
	)

	r, err := ParseRange("2025-04-01", "2025-04-31")
	require.NoError(t, err)
	got := ExpensesByCategory(s, r)

	assert.Equal(t, []CategorySum{
		{CategoryID: "cat_food", Label: "Food", Value: core.Cents(5500)},
		{CategoryID: "cat_fun", Label: "Fun", Value: core.Cents(5500)},
		{CategoryID: "ghost", Label: core.UnknownCategoryLabel, Value: core.Cents(5000)},
	}, got)

	all := ExpensesByCategory(s, Range{})
	var sum core.Money
	for _, c := range all {
		sum = sum.Add(c.Value)
	}
	assert.Equal(t, core.Cents(1000+5000+4500+700+5500), sum)
}

func TestExpensesByCategorySumsToRangeExpense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := randomLedger(rng, 300)
	ranges := []Range{
		{},
		{From: core.NewDate(2024, 6, 1)},
		{To: core.NewDate(2024, 3, 31)},
		{From: core.NewDate(2024, 2, 1), To: core.NewDate(2024, 2, 29)},
	}
	for _, r := range ranges {
		var sum core.Money
		for _, c := range ExpensesByCategory(s, r) {
			sum = sum.Add(c.Value)
		}
		assert.Equal(t, Summarize(s, r).Expense, sum)
	}
}

func TestMonthlyNetAddsUpToBalance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := randomLedger(rng, 500)

	months := map[core.Month]bool{}
	for _, tr := range s.Transactions {
		months[tr.Date.YearMonth()] = true
	}
	var total core.Money
	for m := range months {
		total = total.Add(MonthTotals(s, m).Net)
	}
	assert.Equal(t, BalanceAllTime(s), total)
}

func TestDailyNetWindow(t *testing.T) {
	today := core.NewDate(2025, 3, 10)
	s := ledger(
		tx("old", core.Income, "2025-03-01", "cat_other", 99900),
		tx("1", core.Income, "2025-03-08", "cat_other", 10000),
		tx("2", core.Expense, "2025-03-08", "cat_food", 2500),
		tx("3", core.Expense, "2025-03-10", "cat_food", 500),
		tx("future", core.Expense, "2025-03-11", "cat_food", 100),
	)
	got := DailyNetWindow(s, today, 4)
	assert.Equal(t, []Point{
		{Date: core.NewDate(2025, 3, 7), Value: core.Cents(0)},
		{Date: core.NewDate(2025, 3, 8), Value: core.Cents(7500)},
		{Date: core.NewDate(2025, 3, 9), Value: core.Cents(7500)},
		{Date: core.NewDate(2025, 3, 10), Value: core.Cents(7000)},
	}, got)

	assert.Len(t, DailyNetWindow(s, today, 30), 30)
	assert.Empty(t, DailyNetWindow(s, today, 0))
}

func TestDailyNetRange(t *testing.T) {
	today := core.NewDate(2025, 6, 1)
	s := ledger(
		tx("1", core.Expense, "2025-04-20", "cat_food", 1000),
		tx("2", core.Income, "2025-04-02", "cat_other", 5000),
		tx("3", core.Income, "2025-04-20", "cat_other", 300),
	)
	r, err := ParseRange("2025-04-01", "2025-04-31")
	require.NoError(t, err)
	assert.Equal(t, []Point{
		{Date: core.NewDate(2025, 4, 2), Value: core.Cents(5000)},
		{Date: core.NewDate(2025, 4, 20), Value: core.Cents(4300)},
	}, DailyNetRange(s, r, today))

	single, err := ParseRange("2025-04-02", "2025-04-02")
	require.NoError(t, err)
	flat := []Point{{Date: today}, {Date: today}}
	assert.Equal(t, flat, DailyNetRange(s, single, today))
	assert.Equal(t, flat, DailyNetRange(ledger(), Range{}, today))
}

func TestRangeContainsClampedBoundary(t *testing.T) {
	r, err := ParseRange("", "2025-04-31")
	require.NoError(t, err)
	assert.True(t, r.Contains(core.NewDate(2025, 4, 30)))
	assert.False(t, r.Contains(core.NewDate(2025, 5, 1)))
	assert.True(t, r.Contains(core.NewDate(1999, 1, 1)))

	_, err = ParseRange("2025-13-01", "")
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestSortedRecentAndFilter(t *testing.T) {
	a := tx("a", core.Expense, "2025-01-01", "cat_food", 100)
	a.Note = "Coffee beans"
	b := tx("b", core.Income, "2025-01-03", "cat_other", 100)
	c := tx("c", core.Expense, "2025-01-03", "cat_fun", 100)
	c.Note = "cinema and COFFEE"
	s := ledger(a, b, c)

	sorted := SortedTransactions(s)
	assert.Equal(t, []string{"b", "c", "a"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	assert.Equal(t, "a", s.Transactions[0].ID, "input order untouched")

	assert.Len(t, Recent(s, 2), 2)
	assert.Len(t, Recent(s, 10), 3)
	assert.Empty(t, Recent(s, -1))

	byNote := FilterTransactions(s, Filter{Query: "coffee"})
	assert.Equal(t, []string{"c", "a"}, []string{byNote[0].ID, byNote[1].ID})

	byType := FilterTransactions(s, Filter{Type: core.Income})
	require.Len(t, byType, 1)
	assert.Equal(t, "b", byType[0].ID)

	byCat := FilterTransactions(s, Filter{CategoryID: "cat_food", Range: Range{From: core.NewDate(2025, 1, 2)}})
	assert.Empty(t, byCat)
}

func TestSummarize(t *testing.T) {
	s := ledger(
		tx("1", core.Income, "2025-01-01", "cat_other", 1000),
		tx("2", core.Expense, "2025-01-02", "cat_food", 250),
		tx("3", core.Expense, "2025-02-02", "cat_food", 250),
	)
	r, err := ParseRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)
	got := Summarize(s, r)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, core.Cents(750), got.Net)
}

func TestSelectorsDoNotMutate(t *testing.T) {
	s := ledger(
		tx("1", core.Expense, "2025-01-02", "cat_food", 250),
		tx("2", core.Income, "2025-01-05", "cat_other", 1000),
	)
	before := s.Clone()
	_ = SortedTransactions(s)
	_ = FilterTransactions(s, Filter{})
	_ = BudgetProgress(s, month(2025, 1))
	_ = DailyNetRange(s, Range{}, core.NewDate(2025, 1, 5))
	assert.Equal(t, before, s)
}

func randomLedger(rng *rand.Rand, n int) core.Snapshot {
	cats := core.DefaultCategories()
	start := core.NewDate(2024, 1, 1)
	txs := make([]core.Transaction, 0, n)
	for i := 0; i < n; i++ {
		typ := core.Expense
		if rng.Intn(3) == 0 {
			typ = core.Income
		}
		txs = append(txs, core.Transaction{
			ID:         core.NewID(),
			Type:       typ,
			Date:       start.AddDays(rng.Intn(400)),
			CategoryID: cats[rng.Intn(len(cats))].ID,
			Amount:     core.Cents(rng.Int63n(100000)),
		})
	}
	return ledger(txs...)
}

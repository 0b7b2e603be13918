package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.March, 9), d)
	assert.Equal(t, "2025-03-09", d.String())

	for _, bad := range []string{"", "2025-3-9", "2025-02-30", "09/03/2025", "2025-03-09T10:00"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestParseBoundaryClampsToMonthEnd(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2025-04-31", NewDate(2025, time.April, 30)},
		{"2025-02-31", NewDate(2025, time.February, 28)},
		{"2024-02-30", NewDate(2024, time.February, 29)},
		{"2025-01-31", NewDate(2025, time.January, 31)},
		{"2025-06-15", NewDate(2025, time.June, 15)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseBoundary(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"2025-13-01", "2025-04-32", "2025-04-00", "x"} {
		_, err := ParseBoundary(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02", m.String())
	assert.Equal(t, NewDate(2024, time.February, 1), m.FirstDay())
	assert.Equal(t, NewDate(2024, time.February, 29), m.LastDay())
	assert.True(t, m.Contains(NewDate(2024, time.February, 29)))
	assert.False(t, m.Contains(NewDate(2024, time.March, 1)))
	assert.Equal(t, m, NewDate(2024, time.February, 10).YearMonth())

	_, err = ParseMonth("2024-2")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date  `json:"d"`
		M Month `json:"m"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-01-05","m":"2025-01"}`), &v))
	assert.Equal(t, NewDate(2025, time.January, 5), v.D)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-01-05","m":"2025-01"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":12}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"d":null}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"m":"2025-1"}`), &v))
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{ID: "t1", Type: Expense, Date: NewDate(2025, 1, 1), CategoryID: "cat_food", Amount: Cents(100)}
	require.NoError(t, good.Validate())

	zeroAmount := good
	zeroAmount.Amount = Cents(0)
	assert.NoError(t, zeroAmount.Validate())

	bads := map[string]Transaction{
		"empty id":  {Type: Expense, Date: NewDate(2025, 1, 1), Amount: Cents(1)},
		"bad type":  {ID: "x", Type: "transfer", Date: NewDate(2025, 1, 1), Amount: Cents(1)},
		"zero date": {ID: "x", Type: Income, Amount: Cents(1)},
		"negative":  {ID: "x", Type: Income, Date: NewDate(2025, 1, 1), Amount: Cents(-1)},
	}
	for name, tx := range bads {
		assert.Error(t, tx.Validate(), name)
	}
}

func TestParseTxType(t *testing.T) {
	assert.Equal(t, Income, ParseTxType("INCOME"))
	assert.Equal(t, Income, ParseTxType(" income "))
	assert.Equal(t, Expense, ParseTxType(""))
	assert.Equal(t, Expense, ParseTxType("refund"))
}

func TestThemeToggle(t *testing.T) {
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	s := DefaultSnapshot(NewDate(2025, 5, 1), nil)
	s.Goals = append(s.Goals, Goal{ID: "g", Title: "Trip", Target: Cents(1000)})

	c := s.Clone()
	c.Transactions[0].Amount = Cents(1)
	c.Categories[0].Name = "changed"
	c.Goals[0].Saved = Cents(500)
	c.Budgets = append(c.Budgets, Budget{ID: "b"})

	assert.Equal(t, Cents(120000), s.Transactions[0].Amount)
	assert.Equal(t, "Food", s.Categories[0].Name)
	assert.Equal(t, Cents(0), s.Goals[0].Saved)
	assert.Empty(t, s.Budgets)
}

func TestDefaultSnapshot(t *testing.T) {
	today := NewDate(2025, 5, 1)
	n := 0
	s := DefaultSnapshot(today, func() string { n++; return "id" + string(rune('0'+n)) })

	require.NoError(t, s.Validate())
	assert.Equal(t, CurrentVersion, s.Version)
	assert.Equal(t, ThemeDark, s.Settings.Theme)
	assert.Equal(t, DefaultCurrency, s.Settings.Currency)
	assert.Len(t, s.Categories, 7)
	require.Len(t, s.Transactions, 3)
	for _, tx := range s.Transactions {
		assert.Equal(t, today, tx.Date)
	}
	assert.Equal(t, []string{"id1", "id2", "id3"}, []string{s.Transactions[0].ID, s.Transactions[1].ID, s.Transactions[2].ID})
	assert.NotNil(t, s.Budgets)
	assert.NotNil(t, s.Goals)

	_, ok := s.Category(OtherCategoryID)
	assert.True(t, ok)
}

func TestSnapshotValidateReportsPosition(t *testing.T) {
	s := DefaultSnapshot(NewDate(2025, 5, 1), nil)
	s.Transactions[1].Type = "gift"
	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.Contains(t, err.Error(), "transactions[1]")
}

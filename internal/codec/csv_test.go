package codec

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financeflow/internal/core"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

var csvToday = core.NewDate(2025, time.June, 15)

func TestEncodeCSV(t *testing.T) {
	s := core.Snapshot{
		Categories: []core.Category{{ID: "cat_food", Name: "Food, drinks"}},
		Transactions: []core.Transaction{
			{ID: "1", Type: core.Expense, Date: core.NewDate(2025, 6, 1), CategoryID: "cat_food", Amount: core.Cents(4570), Note: `say "hi"`},
			{ID: "2", Type: core.Income, Date: core.NewDate(2025, 6, 2), CategoryID: "gone", Amount: core.Cents(120000)},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, s))

	want := "id,type,date,category,categoryId,amount,note\n" +
		"1,expense,2025-06-01,\"Food, drinks\",cat_food,45.7,\"say \"\"hi\"\"\"\n" +
		"2,income,2025-06-02,—,gone,1200,\n"
	assert.Equal(t, want, buf.String())
}

func TestDecodeCSVCoercion(t *testing.T) {
	in := "Note,AMOUNT,Type,Date,CategoryId,id\n" +
		"\"multi\nline, note\",10.005,INCOME,2025-01-02T10:00:00Z,cat_food,keep-me\n" +
		",5,refund,,,\n"
	got, err := DecodeCSV(strings.NewReader(in), csvToday, seqIDs())
	require.NoError(t, err)
	require.Len(t, got.Transactions, 2)
	assert.Zero(t, got.Skipped)

	first := got.Transactions[0]
	assert.Equal(t, "new-1", first.ID, "source ids are never reused")
	assert.Equal(t, core.Income, first.Type)
	assert.Equal(t, core.NewDate(2025, 1, 2), first.Date)
	assert.Equal(t, "cat_food", first.CategoryID)
	assert.Equal(t, core.Cents(1001), first.Amount)
	assert.Equal(t, "multi\nline, note", first.Note)

	second := got.Transactions[1]
	assert.Equal(t, core.Expense, second.Type)
	assert.Equal(t, csvToday, second.Date)
	assert.Equal(t, core.OtherCategoryID, second.CategoryID)
	assert.Equal(t, "", second.Note)
}

// Three rows, one with a zero amount: two are imported.
func TestDecodeCSVPartialSuccess(t *testing.T) {
	in := "type,date,categoryId,amount,note\n" +
		"expense,2025-06-01,cat_food,12.50,a\n" +
		"expense,2025-06-02,cat_food,0,b\n" +
		"income,2025-06-03,cat_other,100,c\n"
	got, err := DecodeCSV(strings.NewReader(in), csvToday, seqIDs())
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 2)
	assert.Equal(t, 1, got.Skipped)
}

func TestDecodeCSVDropsUnusableRows(t *testing.T) {
	in := "type,date,amount\n" +
		"expense,2025-06-01,-3\n" +
		"expense,2025-06-01,abc\n" +
		"expense,not-a-date,10\n" +
		"expense,2025-02-30,10\n" +
		"expense,2025-06-01,100000000000000000\n"
	got, err := DecodeCSV(strings.NewReader(in), csvToday, seqIDs())
	assert.ErrorIs(t, err, ErrNothingImported)
	assert.Empty(t, got.Transactions)
	assert.Equal(t, 5, got.Skipped)
}

func TestDecodeCSVTrimsNote(t *testing.T) {
	in := "type,date,amount,note\n" +
		"expense,2025-06-01,4.20,\"  lunch \"\n"
	got, err := DecodeCSV(strings.NewReader(in), csvToday, seqIDs())
	require.NoError(t, err)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "lunch", got.Transactions[0].Note)
}

func TestDecodeCSVEmpty(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""), csvToday, nil)
	assert.ErrorIs(t, err, ErrNothingImported)

	_, err = DecodeCSV(strings.NewReader("id,type,date,category,categoryId,amount,note\n"), csvToday, nil)
	assert.ErrorIs(t, err, ErrNothingImported)
}

func TestCSVRoundTrip(t *testing.T) {
	s := core.DefaultSnapshot(core.NewDate(2025, 3, 3), nil)
	s.Transactions = append(s.Transactions,
		core.Transaction{ID: "x", Type: core.Expense, Date: core.NewDate(2025, 2, 28), CategoryID: "cat_rent", Amount: core.Cents(99999)},
		core.Transaction{ID: "y", Type: core.Income, Date: core.NewDate(2024, 12, 31), CategoryID: "unknown", Amount: core.Cents(1)},
	)
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, s))

	got, err := DecodeCSV(&buf, csvToday, seqIDs())
	require.NoError(t, err)

	type tuple struct {
		Type       core.TxType
		Date       core.Date
		CategoryID string
		Amount     core.Money
		Note       string
	}
	var want, have []tuple
	for _, tx := range s.Transactions {
		want = append(want, tuple{tx.Type, tx.Date, tx.CategoryID, tx.Amount, tx.Note})
	}
	for _, tx := range got.Transactions {
		have = append(have, tuple{tx.Type, tx.Date, tx.CategoryID, tx.Amount, tx.Note})
	}
	assert.ElementsMatch(t, want, have)
}

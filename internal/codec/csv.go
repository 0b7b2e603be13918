package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"financeflow/internal/core"
)

// CSVHeader is the column order written by EncodeCSV.
var CSVHeader = []string{"id", "type", "date", "category", "categoryId", "amount", "note"}

// CSVImport is the result of decoding a CSV transaction file.
type CSVImport struct {
	Transactions []core.Transaction
	Skipped      int
}

// CSVRows returns the export table body, one row per transaction in stored
// order, matching CSVHeader.
func CSVRows(s core.Snapshot) [][]string {
	rows := make([][]string, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		label := core.UnknownCategoryLabel
		if c, ok := s.Category(tx.CategoryID); ok {
			label = c.Name
		}
		rows = append(rows, []string{
			tx.ID,
			string(tx.Type),
			tx.Date.String(),
			label,
			tx.CategoryID,
			tx.Amount.String(),
			tx.Note,
		})
	}
	return rows
}

// EncodeCSV writes the header and CSVRows.
func EncodeCSV(w io.Writer, s core.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range CSVRows(s) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", row[0], err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// DecodeCSV reads a CSV transaction file. The header row names the columns
// (case-insensitive, any order). Each row is coerced into a transaction with
// a fresh id; rows with a non-positive amount or an unusable date are
// skipped. A file with no usable row fails with ErrNothingImported.
func DecodeCSV(r io.Reader, today core.Date, newID func() string) (CSVImport, error) {
	if newID == nil {
		newID = core.NewID
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return CSVImport{}, ErrNothingImported
	}
	if err != nil {
		return CSVImport{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var out CSVImport
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return CSVImport{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
		}
		tx, ok := coerceRow(func(col string) string {
			i, found := cols[col]
			if !found || i >= len(rec) {
				return ""
			}
			return rec[i]
		}, today, newID)
		if !ok {
			out.Skipped++
			continue
		}
		out.Transactions = append(out.Transactions, tx)
	}

	if len(out.Transactions) == 0 {
		return out, ErrNothingImported
	}
	return out, nil
}

func coerceRow(field func(string) string, today core.Date, newID func() string) (core.Transaction, bool) {
	date := today
	if raw := strings.TrimSpace(field("date")); raw != "" {
		if len(raw) > 10 {
			raw = raw[:10]
		}
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Transaction{}, false
		}
		date = d
	}

	amount, err := core.ParseMoney(field("amount"))
	if err != nil {
		amount = core.Money{}
	}
	if !amount.IsPositive() {
		return core.Transaction{}, false
	}

	categoryID := strings.TrimSpace(field("categoryid"))
	if categoryID == "" {
		categoryID = core.OtherCategoryID
	}

	return core.Transaction{
		ID:         newID(),
		Type:       core.ParseTxType(field("type")),
		Date:       date,
		CategoryID: categoryID,
		Amount:     amount,
		Note:       strings.TrimSpace(field("note")),
	}, true
}

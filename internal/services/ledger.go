// Package services turns user requests into validated store patches.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/semaphore"

	"financeflow/internal/codec"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/store"
)

// ErrImportInProgress rejects an import started while another one is still
// reading its input.
var ErrImportInProgress = errors.New("another import is in progress")

// MaxImportBytes caps the size of an import body.
const MaxImportBytes = 10 << 20

// Ledger is the single entry point for ledger mutations.
type Ledger struct {
	store   *store.Store
	imports *semaphore.Weighted
	logger  *log.Logger
	newID   func() string
}

func NewLedger(st *store.Store, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &Ledger{
		store:   st,
		imports: semaphore.NewWeighted(1),
		logger:  logger.WithComponent(log.ComponentLedger),
		newID:   core.NewID,
	}
}

// Current returns a copy of the live snapshot and its revision.
func (l *Ledger) Current() (core.Snapshot, uint64) {
	return l.store.Current()
}

// Today is the ledger's current calendar date.
func (l *Ledger) Today() core.Date {
	return l.store.Today()
}

// SaveTransaction creates a transaction when in.ID is empty and replaces the
// one with that id otherwise.
func (l *Ledger) SaveTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx, err := in.toTransaction()
	if err != nil {
		return core.Transaction{}, err
	}
	creating := tx.ID == ""
	if creating {
		tx.ID = l.newID()
	}

	err = l.store.Apply(ctx, "transaction.saved", func(s core.Snapshot) (core.Snapshot, error) {
		if _, ok := s.Category(tx.CategoryID); !ok {
			return s, &ValidationError{Field: "categoryId", Reason: "unknown category"}
		}
		if creating {
			s.Transactions = append(s.Transactions, tx)
			return s, nil
		}
		i := s.TransactionIndex(tx.ID)
		if i < 0 {
			return s, fmt.Errorf("transaction %s: %w", tx.ID, core.ErrNotFound)
		}
		s.Transactions[i] = tx
		return s, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	l.logger.InfoContext(ctx, "Transaction saved",
		log.FieldTransaction, tx.ID, "created", creating, "amount_cents", tx.Amount.Cents)
	return tx, nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	return l.store.Apply(ctx, "transaction.deleted", func(s core.Snapshot) (core.Snapshot, error) {
		i := s.TransactionIndex(id)
		if i < 0 {
			return s, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
		return s, nil
	})
}

// SetBudget sets the limit for (month, category), updating an existing budget
// in place. An empty month means the current one.
func (l *Ledger) SetBudget(ctx context.Context, in BudgetInput) (core.Budget, error) {
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if err := validateStruct(in); err != nil {
		return core.Budget{}, err
	}
	month := l.Today().YearMonth()
	if strings.TrimSpace(in.Month) != "" {
		m, err := core.ParseMonth(in.Month)
		if err != nil {
			return core.Budget{}, &ValidationError{Field: "month", Reason: "must be a month in YYYY-MM form"}
		}
		month = m
	}
	limit, err := positiveAmount("limit", in.Limit)
	if err != nil {
		return core.Budget{}, err
	}

	var saved core.Budget
	err = l.store.Apply(ctx, "budget.set", func(s core.Snapshot) (core.Snapshot, error) {
		if _, ok := s.Category(in.CategoryID); !ok {
			return s, &ValidationError{Field: "categoryId", Reason: "unknown category"}
		}
		if i := s.BudgetIndex(month, in.CategoryID); i >= 0 {
			s.Budgets[i].Limit = limit
			saved = s.Budgets[i]
			return s, nil
		}
		saved = core.Budget{ID: l.newID(), Month: month, CategoryID: in.CategoryID, Limit: limit}
		s.Budgets = append(s.Budgets, saved)
		return s, nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	l.logger.InfoContext(ctx, "Budget set",
		log.FieldMonth, month.String(), log.FieldCategory, in.CategoryID, "limit_cents", limit.Cents)
	return saved, nil
}

func (l *Ledger) DeleteBudget(ctx context.Context, month, categoryID string) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return &ValidationError{Field: "month", Reason: "must be a month in YYYY-MM form"}
	}
	return l.store.Apply(ctx, "budget.deleted", func(s core.Snapshot) (core.Snapshot, error) {
		i := s.BudgetIndex(m, categoryID)
		if i < 0 {
			return s, fmt.Errorf("budget %s/%s: %w", m, categoryID, core.ErrNotFound)
		}
		s.Budgets = append(s.Budgets[:i], s.Budgets[i+1:]...)
		return s, nil
	})
}

// CreateGoal adds a goal with nothing saved yet.
func (l *Ledger) CreateGoal(ctx context.Context, in GoalInput) (core.Goal, error) {
	title, target, err := in.parse()
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{ID: l.newID(), Title: title, Target: target}
	err = l.store.Apply(ctx, "goal.created", func(s core.Snapshot) (core.Snapshot, error) {
		s.Goals = append(s.Goals, g)
		return s, nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// UpdateGoal changes a goal's title and target. Saved is left alone.
func (l *Ledger) UpdateGoal(ctx context.Context, id string, in GoalInput) (core.Goal, error) {
	title, target, err := in.parse()
	if err != nil {
		return core.Goal{}, err
	}
	var updated core.Goal
	err = l.store.Apply(ctx, "goal.updated", func(s core.Snapshot) (core.Snapshot, error) {
		i := s.GoalIndex(id)
		if i < 0 {
			return s, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
		}
		s.Goals[i].Title = title
		s.Goals[i].Target = target
		updated = s.Goals[i]
		return s, nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	return updated, nil
}

func (l *Ledger) DeleteGoal(ctx context.Context, id string) error {
	return l.store.Apply(ctx, "goal.deleted", func(s core.Snapshot) (core.Snapshot, error) {
		i := s.GoalIndex(id)
		if i < 0 {
			return s, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
		}
		s.Goals = append(s.Goals[:i], s.Goals[i+1:]...)
		return s, nil
	})
}

// AddToGoal deposits a positive amount. Saved may go past the target.
func (l *Ledger) AddToGoal(ctx context.Context, id string, in DepositInput) (core.Goal, error) {
	if err := validateStruct(in); err != nil {
		return core.Goal{}, err
	}
	amount, err := positiveAmount("amount", in.Amount)
	if err != nil {
		return core.Goal{}, err
	}
	var updated core.Goal
	err = l.store.Apply(ctx, "goal.deposit", func(s core.Snapshot) (core.Snapshot, error) {
		i := s.GoalIndex(id)
		if i < 0 {
			return s, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
		}
		s.Goals[i].Saved = s.Goals[i].Saved.Add(amount)
		updated = s.Goals[i]
		return s, nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	l.logger.InfoContext(ctx, "Goal deposit",
		log.FieldGoal, id, "amount_cents", amount.Cents, "saved_cents", updated.Saved.Cents)
	return updated, nil
}

func (l *Ledger) SetTheme(ctx context.Context, in ThemeInput) error {
	in.Theme = strings.ToLower(strings.TrimSpace(in.Theme))
	if err := validateStruct(in); err != nil {
		return err
	}
	return l.store.Apply(ctx, "settings.theme", func(s core.Snapshot) (core.Snapshot, error) {
		s.Settings.Theme = core.Theme(in.Theme)
		return s, nil
	})
}

// ToggleTheme flips between dark and light and returns the new theme.
func (l *Ledger) ToggleTheme(ctx context.Context) (core.Theme, error) {
	var theme core.Theme
	err := l.store.Apply(ctx, "settings.theme", func(s core.Snapshot) (core.Snapshot, error) {
		s.Settings.Theme = s.Settings.Theme.Toggle()
		theme = s.Settings.Theme
		return s, nil
	})
	return theme, err
}

func (l *Ledger) SetCurrency(ctx context.Context, in CurrencyInput) error {
	in.Currency = strings.TrimSpace(in.Currency)
	if err := validateStruct(in); err != nil {
		return err
	}
	return l.store.Apply(ctx, "settings.currency", func(s core.Snapshot) (core.Snapshot, error) {
		s.Settings.Currency = in.Currency
		return s, nil
	})
}

// ExportJSON renders the live snapshot as a backup document.
func (l *Ledger) ExportJSON(ctx context.Context) ([]byte, error) {
	snap, _ := l.store.Current()
	return codec.EncodeJSON(snap)
}

// ExportCSV writes the transaction table.
func (l *Ledger) ExportCSV(ctx context.Context, w io.Writer) error {
	snap, _ := l.store.Current()
	return codec.EncodeCSV(w, snap)
}

// ImportJSON replaces the whole ledger with the document read from r.
func (l *Ledger) ImportJSON(ctx context.Context, r io.Reader) error {
	if !l.imports.TryAcquire(1) {
		return ErrImportInProgress
	}
	defer l.imports.Release(1)

	raw, err := readImport(r)
	if err != nil {
		return err
	}
	if err := l.store.ReplaceWholesale(ctx, raw); err != nil {
		l.logger.WarnContext(ctx, "JSON import rejected", log.FieldOperation, log.OpImport, log.FieldError, err)
		return err
	}
	return nil
}

// ImportCSV appends the usable rows read from r. Rows that cannot be
// coerced are skipped; a file without a single usable row fails with
// codec.ErrNothingImported.
func (l *Ledger) ImportCSV(ctx context.Context, r io.Reader) (codec.CSVImport, error) {
	if !l.imports.TryAcquire(1) {
		return codec.CSVImport{}, ErrImportInProgress
	}
	defer l.imports.Release(1)

	raw, err := readImport(r)
	if err != nil {
		return codec.CSVImport{}, err
	}
	res, err := codec.DecodeCSV(bytes.NewReader(raw), l.Today(), l.newID)
	if err != nil {
		return res, err
	}
	err = l.store.Apply(ctx, "import.csv", func(s core.Snapshot) (core.Snapshot, error) {
		s.Transactions = append(s.Transactions, res.Transactions...)
		return s, nil
	})
	if err != nil {
		return codec.CSVImport{}, err
	}
	l.logger.InfoContext(ctx, "CSV imported",
		log.FieldOperation, log.OpImport, log.FieldImported, len(res.Transactions), log.FieldSkipped, res.Skipped)
	return res, nil
}

// Reset wipes the ledger back to the seed data.
func (l *Ledger) Reset(ctx context.Context) error {
	return l.store.Reset(ctx)
}

func readImport(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if len(raw) > MaxImportBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", codec.ErrMalformedImport, MaxImportBytes)
	}
	return raw, nil
}

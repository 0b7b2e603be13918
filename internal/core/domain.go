package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"

	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type (
	TxType string
	Theme  string

	Transaction struct {
		ID         string `json:"id"`
		Type       TxType `json:"type"`
		Date       Date   `json:"date"`
		CategoryID string `json:"categoryId"`
		Amount     Money  `json:"amount"`
		Note       string `json:"note"`
	}

	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// Budget caps spending for one category in one month. At most one budget
	// exists per (Month, CategoryID).
	Budget struct {
		ID         string `json:"id"`
		Month      Month  `json:"month"`
		CategoryID string `json:"categoryId"`
		Limit      Money  `json:"limit"`
	}

	// Goal is a savings target. Saved may exceed Target.
	Goal struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Target Money  `json:"target"`
		Saved  Money  `json:"saved"`
	}

	Settings struct {
		Theme    Theme  `json:"theme"`
		Currency string `json:"currency"`
	}

	// Snapshot is the whole ledger state at one point in time.
	Snapshot struct {
		Version      int           `json:"version"`
		Settings     Settings      `json:"settings"`
		Categories   []Category    `json:"categories"`
		Transactions []Transaction `json:"transactions"`
		Budgets      []Budget      `json:"budgets"`
		Goals        []Goal        `json:"goals"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrEmptyID         = errors.New("empty id")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyTitle      = errors.New("empty title")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNotFound        = errors.New("not found")
)

// ParseTxType maps any casing of "income" to Income and everything else to
// Expense.
func ParseTxType(s string) TxType {
	if strings.EqualFold(strings.TrimSpace(s), string(Income)) {
		return Income
	}
	return Expense
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() Money {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

func (t Transaction) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (c Category) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	return nil
}

func (b Budget) Validate() error {
	if b.ID == "" {
		return ErrEmptyID
	}
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if b.CategoryID == "" {
		return ErrEmptyCategory
	}
	return b.Limit.Validate()
}

func (g Goal) Validate() error {
	if g.ID == "" {
		return ErrEmptyID
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Saved.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (s Settings) Validate() error {
	if !s.Theme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, s.Theme)
	}
	return nil
}

// Validate checks every record and reports the first offending one.
func (s Snapshot) Validate() error {
	if err := s.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	for i, c := range s.Categories {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("categories[%d]: %w", i, err)
		}
	}
	for i, t := range s.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}
	for i, b := range s.Budgets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("budgets[%d]: %w", i, err)
		}
	}
	for i, g := range s.Goals {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("goals[%d]: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of s. Every record is a plain value, so copying
// the slices is enough to break aliasing.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Categories = append(make([]Category, 0, len(s.Categories)), s.Categories...)
	out.Transactions = append(make([]Transaction, 0, len(s.Transactions)), s.Transactions...)
	out.Budgets = append(make([]Budget, 0, len(s.Budgets)), s.Budgets...)
	out.Goals = append(make([]Goal, 0, len(s.Goals)), s.Goals...)
	return out
}

// Normalize stamps the current version and replaces nil slices with empty
// ones so the encoded form always carries arrays.
func (s *Snapshot) Normalize() {
	s.Version = CurrentVersion
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Budgets == nil {
		s.Budgets = []Budget{}
	}
	if s.Goals == nil {
		s.Goals = []Goal{}
	}
}

// Category returns the category with the given id.
func (s Snapshot) Category(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// TransactionIndex returns the position of the transaction with id, or -1.
func (s Snapshot) TransactionIndex(id string) int {
	for i, t := range s.Transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// BudgetIndex returns the position of the budget for (month, categoryID), or -1.
func (s Snapshot) BudgetIndex(month Month, categoryID string) int {
	for i, b := range s.Budgets {
		if b.Month == month && b.CategoryID == categoryID {
			return i
		}
	}
	return -1
}

// GoalIndex returns the position of the goal with id, or -1.
func (s Snapshot) GoalIndex(id string) int {
	for i, g := range s.Goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

package core

import "github.com/google/uuid"

const (
	// CurrentVersion is the snapshot schema version written on every save.
	CurrentVersion = 1

	DefaultCurrency = "₴"

	// OtherCategoryID is the fallback category for imported rows without one.
	OtherCategoryID = "cat_other"

	// UnknownCategoryLabel is shown for a category id that does not resolve.
	UnknownCategoryLabel = "—"
)

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

func DefaultSettings() Settings {
	return Settings{Theme: ThemeDark, Currency: DefaultCurrency}
}

// DefaultCategories returns the starter category set.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat_food", Name: "Food"},
		{ID: "cat_rent", Name: "Rent"},
		{ID: "cat_auto", Name: "Car"},
		{ID: "cat_health", Name: "Health"},
		{ID: "cat_fun", Name: "Fun"},
		{ID: "cat_subs", Name: "Subscriptions"},
		{ID: OtherCategoryID, Name: "Other"},
	}
}

// DefaultSnapshot returns the seed ledger: starter categories and three demo
// transactions dated today. newID may be nil, in which case NewID is used.
func DefaultSnapshot(today Date, newID func() string) Snapshot {
	if newID == nil {
		newID = NewID
	}
	s := Snapshot{
		Version:    CurrentVersion,
		Settings:   DefaultSettings(),
		Categories: DefaultCategories(),
		Transactions: []Transaction{
			{ID: newID(), Type: Income, Date: today, CategoryID: OtherCategoryID, Amount: Cents(120000), Note: "Salary (demo)"},
			{ID: newID(), Type: Expense, Date: today, CategoryID: "cat_food", Amount: Cents(4570), Note: "Groceries (demo)"},
			{ID: newID(), Type: Expense, Date: today, CategoryID: "cat_subs", Amount: Cents(1299), Note: "Subscription (demo)"},
		},
	}
	s.Normalize()
	return s
}

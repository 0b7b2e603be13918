package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"financeflow/internal/core"
)

// ValidationError rejects a patch request before it reaches the store. The
// caller can show Reason next to Field and keep the user's input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type (
	TransactionInput struct {
		ID         string      `json:"id"`
		Type       string      `json:"type" validate:"required,oneof=income expense"`
		Date       string      `json:"date" validate:"required"`
		CategoryID string      `json:"categoryId" validate:"required"`
		Amount     json.Number `json:"amount" validate:"required"`
		Note       string      `json:"note" validate:"max=500"`
	}

	BudgetInput struct {
		Month      string      `json:"month"`
		CategoryID string      `json:"categoryId" validate:"required"`
		Limit      json.Number `json:"limit" validate:"required"`
	}

	GoalInput struct {
		Title  string      `json:"title" validate:"required,max=120"`
		Target json.Number `json:"target" validate:"required"`
	}

	DepositInput struct {
		Amount json.Number `json:"amount" validate:"required"`
	}

	ThemeInput struct {
		Theme string `json:"theme" validate:"required,oneof=dark light"`
	}

	CurrencyInput struct {
		Currency string `json:"currency" validate:"required,max=8"`
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and converts the first failure into a
// ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "request", Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Reason: reasonFor(fe)}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// positiveAmount parses a decimal amount and rejects anything that rounds to
// zero or below.
func positiveAmount(field string, n json.Number) (core.Money, error) {
	m, err := core.ParseMoney(n.String())
	if err != nil {
		return core.Money{}, &ValidationError{Field: field, Reason: "must be a number up to " + core.Cents(core.MaxCents).String()}
	}
	if !m.IsPositive() {
		return core.Money{}, &ValidationError{Field: field, Reason: "must be greater than zero"}
	}
	return m, nil
}

func (in TransactionInput) toTransaction() (core.Transaction, error) {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if err := validateStruct(in); err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, &ValidationError{Field: "date", Reason: "must be a date in YYYY-MM-DD form"}
	}
	amount, err := positiveAmount("amount", in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:         strings.TrimSpace(in.ID),
		Type:       core.TxType(in.Type),
		Date:       date,
		CategoryID: in.CategoryID,
		Amount:     amount,
		Note:       strings.TrimSpace(in.Note),
	}, nil
}

func (in GoalInput) parse() (string, core.Money, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return "", core.Money{}, err
	}
	target, err := positiveAmount("target", in.Target)
	if err != nil {
		return "", core.Money{}, err
	}
	return in.Title, target, nil
}

// Package codec moves ledger data in and out of its text forms: the JSON
// snapshot (lossless) and the CSV transaction table (lossy).
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"financeflow/internal/core"
)

var (
	ErrMalformedImport = errors.New("malformed import")
	ErrNothingImported = errors.New("nothing imported")
)

// SettingsPatch holds the settings keys present in a persisted document.
type SettingsPatch struct {
	Theme    *core.Theme `json:"theme"`
	Currency *string     `json:"currency"`
}

// Document is a decoded, validated snapshot document. Nil fields were absent
// (or null) in the source and are filled from a base snapshot by Over.
type Document struct {
	Version      int                 `json:"version"`
	Settings     *SettingsPatch      `json:"settings"`
	Categories   *[]core.Category    `json:"categories"`
	Transactions *[]core.Transaction `json:"transactions"`
	Budgets      *[]core.Budget      `json:"budgets"`
	Goals        *[]core.Goal        `json:"goals"`
}

// EncodeJSON renders s as indented JSON.
func EncodeJSON(s core.Snapshot) ([]byte, error) {
	s = s.Clone()
	s.Normalize()
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeDocument checks that raw is a JSON object, runs schema migrations on
// it and decodes it with typed validation. Every failure wraps
// ErrMalformedImport.
func DecodeDocument(raw []byte) (Document, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Document{}, err
	}
	if err := migrate(obj); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	migrated, err := json.Marshal(obj)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	var doc Document
	if err := json.Unmarshal(migrated, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if err := doc.validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	return doc, nil
}

// DecodeSnapshot decodes raw and merges it over base.
func DecodeSnapshot(raw []byte, base core.Snapshot) (core.Snapshot, error) {
	doc, err := DecodeDocument(raw)
	if err != nil {
		return core.Snapshot{}, err
	}
	return doc.Over(base), nil
}

// Over merges the document over base. Record collections present in the
// document replace the base ones wholesale; settings merge key by key.
func (d Document) Over(base core.Snapshot) core.Snapshot {
	out := base.Clone()
	if d.Settings != nil {
		if d.Settings.Theme != nil {
			out.Settings.Theme = *d.Settings.Theme
		}
		if d.Settings.Currency != nil {
			out.Settings.Currency = *d.Settings.Currency
		}
	}
	if d.Categories != nil {
		out.Categories = append([]core.Category{}, (*d.Categories)...)
	}
	if d.Transactions != nil {
		out.Transactions = append([]core.Transaction{}, (*d.Transactions)...)
	}
	if d.Budgets != nil {
		out.Budgets = append([]core.Budget{}, (*d.Budgets)...)
	}
	if d.Goals != nil {
		out.Goals = append([]core.Goal{}, (*d.Goals)...)
	}
	out.Normalize()
	return out
}

func (d Document) validate() error {
	if d.Settings != nil && d.Settings.Theme != nil && !d.Settings.Theme.Valid() {
		return fmt.Errorf("settings: %w: %q", core.ErrInvalidTheme, *d.Settings.Theme)
	}
	var s core.Snapshot
	s.Settings = core.DefaultSettings()
	if d.Categories != nil {
		s.Categories = *d.Categories
	}
	if d.Transactions != nil {
		s.Transactions = *d.Transactions
	}
	if d.Budgets != nil {
		s.Budgets = *d.Budgets
	}
	if d.Goals != nil {
		s.Goals = *d.Goals
	}
	return s.Validate()
}

// decodeObject parses raw into a generic JSON object, keeping numbers as
// their literal text.
func decodeObject(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedImport)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedImport)
	}
	return obj, nil
}

package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"financeflow/internal/core"
)

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// migration upgrades a raw document from version from to from+1.
type migration struct {
	from  int
	apply func(doc map[string]any)
}

// migrations is ordered by from; each step runs at most once per load.
var migrations = []migration{
	{from: 0, apply: fillLegacyDefaults},
}

// migrate upgrades doc in place to core.CurrentVersion. A document without a
// version field is version 0.
func migrate(doc map[string]any) error {
	v, err := documentVersion(doc)
	if err != nil {
		return err
	}
	if v > core.CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	for _, m := range migrations {
		if m.from != v {
			continue
		}
		m.apply(doc)
		v = m.from + 1
	}
	doc["version"] = v
	return nil
}

func documentVersion(doc map[string]any) (int, error) {
	raw, ok := doc["version"]
	if !ok || raw == nil {
		return 0, nil
	}
	n, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: version is not a number", ErrUnsupportedVersion)
	}
	v, err := n.Int64()
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedVersion, n)
	}
	return int(v), nil
}

// fillLegacyDefaults gives unversioned documents the optional fields that
// version 1 treats as required: a note on every transaction and a saved
// amount on every goal.
func fillLegacyDefaults(doc map[string]any) {
	eachObject(doc["transactions"], func(tx map[string]any) {
		if v, ok := tx["note"]; !ok || v == nil {
			tx["note"] = ""
		}
	})
	eachObject(doc["goals"], func(g map[string]any) {
		if v, ok := g["saved"]; !ok || v == nil {
			g["saved"] = json.Number("0")
		}
	})
}

func eachObject(v any, fn func(map[string]any)) {
	items, ok := v.([]any)
	if !ok {
		return
	}
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			fn(obj)
		}
	}
}

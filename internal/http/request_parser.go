package http

import (
	"net/url"
	"strconv"
	"strings"

	"financeflow/internal/core"
	"financeflow/internal/selectors"
	"financeflow/internal/services"
)

// parseMonthParam reads ?month=YYYY-MM, defaulting to the month of today.
func parseMonthParam(query url.Values, today core.Date) (core.Month, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return today.YearMonth(), nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return core.Month{}, &services.ValidationError{Field: "month", Reason: "must be a month in YYYY-MM form"}
	}
	return m, nil
}

// parseRangeParams reads optional ?from= and ?to= calendar dates.
func parseRangeParams(query url.Values) (selectors.Range, error) {
	r, err := selectors.ParseRange(query.Get("from"), query.Get("to"))
	if err != nil {
		return selectors.Range{}, &services.ValidationError{Field: "from/to", Reason: "must be dates in YYYY-MM-DD form"}
	}
	return r, nil
}

// parseIntParam reads an integer query parameter bounded to [lo, hi].
// Missing means def.
func parseIntParam(query url.Values, name string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, &services.ValidationError{
			Field:  name,
			Reason: "must be a whole number between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi),
		}
	}
	return n, nil
}

// parseFilter builds a transaction filter from ?q=&type=&category=&from=&to=.
func parseFilter(query url.Values) (selectors.Filter, error) {
	f := selectors.Filter{
		Query:      strings.TrimSpace(query.Get("q")),
		CategoryID: strings.TrimSpace(query.Get("category")),
	}
	if t := strings.TrimSpace(query.Get("type")); t != "" {
		f.Type = core.TxType(strings.ToLower(t))
		if !f.Type.Valid() {
			return selectors.Filter{}, &services.ValidationError{Field: "type", Reason: "must be income or expense"}
		}
	}
	r, err := parseRangeParams(query)
	if err != nil {
		return selectors.Filter{}, err
	}
	f.Range = r
	return f, nil
}

// sanitizeFilename keeps download names to a safe character set.
func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return -1
		}
	}, s)
}

package http

import (
	"net/http"

	"financeflow/internal/cache"
	"financeflow/internal/core"
	"financeflow/internal/selectors"
)

const (
	recentOnSummary   = 5
	defaultWindowDays = 30
	maxWindowDays     = 366
)

type summaryResponse struct {
	Month    core.Month              `json:"month"`
	Settings core.Settings           `json:"settings"`
	Balance  core.Money              `json:"balance"`
	Totals   selectors.Totals        `json:"totals"`
	Expenses []selectors.CategorySum `json:"expensesByCategory"`
	Budgets  []selectors.BudgetLine  `json:"budgets"`
	Alerts   selectors.Alerts        `json:"alerts"`
	Recent   []core.Transaction      `json:"recent"`
	Revision uint64                  `json:"revision"`
}

// handleSummary is the dashboard view: balance, month totals, top
// categories, budget state and the latest entries.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	month, err := parseMonthParam(r.URL.Query(), s.ledger.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := memo(s, cache.Key(rev, "summary", month), func() summaryResponse {
		lines := selectors.BudgetProgress(snap, month)
		return summaryResponse{
			Month:    month,
			Settings: snap.Settings,
			Balance:  selectors.BalanceAllTime(snap),
			Totals:   selectors.MonthTotals(snap, month),
			Expenses: selectors.ExpensesByCategory(snap, selectors.MonthRange(month)),
			Budgets:  lines,
			Alerts:   selectors.BudgetAlerts(lines),
			Recent:   selectors.Recent(snap, recentOnSummary),
			Revision: rev,
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	rng, err := parseRangeParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := memo(s, cache.Key(rev, "expenses", rng.From, rng.To), func() []selectors.CategorySum {
		return selectors.ExpensesByCategory(snap, rng)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeriesWindow(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	days, err := parseIntParam(r.URL.Query(), "days", defaultWindowDays, 1, maxWindowDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	today := s.ledger.Today()
	out := memo(s, cache.Key(rev, "window", today, days), func() []selectors.Point {
		return selectors.DailyNetWindow(snap, today, days)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeriesRange(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	rng, err := parseRangeParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	today := s.ledger.Today()
	out := memo(s, cache.Key(rev, "range", today, rng.From, rng.To), func() []selectors.Point {
		return selectors.DailyNetRange(snap, rng, today)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	rng, err := parseRangeParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := memo(s, cache.Key(rev, "report", rng.From, rng.To), func() selectors.Report {
		return selectors.Summarize(snap, rng)
	})
	writeJSON(w, http.StatusOK, out)
}

package http

import (
	"net/http"

	"financeflow/internal/cache"
	"financeflow/internal/core"
	"financeflow/internal/selectors"
	"financeflow/internal/services"
)

type budgetsResponse struct {
	Month  core.Month             `json:"month"`
	Lines  []selectors.BudgetLine `json:"lines"`
	Alerts selectors.Alerts       `json:"alerts"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	month, err := parseMonthParam(r.URL.Query(), s.ledger.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := memo(s, cache.Key(rev, "budgets", month), func() budgetsResponse {
		lines := selectors.BudgetProgress(snap, month)
		return budgetsResponse{Month: month, Lines: lines, Alerts: selectors.BudgetAlerts(lines)}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var in services.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.ledger.SetBudget(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	err := s.ledger.DeleteBudget(r.Context(), r.PathValue("month"), r.PathValue("categoryId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

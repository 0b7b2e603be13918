package http

import (
	"net/http"

	"financeflow/internal/cache"
	"financeflow/internal/core"
	"financeflow/internal/selectors"
	"financeflow/internal/services"
)

type goalView struct {
	core.Goal
	Progress float64 `json:"progress"`
}

func newGoalView(g core.Goal) goalView {
	return goalView{Goal: g, Progress: selectors.GoalProgress(g)}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	out := memo(s, cache.Key(rev, "goals"), func() []goalView {
		views := make([]goalView, 0, len(snap.Goals))
		for _, g := range snap.Goals {
			views = append(views, newGoalView(g))
		}
		return views
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var in services.GoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.ledger.CreateGoal(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalView(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var in services.GoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.ledger.UpdateGoal(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalView(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalDeposit(w http.ResponseWriter, r *http.Request) {
	var in services.DepositInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.ledger.AddToGoal(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalView(g))
}

package http

import (
	"net/http"

	"financeflow/internal/cache"
	"financeflow/internal/core"
	"financeflow/internal/selectors"
	"financeflow/internal/services"
)

const (
	defaultRecent = 5
	maxRecent     = 100
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key := cache.Key(rev, "transactions", f.Query, f.Type, f.CategoryID, f.Range.From, f.Range.To)
	out := memo(s, key, func() []core.Transaction {
		return selectors.FilterTransactions(snap, f)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	snap, rev := s.ledger.Current()
	n, err := parseIntParam(r.URL.Query(), "n", defaultRecent, 1, maxRecent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := memo(s, cache.Key(rev, "recent", n), func() []core.Transaction {
		return selectors.Recent(snap, n)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in services.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	// Creation always mints a fresh id.
	in.ID = ""
	tx, err := s.ledger.SaveTransaction(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in services.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	tx, err := s.ledger.SaveTransaction(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

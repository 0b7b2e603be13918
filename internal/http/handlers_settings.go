package http

import (
	"net/http"

	"financeflow/internal/services"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.ledger.Current()
	writeJSON(w, http.StatusOK, snap.Settings)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var in services.ThemeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.SetTheme(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.ToggleTheme(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var in services.CurrencyInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.SetCurrency(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleGetSettings(w, r)
}

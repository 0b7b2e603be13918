package http

import (
	"bytes"
	"fmt"
	"net/http"

	"financeflow/internal/log"
)

type importResponse struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Revision uint64 `json:"revision"`
}

func (s *Server) attachment(w http.ResponseWriter, ext, contentType string) {
	name := sanitizeFilename(fmt.Sprintf("financeflow-%s.%s", s.ledger.Today(), ext))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	body, err := s.ledger.ExportJSON(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.attachment(w, "json", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	// Buffered so a failure can still become a proper error response.
	var buf bytes.Buffer
	if err := s.ledger.ExportCSV(r.Context(), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.attachment(w, "csv", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ImportJSON(r.Context(), r.Body); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, rev := s.ledger.Current()
	log.FromContext(r.Context()).InfoContext(r.Context(), "JSON backup imported",
		log.FieldOperation, log.OpImport, log.FieldImported, len(snap.Transactions), log.FieldRevision, rev)
	writeJSON(w, http.StatusOK, importResponse{Imported: len(snap.Transactions), Revision: rev})
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.ImportCSV(r.Context(), r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, rev := s.ledger.Current()
	writeJSON(w, http.StatusOK, importResponse{Imported: len(res.Transactions), Skipped: res.Skipped, Revision: rev})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, rev := s.ledger.Current()
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "revision": rev})
}

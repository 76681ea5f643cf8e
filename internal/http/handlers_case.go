package http

import (
	"net/http"

	"caseledger/internal/log"
)

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.ledger.ListCases(r.Context())
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	out := make([]caseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, newCaseResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": out})
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}

	c, err := s.ledger.CreateCase(r.Context(), in)
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/cases/"+c.ID.String())
	writeJSON(w, http.StatusCreated, newCaseResponse(c))
}

// handleGetCase returns the case together with its transaction rollup.
func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "caseID")
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}
	c, err := s.ledger.GetCase(r.Context(), id)
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}
	summary, err := s.ledger.Summary(r.Context(), id)
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, caseDetailResponse{
		Case:    newCaseResponse(c),
		Summary: newSummaryResponse(summary),
	})
}

func (s *Server) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "caseID")
	if err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteCase(r.Context(), id); err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

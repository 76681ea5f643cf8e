package http

import (
	"net/http"

	"caseledger/internal/log"

	"github.com/google/uuid"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	caseID, err := pathUUID(r, "caseID")
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	txs, err := s.ledger.ListTransactions(r.Context(), caseID)
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": newTransactionList(txs)})
}

// handlePreviewTransaction runs the calculator against the case without
// recording anything.
func (s *Server) handlePreviewTransaction(w http.ResponseWriter, r *http.Request) {
	caseID, err := pathUUID(r, "caseID")
	if err != nil {
		respondError(w, r, log.OpPreview, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpPreview, err)
		return
	}
	in, err := req.toInput(true)
	if err != nil {
		respondError(w, r, log.OpPreview, err)
		return
	}

	p, err := s.ledger.PreviewTransaction(r.Context(), caseID, in)
	if err != nil {
		respondError(w, r, log.OpPreview, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreviewResponse(p))
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	caseID, err := pathUUID(r, "caseID")
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	in, err := req.toInput(false)
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}

	res, err := s.ledger.RecordTransaction(r.Context(), caseID, in)
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/cases/"+caseID.String()+"/transactions/"+res.Transaction.ID.String())
	writeJSON(w, http.StatusCreated, newTransactionResultResponse(res))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	caseID, txID, err := transactionPath(r)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	in, err := req.toInput(false)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	res, err := s.ledger.UpdateTransaction(r.Context(), caseID, txID, in)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResultResponse(res))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	caseID, txID, err := transactionPath(r)
	if err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), caseID, txID); err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func transactionPath(r *http.Request) (caseID, txID uuid.UUID, err error) {
	if caseID, err = pathUUID(r, "caseID"); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if txID, err = pathUUID(r, "txID"); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return caseID, txID, nil
}

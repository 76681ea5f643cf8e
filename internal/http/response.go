package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"caseledger/internal/core"
	"caseledger/internal/ledger"
	"caseledger/internal/log"
	"caseledger/internal/middleware/trace"
)

// Error codes carried in the JSON error envelope.
const (
	codeBadRequest   = "bad_request"
	codeNotFound     = "not_found"
	codeValidation   = "validation_failed"
	codeRateLimited  = "rate_limited"
	codeInternal     = "internal_error"
	codeMethodDenied = "method_not_allowed"
)

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

var validationErrors = []error{
	core.ErrInvalidDate,
	core.ErrInvalidAmount,
	core.ErrInvalidRate,
	core.ErrInvalidType,
	core.ErrInvalidAccrualDays,
	core.ErrEmptyName,
	core.ErrEmptyCourtNumber,
	core.ErrDescriptionTooLong,
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: trace.RequestID(r),
	}})
}

// mapError translates a service error into a status and error code.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, codeValidation
		}
	}
	return http.StatusInternalServerError, codeInternal
}

// respondError writes err as a JSON error. Internal failures are logged and
// their details withheld from the client.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldError, err.Error())
		message = "internal error"
	}
	writeError(w, r, status, code, message)
}

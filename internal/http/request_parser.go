// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// bounded JSON decoding, lenient decimal fields, path identifiers, and input
// sanitization.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"caseledger/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// errBadRequest marks input that could not be read at all, as opposed to
// input that was read but failed validation.
var errBadRequest = errors.New("malformed request")

// decodeJSON reads exactly one JSON object into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

// decimalText is a money or rate field that accepts a JSON string ("12,34")
// or a JSON number (12.34). Parsing into a decimal happens later so that a
// bad value is reported as a validation error on its field.
type decimalText string

func (d *decimalText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = decimalText(sanitizeInput(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a decimal string or number, got %s", b)
	}
	*d = decimalText(n.String())
	return nil
}

func (d decimalText) empty() bool {
	return strings.TrimSpace(string(d)) == ""
}

// fieldError prefixes a validation error with the JSON field it came from.
func fieldError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}

// createCaseRequest is the body of POST /api/cases.
type createCaseRequest struct {
	Name            string      `json:"name"`
	CourtCaseNumber string      `json:"court_case_number"`
	JudgmentAmount  decimalText `json:"judgment_amount"`
	InterestRate    decimalText `json:"interest_rate"`
	JudgmentDate    string      `json:"judgment_date"`
	EndDate         string      `json:"end_date"`
	InitialPayment  decimalText `json:"initial_payment"`
	InitialCost     decimalText `json:"initial_cost"`
}

func (req createCaseRequest) toInput() (core.CaseInput, error) {
	in := core.CaseInput{
		Name:            sanitizeInput(req.Name),
		CourtCaseNumber: sanitizeInput(req.CourtCaseNumber),
	}

	var err error
	if in.JudgmentAmount, err = core.ParseAmount(string(req.JudgmentAmount)); err != nil {
		return in, fieldError("judgment_amount", err)
	}
	if !req.InterestRate.empty() {
		rate, err := core.ParseRate(string(req.InterestRate))
		if err != nil {
			return in, fieldError("interest_rate", err)
		}
		in.InterestRate = &rate
	}
	if in.JudgmentDate, err = core.ParseDate(req.JudgmentDate); err != nil {
		return in, fieldError("judgment_date", err)
	}
	if strings.TrimSpace(req.EndDate) != "" {
		if in.EndDate, err = core.ParseDate(req.EndDate); err != nil {
			return in, fieldError("end_date", err)
		}
	}
	if in.InitialPayment, err = core.ParseOptionalAmount(string(req.InitialPayment)); err != nil {
		return in, fieldError("initial_payment", err)
	}
	if in.InitialCost, err = core.ParseOptionalAmount(string(req.InitialCost)); err != nil {
		return in, fieldError("initial_cost", err)
	}
	return in, nil
}

// transactionRequest is the body of the record, edit and preview endpoints.
type transactionRequest struct {
	Type         string      `json:"type"`
	Amount       decimalText `json:"amount"`
	Date         string      `json:"date"`
	Description  string      `json:"description"`
	InterestRate decimalText `json:"interest_rate"`
	AccrualDays  *int        `json:"accrual_days"`
}

// toInput converts the request. A preview tolerates a missing date and a
// zero amount; recording a transaction requires both.
func (req transactionRequest) toInput(preview bool) (core.TransactionInput, error) {
	in := core.TransactionInput{
		Description: sanitizeInput(req.Description),
		AccrualDays: req.AccrualDays,
	}

	var err error
	if in.Type, err = core.ParseTransactionType(req.Type); err != nil {
		return in, fieldError("type", err)
	}
	if preview {
		in.Amount, err = core.ParseOptionalAmount(string(req.Amount))
	} else {
		in.Amount, err = core.ParseAmount(string(req.Amount))
	}
	if err != nil {
		return in, fieldError("amount", err)
	}
	if !preview || strings.TrimSpace(req.Date) != "" {
		if in.Date, err = core.ParseDate(req.Date); err != nil {
			return in, fieldError("date", err)
		}
	}
	if !req.InterestRate.empty() {
		rate, err := core.ParseRate(string(req.InterestRate))
		if err != nil {
			return in, fieldError("interest_rate", err)
		}
		in.InterestRate = &rate
	}
	return in, nil
}

// pathUUID reads a UUID route parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	// Remove control characters except tab, newline, carriage return
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"caseledger/internal/core"
)

func TestDecimalTextAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want decimalText
	}{
		{"string with dot", `"12.34"`, "12.34"},
		{"string with comma", `"12,34"`, "12,34"},
		{"number", `12.5`, "12.5"},
		{"integer", `100`, "100"},
		{"null", `null`, ""},
		{"padded string", `"  7 "`, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got decimalText
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	var got decimalText
	if err := json.Unmarshal([]byte(`true`), &got); err == nil {
		t.Fatalf("boolean accepted as decimal")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"type":"PAYMENT"}`, false},
		{"unknown field", `{"type":"PAYMENT","bogus":1}`, true},
		{"trailing data", `{"type":"PAYMENT"}{"type":"COST"}`, true},
		{"not json", `type=PAYMENT`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req transactionRequest
			err := decodeJSON(httptest.NewRecorder(), r, &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadRequest) {
				t.Fatalf("decode errors must be bad requests: %v", err)
			}
		})
	}
}

func TestCreateCaseRequestToInput(t *testing.T) {
	valid := createCaseRequest{
		Name:            " Acme v. Smith ",
		CourtCaseNumber: "CV-1",
		JudgmentAmount:  "1.000,00",
		JudgmentDate:    "2024-01-01",
	}

	t.Run("defaults", func(t *testing.T) {
		req := valid
		req.JudgmentAmount = "1000,005"
		in, err := req.toInput()
		if err != nil {
			t.Fatalf("toInput: %v", err)
		}
		if in.Name != "Acme v. Smith" {
			t.Errorf("name not trimmed: %q", in.Name)
		}
		if in.JudgmentAmount.String() != "1000.01" {
			t.Errorf("judgment amount = %s", in.JudgmentAmount)
		}
		if in.InterestRate != nil {
			t.Errorf("rate should be left to the service default")
		}
		if !in.EndDate.IsZero() || !in.InitialPayment.IsZero() || !in.InitialCost.IsZero() {
			t.Errorf("optional fields should be zero: %+v", in)
		}
	})

	tests := []struct {
		name   string
		mutate func(*createCaseRequest)
		field  string
		target error
	}{
		{"bad amount", func(r *createCaseRequest) { r.JudgmentAmount = "1.000,00" }, "judgment_amount", core.ErrInvalidAmount},
		{"missing amount", func(r *createCaseRequest) { r.JudgmentAmount = "" }, "judgment_amount", core.ErrInvalidAmount},
		{"negative rate", func(r *createCaseRequest) { r.InterestRate = "-1" }, "interest_rate", core.ErrInvalidRate},
		{"bad date", func(r *createCaseRequest) { r.JudgmentDate = "01/01/2024" }, "judgment_date", core.ErrInvalidDate},
		{"bad end date", func(r *createCaseRequest) { r.EndDate = "soon" }, "end_date", core.ErrInvalidDate},
		{"negative payment", func(r *createCaseRequest) { r.InitialPayment = "-5" }, "initial_payment", core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.JudgmentAmount = "1000"
			tt.mutate(&req)
			_, err := req.toInput()
			if !errors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
			if !strings.HasPrefix(err.Error(), tt.field+":") {
				t.Fatalf("error %q does not name field %s", err, tt.field)
			}
		})
	}
}

func TestTransactionRequestToInput(t *testing.T) {
	days := 15
	req := transactionRequest{
		Type:         "payment",
		Amount:       "250",
		Date:         "2024-03-01",
		Description:  "check\x00 #12",
		InterestRate: "7,5",
		AccrualDays:  &days,
	}
	in, err := req.toInput(false)
	if err != nil {
		t.Fatalf("toInput: %v", err)
	}
	if in.Type != core.Payment {
		t.Errorf("type = %s", in.Type)
	}
	if in.Description != "check #12" {
		t.Errorf("description not sanitized: %q", in.Description)
	}
	if in.InterestRate == nil || in.InterestRate.String() != "7.5" {
		t.Errorf("rate = %v", in.InterestRate)
	}
	if in.AccrualDays == nil || *in.AccrualDays != 15 {
		t.Errorf("accrual days = %v", in.AccrualDays)
	}

	preview := transactionRequest{Type: "COST"}
	if _, err := preview.toInput(true); err != nil {
		t.Fatalf("preview without amount or date should pass: %v", err)
	}
	if _, err := preview.toInput(false); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("recording without amount: %v", err)
	}

	bad := transactionRequest{Type: "REFUND", Amount: "1", Date: "2024-03-01"}
	if _, err := bad.toInput(false); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("unknown type: %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

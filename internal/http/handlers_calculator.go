package http

import (
	"net/http"
	"strings"

	"caseledger/internal/core"
	"caseledger/internal/log"

	"github.com/shopspring/decimal"
)

// The calculator endpoints expose the pure balance functions as they are.
// Inputs are not validated; an unknown transaction type leaves the balance
// unchanged.

func handleCalculateInterest(w http.ResponseWriter, r *http.Request) {
	var req interestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpPreview, err)
		return
	}
	writeCalculation(w, core.CalculateInterest(req.Principal, req.AnnualRatePercent, req.Days))
}

func handleCalculateBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpPreview, err)
		return
	}
	txType := core.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	writeCalculation(w, core.CalculateNewBalance(req.CurrentBalance, req.Amount, req.AccruedInterest, txType))
}

func handleCalculatePayoff(w http.ResponseWriter, r *http.Request) {
	var req payoffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpPreview, err)
		return
	}
	writeCalculation(w, core.CalculatePayoffAmount(req.PrincipalBalance, req.AccruedInterest))
}

func writeCalculation(w http.ResponseWriter, result decimal.Decimal) {
	writeJSON(w, http.StatusOK, calculatorResponse{
		Result:        result,
		ResultDisplay: core.FormatCurrency(result),
	})
}

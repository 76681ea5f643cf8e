package http

import (
	"time"

	"caseledger/internal/core"
	"caseledger/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts leave the API as fixed two-decimal strings next to a display
// rendering; rates and raw calculator values keep their full precision.

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type caseResponse struct {
	ID                      uuid.UUID `json:"id"`
	Name                    string    `json:"name"`
	CourtCaseNumber         string    `json:"court_case_number"`
	JudgmentAmount          string    `json:"judgment_amount"`
	JudgmentAmountDisplay   string    `json:"judgment_amount_display"`
	JudgmentDate            core.Date `json:"judgment_date"`
	JudgmentDateDisplay     string    `json:"judgment_date_display"`
	InterestRate            string    `json:"interest_rate"`
	LastPaymentDate         core.Date `json:"last_payment_date"`
	LastPaymentDateDisplay  string    `json:"last_payment_date_display"`
	TotalPayments           string    `json:"total_payments"`
	TotalPaymentsDisplay    string    `json:"total_payments_display"`
	AccruedInterest         string    `json:"accrued_interest"`
	AccruedInterestDisplay  string    `json:"accrued_interest_display"`
	PrincipalBalance        string    `json:"principal_balance"`
	PrincipalBalanceDisplay string    `json:"principal_balance_display"`
	PayoffAmount            string    `json:"payoff_amount"`
	PayoffAmountDisplay     string    `json:"payoff_amount_display"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func newCaseResponse(c core.Case) caseResponse {
	return caseResponse{
		ID:                      c.ID,
		Name:                    c.Name,
		CourtCaseNumber:         c.CourtCaseNumber,
		JudgmentAmount:          amount(c.JudgmentAmount),
		JudgmentAmountDisplay:   core.FormatCurrency(c.JudgmentAmount),
		JudgmentDate:            c.JudgmentDate,
		JudgmentDateDisplay:     core.FormatDate(c.JudgmentDate),
		InterestRate:            c.InterestRate.String(),
		LastPaymentDate:         c.LastPaymentDate,
		LastPaymentDateDisplay:  core.FormatDate(c.LastPaymentDate),
		TotalPayments:           amount(c.TotalPayments),
		TotalPaymentsDisplay:    core.FormatCurrency(c.TotalPayments),
		AccruedInterest:         amount(c.AccruedInterest),
		AccruedInterestDisplay:  core.FormatCurrency(c.AccruedInterest),
		PrincipalBalance:        amount(c.PrincipalBalance),
		PrincipalBalanceDisplay: core.FormatCurrency(c.PrincipalBalance),
		PayoffAmount:            amount(c.PayoffAmount),
		PayoffAmountDisplay:     core.FormatCurrency(c.PayoffAmount),
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
}

type summaryResponse struct {
	TotalPayments               string    `json:"total_payments"`
	TotalPaymentsDisplay        string    `json:"total_payments_display"`
	TotalCosts                  string    `json:"total_costs"`
	TotalCostsDisplay           string    `json:"total_costs_display"`
	TotalInterestCharges        string    `json:"total_interest_charges"`
	TotalInterestChargesDisplay string    `json:"total_interest_charges_display"`
	PayoffAmount                string    `json:"payoff_amount"`
	PayoffAmountDisplay         string    `json:"payoff_amount_display"`
	LastPaymentDate             core.Date `json:"last_payment_date"`
	TransactionCount            int       `json:"transaction_count"`
}

func newSummaryResponse(s services.Summary) summaryResponse {
	return summaryResponse{
		TotalPayments:               amount(s.TotalPayments),
		TotalPaymentsDisplay:        core.FormatCurrency(s.TotalPayments),
		TotalCosts:                  amount(s.TotalCosts),
		TotalCostsDisplay:           core.FormatCurrency(s.TotalCosts),
		TotalInterestCharges:        amount(s.TotalInterestCharges),
		TotalInterestChargesDisplay: core.FormatCurrency(s.TotalInterestCharges),
		PayoffAmount:                amount(s.PayoffAmount),
		PayoffAmountDisplay:         core.FormatCurrency(s.PayoffAmount),
		LastPaymentDate:             s.LastPaymentDate,
		TransactionCount:            s.TransactionCount,
	}
}

type caseDetailResponse struct {
	Case    caseResponse    `json:"case"`
	Summary summaryResponse `json:"summary"`
}

type transactionResponse struct {
	ID                      uuid.UUID `json:"id"`
	CaseID                  uuid.UUID `json:"case_id"`
	Date                    core.Date `json:"date"`
	DateDisplay             string    `json:"date_display"`
	Type                    string    `json:"type"`
	Amount                  string    `json:"amount"`
	AmountDisplay           string    `json:"amount_display"`
	Description             string    `json:"description"`
	AccruedInterest         string    `json:"accrued_interest"`
	AccruedInterestDisplay  string    `json:"accrued_interest_display"`
	PrincipalBalance        string    `json:"principal_balance"`
	PrincipalBalanceDisplay string    `json:"principal_balance_display"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func newTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                      tx.ID,
		CaseID:                  tx.CaseID,
		Date:                    tx.Date,
		DateDisplay:             core.FormatDate(tx.Date),
		Type:                    tx.Type.String(),
		Amount:                  amount(tx.Amount),
		AmountDisplay:           core.FormatCurrency(tx.Amount),
		Description:             tx.Description,
		AccruedInterest:         amount(tx.AccruedInterest),
		AccruedInterestDisplay:  core.FormatCurrency(tx.AccruedInterest),
		PrincipalBalance:        amount(tx.PrincipalBalance),
		PrincipalBalanceDisplay: core.FormatCurrency(tx.PrincipalBalance),
		CreatedAt:               tx.CreatedAt,
		UpdatedAt:               tx.UpdatedAt,
	}
}

func newTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionResponse(tx))
	}
	return out
}

type previewResponse struct {
	Type                      string `json:"type"`
	Amount                    string `json:"amount"`
	InterestRate              string `json:"interest_rate"`
	AccrualDays               int    `json:"accrual_days"`
	CalculatedInterest        string `json:"calculated_interest"`
	CalculatedInterestDisplay string `json:"calculated_interest_display"`
	NewBalance                string `json:"new_balance"`
	NewBalanceDisplay         string `json:"new_balance_display"`
	PayoffAmount              string `json:"payoff_amount"`
	PayoffAmountDisplay       string `json:"payoff_amount_display"`
}

func newPreviewResponse(p core.Preview) previewResponse {
	return previewResponse{
		Type:                      p.Type.String(),
		Amount:                    amount(p.Amount),
		InterestRate:              p.InterestRate.String(),
		AccrualDays:               p.AccrualDays,
		CalculatedInterest:        amount(p.CalculatedInterest),
		CalculatedInterestDisplay: core.FormatCurrency(p.CalculatedInterest),
		NewBalance:                amount(p.NewBalance),
		NewBalanceDisplay:         core.FormatCurrency(p.NewBalance),
		PayoffAmount:              amount(p.PayoffAmount),
		PayoffAmountDisplay:       core.FormatCurrency(p.PayoffAmount),
	}
}

type transactionResultResponse struct {
	Case        caseResponse        `json:"case"`
	Transaction transactionResponse `json:"transaction"`
	Preview     previewResponse     `json:"preview"`
}

func newTransactionResultResponse(res services.TransactionResult) transactionResultResponse {
	return transactionResultResponse{
		Case:        newCaseResponse(res.Case),
		Transaction: newTransactionResponse(res.Transaction),
		Preview:     newPreviewResponse(res.Preview),
	}
}

// Raw calculator bodies. decimal.Decimal accepts JSON strings and numbers.
type (
	interestRequest struct {
		Principal         decimal.Decimal `json:"principal"`
		AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
		Days              int             `json:"days"`
	}

	balanceRequest struct {
		CurrentBalance  decimal.Decimal `json:"current_balance"`
		Amount          decimal.Decimal `json:"amount"`
		AccruedInterest decimal.Decimal `json:"accrued_interest"`
		Type            string          `json:"type"`
	}

	payoffRequest struct {
		PrincipalBalance decimal.Decimal `json:"principal_balance"`
		AccruedInterest  decimal.Decimal `json:"accrued_interest"`
	}

	calculatorResponse struct {
		Result        decimal.Decimal `json:"result"`
		ResultDisplay string          `json:"result_display"`
	}
)

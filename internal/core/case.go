package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAccrualDays is the period used to preview interest on a new
// transaction when the caller does not supply one.
const DefaultAccrualDays = 30

// DefaultInterestRate is the annual percentage used when a case is opened
// without an explicit rate.
var DefaultInterestRate = decimal.NewFromInt(10)

type (
	// CaseInput carries the fields of the "open case" form. EndDate is the
	// date interest is accrued up to; zero means today. A nil InterestRate
	// means DefaultInterestRate.
	CaseInput struct {
		Name            string
		CourtCaseNumber string
		JudgmentAmount  decimal.Decimal
		InterestRate    *decimal.Decimal
		JudgmentDate    Date
		EndDate         Date
		InitialPayment  decimal.Decimal
		InitialCost     decimal.Decimal
	}

	// TransactionInput is a transaction as entered by the user. A nil
	// InterestRate falls back to the case rate and nil AccrualDays to
	// DefaultAccrualDays.
	TransactionInput struct {
		Type         TransactionType
		Amount       decimal.Decimal
		Date         Date
		Description  string
		InterestRate *decimal.Decimal
		AccrualDays  *int
	}

	// Preview is the calculator output for a transaction that has not been
	// applied yet.
	Preview struct {
		Type               TransactionType
		Amount             decimal.Decimal
		InterestRate       decimal.Decimal
		AccrualDays        int
		CalculatedInterest decimal.Decimal
		NewBalance         decimal.Decimal
		PayoffAmount       decimal.Decimal
	}
)

// NewCase validates the input and runs the opening calculation: interest
// accrues on the full judgment from the judgment date to the end date, and
// the principal is the judgment less the initial payment plus initial costs.
func NewCase(in CaseInput, now time.Time) (Case, error) {
	rate := DefaultInterestRate
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}
	if in.InitialPayment.IsNegative() || in.InitialCost.IsNegative() {
		return Case{}, ErrInvalidAmount
	}

	end := in.EndDate
	if end.IsZero() {
		end = DateOf(now)
	}

	c := Case{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(in.Name),
		CourtCaseNumber: strings.TrimSpace(in.CourtCaseNumber),
		JudgmentAmount:  in.JudgmentAmount,
		JudgmentDate:    in.JudgmentDate,
		InterestRate:    rate,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	if err := c.Validate(); err != nil {
		return Case{}, err
	}

	days := DaysBetween(in.JudgmentDate, end)
	c.AccruedInterest = CalculateInterest(in.JudgmentAmount, rate, days)
	c.PrincipalBalance = in.JudgmentAmount.Sub(in.InitialPayment).Add(in.InitialCost)
	c.PayoffAmount = CalculatePayoffAmount(c.PrincipalBalance, c.AccruedInterest)
	c.TotalPayments = in.InitialPayment
	c.LastPaymentDate = end
	return c, nil
}

// PreviewTransaction computes the interest and resulting balance the
// transaction would produce against the case's current principal.
func PreviewTransaction(c Case, in TransactionInput) (Preview, error) {
	if !in.Type.Valid() {
		return Preview{}, ErrInvalidType
	}
	if in.Amount.IsNegative() {
		return Preview{}, ErrInvalidAmount
	}

	rate := c.InterestRate
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}
	if rate.IsNegative() {
		return Preview{}, ErrInvalidRate
	}
	days := DefaultAccrualDays
	if in.AccrualDays != nil {
		days = *in.AccrualDays
	}
	if days < 0 {
		return Preview{}, fmt.Errorf("%w: %d", ErrInvalidAccrualDays, days)
	}

	interest := CalculateInterest(c.PrincipalBalance, rate, days)
	balance := CalculateNewBalance(c.PrincipalBalance, in.Amount, interest, in.Type)
	return Preview{
		Type:               in.Type,
		Amount:             in.Amount,
		InterestRate:       rate,
		AccrualDays:        days,
		CalculatedInterest: interest,
		NewBalance:         balance,
		PayoffAmount:       CalculatePayoffAmount(balance, interest),
	}, nil
}

// NewTransaction builds a validated transaction record carrying the
// preview's snapshot.
func NewTransaction(caseID uuid.UUID, in TransactionInput, p Preview, now time.Time) (Transaction, error) {
	tx := Transaction{
		ID:               uuid.New(),
		CaseID:           caseID,
		Date:             in.Date,
		Type:             in.Type,
		Amount:           in.Amount,
		Description:      strings.TrimSpace(in.Description),
		AccruedInterest:  p.CalculatedInterest,
		PrincipalBalance: p.NewBalance,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// ApplyTransaction folds a previewed transaction into the case aggregate.
// The payoff is always recomputed from principal and interest.
func (c *Case) ApplyTransaction(tx Transaction, p Preview, now time.Time) {
	c.PrincipalBalance = p.NewBalance
	c.AccruedInterest = p.CalculatedInterest
	c.PayoffAmount = CalculatePayoffAmount(c.PrincipalBalance, c.AccruedInterest)
	if tx.Type == Payment {
		c.TotalPayments = c.TotalPayments.Add(tx.Amount)
		c.LastPaymentDate = tx.Date
	}
	c.UpdatedAt = now.UTC()
}

// ReplaceTransaction applies an edited transaction. The payment total drops
// the old amount before the new one is counted; older transactions are not
// recomputed.
func (c *Case) ReplaceTransaction(old, updated Transaction, p Preview, now time.Time) {
	if old.Type == Payment {
		c.TotalPayments = decimal.Max(decimal.Zero, c.TotalPayments.Sub(old.Amount))
	}
	c.ApplyTransaction(updated, p, now)
}

package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 7, 1, 15, 4, 5, 0, time.UTC)

func openCase(t *testing.T) Case {
	t.Helper()
	rate := dec("10")
	c, err := NewCase(CaseInput{
		Name:            "Acme v. Doe",
		CourtCaseNumber: "CV-2024-001",
		JudgmentAmount:  dec("36500"),
		InterestRate:    &rate,
		JudgmentDate:    NewDate(2024, 1, 1),
		EndDate:         NewDate(2024, 1, 11),
	}, fixedNow)
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}
	return c
}

func TestNewCaseOpeningCalculation(t *testing.T) {
	rate := dec("10")
	c, err := NewCase(CaseInput{
		Name:            "Acme v. Doe",
		CourtCaseNumber: "CV-2024-001",
		JudgmentAmount:  dec("36500"),
		InterestRate:    &rate,
		JudgmentDate:    NewDate(2024, 1, 1),
		EndDate:         NewDate(2024, 1, 11),
		InitialPayment:  dec("500"),
		InitialCost:     dec("100"),
	}, fixedNow)
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}

	// 36500 * 10% * 10 / 365
	if !c.AccruedInterest.Equal(dec("100")) {
		t.Fatalf("expected interest 100, got %s", c.AccruedInterest)
	}
	if !c.PrincipalBalance.Equal(dec("36100")) {
		t.Fatalf("expected principal 36100, got %s", c.PrincipalBalance)
	}
	if !c.PayoffAmount.Equal(dec("36200")) {
		t.Fatalf("expected payoff 36200, got %s", c.PayoffAmount)
	}
	if !c.TotalPayments.Equal(dec("500")) {
		t.Fatalf("expected total payments 500, got %s", c.TotalPayments)
	}
	if c.LastPaymentDate.String() != "2024-01-11" {
		t.Fatalf("unexpected last payment date %s", c.LastPaymentDate)
	}
	if c.ID == uuid.Nil {
		t.Fatalf("expected an id")
	}
}

func TestNewCaseDefaults(t *testing.T) {
	c, err := NewCase(CaseInput{
		Name:            "Acme v. Roe",
		CourtCaseNumber: "CV-2024-002",
		JudgmentAmount:  dec("1000"),
		JudgmentDate:    NewDate(2024, 6, 1),
	}, fixedNow)
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}
	if !c.InterestRate.Equal(DefaultInterestRate) {
		t.Fatalf("expected default rate, got %s", c.InterestRate)
	}
	if c.LastPaymentDate.String() != "2024-07-01" {
		t.Fatalf("end date should default to today, got %s", c.LastPaymentDate)
	}
	if !c.CheckInvariant() {
		t.Fatalf("payoff invariant broken: %+v", c)
	}
}

func TestNewCaseRejectsInvalidInput(t *testing.T) {
	_, err := NewCase(CaseInput{
		Name:            "x",
		CourtCaseNumber: "y",
		JudgmentAmount:  dec("1000"),
		JudgmentDate:    NewDate(2024, 6, 1),
		InitialPayment:  dec("-1"),
	}, fixedNow)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = NewCase(CaseInput{CourtCaseNumber: "y", JudgmentAmount: dec("1"), JudgmentDate: NewDate(2024, 6, 1)}, fixedNow)
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestPreviewTransaction(t *testing.T) {
	c := openCase(t)
	days := 10

	p, err := PreviewTransaction(c, TransactionInput{Type: Payment, Amount: dec("1000"), AccrualDays: &days})
	if err != nil {
		t.Fatalf("PreviewTransaction: %v", err)
	}
	// 36500 principal at 10% for 10 days -> 100 interest; 36500+100-1000.
	if !p.CalculatedInterest.Equal(dec("100")) {
		t.Fatalf("expected interest 100, got %s", p.CalculatedInterest)
	}
	if !p.NewBalance.Equal(dec("35600")) {
		t.Fatalf("expected balance 35600, got %s", p.NewBalance)
	}
	if !p.PayoffAmount.Equal(dec("35700")) {
		t.Fatalf("expected payoff 35700, got %s", p.PayoffAmount)
	}

	p, err = PreviewTransaction(c, TransactionInput{Type: Cost, Amount: dec("250")})
	if err != nil {
		t.Fatalf("PreviewTransaction: %v", err)
	}
	if p.AccrualDays != DefaultAccrualDays {
		t.Fatalf("expected default accrual days, got %d", p.AccrualDays)
	}
	if !p.NewBalance.Equal(dec("36750")) {
		t.Fatalf("cost should add its amount only, got %s", p.NewBalance)
	}

	zero := decimal.Zero
	p, err = PreviewTransaction(c, TransactionInput{Type: Interest, Amount: dec("5"), InterestRate: &zero})
	if err != nil {
		t.Fatalf("PreviewTransaction: %v", err)
	}
	if !p.CalculatedInterest.IsZero() {
		t.Fatalf("zero rate should accrue nothing, got %s", p.CalculatedInterest)
	}
}

func TestPreviewTransactionErrors(t *testing.T) {
	c := openCase(t)
	neg := -1
	negRate := dec("-3")
	cases := []TransactionInput{
		{Type: "REFUND", Amount: dec("1")},
		{Type: Payment, Amount: dec("-1")},
		{Type: Payment, Amount: dec("1"), AccrualDays: &neg},
		{Type: Payment, Amount: dec("1"), InterestRate: &negRate},
	}
	for i, in := range cases {
		if _, err := PreviewTransaction(c, in); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestApplyTransactionKeepsInvariant(t *testing.T) {
	c := openCase(t)
	later := fixedNow.Add(time.Hour)

	inputs := []TransactionInput{
		{Type: Payment, Amount: dec("40000"), Date: NewDate(2024, 2, 1)},
		{Type: Cost, Amount: dec("125.50"), Date: NewDate(2024, 2, 2)},
		{Type: Interest, Amount: dec("12.25"), Date: NewDate(2024, 2, 3)},
		{Type: Payment, Amount: dec("10"), Date: NewDate(2024, 2, 4)},
	}
	paid := dec("0")
	for _, in := range inputs {
		p, err := PreviewTransaction(c, in)
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		tx, err := NewTransaction(c.ID, in, p, later)
		if err != nil {
			t.Fatalf("new transaction: %v", err)
		}
		c.ApplyTransaction(tx, p, later)
		if in.Type == Payment {
			paid = paid.Add(in.Amount)
		}

		if !c.CheckInvariant() {
			t.Fatalf("payoff invariant broken after %s: %+v", in.Type, c)
		}
		if c.PrincipalBalance.IsNegative() {
			t.Fatalf("principal went negative: %s", c.PrincipalBalance)
		}
		if !tx.PrincipalBalance.Equal(c.PrincipalBalance) || !tx.AccruedInterest.Equal(c.AccruedInterest) {
			t.Fatalf("transaction snapshot does not match case aggregate")
		}
	}

	if !c.TotalPayments.Equal(paid) {
		t.Fatalf("expected total payments %s, got %s", paid, c.TotalPayments)
	}
	if c.LastPaymentDate.String() != "2024-02-04" {
		t.Fatalf("unexpected last payment date %s", c.LastPaymentDate)
	}
}

func TestReplaceTransactionAdjustsPaymentTotal(t *testing.T) {
	c := openCase(t)
	in := TransactionInput{Type: Payment, Amount: dec("300"), Date: NewDate(2024, 3, 1)}
	p, _ := PreviewTransaction(c, in)
	old, err := NewTransaction(c.ID, in, p, fixedNow)
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	c.ApplyTransaction(old, p, fixedNow)

	edit := TransactionInput{Type: Cost, Amount: dec("50"), Date: NewDate(2024, 3, 2)}
	p2, _ := PreviewTransaction(c, edit)
	updated, err := NewTransaction(c.ID, edit, p2, fixedNow)
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	c.ReplaceTransaction(old, updated, p2, fixedNow)

	if !c.TotalPayments.IsZero() {
		t.Fatalf("edited payment should leave the total, got %s", c.TotalPayments)
	}
	if !c.CheckInvariant() {
		t.Fatalf("payoff invariant broken")
	}
}

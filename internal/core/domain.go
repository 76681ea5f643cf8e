package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Payment  TransactionType = "PAYMENT"
	Cost     TransactionType = "COST"
	Interest TransactionType = "INTEREST"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Case struct {
		ID               uuid.UUID
		Name             string
		CourtCaseNumber  string
		JudgmentAmount   decimal.Decimal
		JudgmentDate     Date
		InterestRate     decimal.Decimal // annual percent
		LastPaymentDate  Date
		TotalPayments    decimal.Decimal
		AccruedInterest  decimal.Decimal
		PrincipalBalance decimal.Decimal
		PayoffAmount     decimal.Decimal
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	Transaction struct {
		ID          uuid.UUID
		CaseID      uuid.UUID
		Date        Date
		Type        TransactionType
		Amount      decimal.Decimal
		Description string
		// Snapshot taken when the transaction was applied.
		AccruedInterest  decimal.Decimal
		PrincipalBalance decimal.Decimal
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidRate        = errors.New("invalid interest rate")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAccrualDays = errors.New("accrual days must not be negative")
	ErrEmptyName          = errors.New("empty case name")
	ErrEmptyCourtNumber   = errors.New("empty court case number")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
)

// Valid reports whether t is one of the three ledger kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case Payment, Cost, Interest:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType accepts any casing and surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween counts whole calendar days from from to to, floored at zero.
func DaysBetween(from, to Date) int {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	days := int(DateOf(to.Time).Sub(DateOf(from.Time).Time).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CheckInvariant reports whether the payoff equals principal plus interest.
func (c Case) CheckInvariant() bool {
	return c.PayoffAmount.Equal(CalculatePayoffAmount(c.PrincipalBalance, c.AccruedInterest))
}

func (c Case) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.CourtCaseNumber) == "" {
		return ErrEmptyCourtNumber
	}
	if !c.JudgmentAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if c.InterestRate.IsNegative() {
		return ErrInvalidRate
	}
	if err := c.JudgmentDate.Validate(); err != nil {
		return fmt.Errorf("judgment date: %w", err)
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

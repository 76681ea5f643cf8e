// Package core holds the case ledger domain: money, dates, cases,
// transactions and the balance calculator.
//
// This file contains the balance calculator. Every function is pure: the
// result depends only on the arguments, nothing is rounded, and nothing is
// validated. Callers validate inputs and round at display time.
package core

import "github.com/shopspring/decimal"

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// CalculateInterest returns simple, non-compounding interest for the period:
//
//	principal * (annualRatePercent / 100) * days / 365
func CalculateInterest(principal, annualRatePercent decimal.Decimal, days int) decimal.Decimal {
	return principal.
		Mul(annualRatePercent.Div(hundred)).
		Mul(decimal.NewFromInt(int64(days))).
		Div(daysPerYear)
}

// CalculateNewBalance applies one transaction to a balance.
//
// A payment is applied after the accrued interest and the result floors at
// zero; overpayment is absorbed, not carried as credit. Costs and interest
// entries add their amount and ignore accruedInterest. Unknown types leave
// the balance untouched.
//
// The asymmetry between PAYMENT and COST/INTEREST matches the ledger rules
// the application has always used and is kept as-is.
func CalculateNewBalance(currentBalance, amount, accruedInterest decimal.Decimal, txType TransactionType) decimal.Decimal {
	switch txType {
	case Payment:
		return decimal.Max(decimal.Zero, currentBalance.Add(accruedInterest).Sub(amount))
	case Cost:
		return currentBalance.Add(amount)
	case Interest:
		return currentBalance.Add(amount)
	default:
		return currentBalance
	}
}

// CalculatePayoffAmount is the amount needed to satisfy the case today.
func CalculatePayoffAmount(principalBalance, accruedInterest decimal.Decimal) decimal.Decimal {
	return principalBalance.Add(accruedInterest)
}

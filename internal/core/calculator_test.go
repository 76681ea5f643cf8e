package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateInterest(t *testing.T) {
	cases := []struct {
		principal, rate string
		days            int
		want            string
	}{
		{"1000", "10", 365, "100"},
		{"36500", "5", 10, "50"},
		{"73000", "12", 30, "720"},
		{"1000", "0", 90, "0"},
		{"1000", "10", 0, "0"},
		{"0", "10", 30, "0"},
	}
	for _, tc := range cases {
		got := CalculateInterest(dec(tc.principal), dec(tc.rate), tc.days)
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("CalculateInterest(%s, %s, %d) = %s, want %s", tc.principal, tc.rate, tc.days, got, tc.want)
		}
	}
}

func TestCalculateInterestMatchesFormula(t *testing.T) {
	inputs := []struct {
		principal, rate string
		days            int
	}{
		{"100", "10", 30},
		{"12345.67", "9.5", 17},
		{"0.01", "100", 1},
		{"250000", "3.25", 731},
	}
	for _, in := range inputs {
		p, r := dec(in.principal), dec(in.rate)
		want := p.Mul(r.Div(hundred)).Mul(decimal.NewFromInt(int64(in.days))).Div(daysPerYear)
		got := CalculateInterest(p, r, in.days)
		if !got.Equal(want) {
			t.Fatalf("CalculateInterest(%s, %s, %d) = %s, want %s", in.principal, in.rate, in.days, got, want)
		}
		if got.IsNegative() {
			t.Fatalf("interest must not be negative for non-negative inputs, got %s", got)
		}
	}
}

func TestCalculateNewBalance(t *testing.T) {
	cases := []struct {
		name                      string
		balance, amount, interest string
		txType                    TransactionType
		want                      string
	}{
		{"payment floors at zero", "100", "150", "20", Payment, "0"},
		{"payment after interest", "100", "50", "20", Payment, "70"},
		{"payment exact payoff", "100", "120", "20", Payment, "0"},
		{"cost adds amount", "100", "50", "0", Cost, "150"},
		{"cost ignores interest", "100", "50", "20", Cost, "150"},
		{"interest adds flat amount", "100", "30", "0", Interest, "130"},
		{"interest ignores accrued", "100", "30", "7", Interest, "130"},
		{"unknown type unchanged", "100", "10", "5", TransactionType("UNKNOWN"), "100"},
		{"empty type unchanged", "100", "10", "5", TransactionType(""), "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateNewBalance(dec(tc.balance), dec(tc.amount), dec(tc.interest), tc.txType)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("CalculateNewBalance(%s, %s, %s, %s) = %s, want %s",
					tc.balance, tc.amount, tc.interest, tc.txType, got, tc.want)
			}
		})
	}
}

func TestCalculatePayoffAmount(t *testing.T) {
	if got := CalculatePayoffAmount(dec("100"), dec("25")); !got.Equal(dec("125")) {
		t.Fatalf("expected 125, got %s", got)
	}
	if got := CalculatePayoffAmount(decimal.Zero, decimal.Zero); !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestCalculatorIsDeterministic(t *testing.T) {
	p, r := dec("9876.54"), dec("7.75")
	first := CalculateInterest(p, r, 45)
	second := CalculateInterest(p, r, 45)
	if !first.Equal(second) {
		t.Fatalf("interest drifted: %s != %s", first, second)
	}

	b1 := CalculateNewBalance(p, dec("500"), first, Payment)
	b2 := CalculateNewBalance(p, dec("500"), first, Payment)
	if !b1.Equal(b2) {
		t.Fatalf("balance drifted: %s != %s", b1, b2)
	}

	if !CalculatePayoffAmount(b1, first).Equal(CalculatePayoffAmount(b2, second)) {
		t.Fatalf("payoff drifted")
	}
}

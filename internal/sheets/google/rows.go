package google

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"caseledger/internal/core"

	"github.com/google/uuid"
)

const maxTitleLen = 100

var transactionHeader = []any{"Date", "Type", "Amount", "Accrued interest", "Principal balance", "Description"}

// sheetTitle names the tab for a case: the court case number plus a short
// id suffix, so two cases sharing a number never collide.
func sheetTitle(caseID uuid.UUID, courtCaseNumber string) string {
	suffix := fmt.Sprintf(" (%s)", caseID.String()[:8])
	base := strings.Join(strings.Fields(courtCaseNumber), " ")
	if base == "" {
		base = "Case"
	}
	for utf8.RuneCountInString(base)+len(suffix) > maxTitleLen {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	return base + suffix
}

// quoteTitle renders a tab title for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// ledgerRows lays out the summary block, a blank line, then one row per
// transaction in the order given.
func ledgerRows(c core.Case, txs []core.Transaction) [][]any {
	rows := [][]any{
		{"Case", c.Name},
		{"Court case number", c.CourtCaseNumber},
		{"Judgment amount", core.FormatCurrency(c.JudgmentAmount)},
		{"Judgment date", core.FormatDate(c.JudgmentDate)},
		{"Interest rate", c.InterestRate.String() + "%"},
		{"Principal balance", core.FormatCurrency(c.PrincipalBalance)},
		{"Accrued interest", core.FormatCurrency(c.AccruedInterest)},
		{"Payoff amount", core.FormatCurrency(c.PayoffAmount)},
		{"Total payments", core.FormatCurrency(c.TotalPayments)},
		{"Last payment date", core.FormatDate(c.LastPaymentDate)},
		{},
		transactionHeader,
	}
	for _, tx := range txs {
		rows = append(rows, []any{
			core.FormatDate(tx.Date),
			tx.Type.String(),
			core.FormatCurrency(tx.Amount),
			core.FormatCurrency(tx.AccruedInterest),
			core.FormatCurrency(tx.PrincipalBalance),
			tx.Description,
		})
	}
	return rows
}

//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"caseledger/internal/config"
	"caseledger/internal/core"
	"caseledger/internal/log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportAndRemove(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	cfg := config.Load()
	if cfg.GoogleSpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	creds, err := cfg.ServiceAccountCredentials()
	if err != nil {
		t.Skipf("service account not configured: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, cfg.GoogleSpreadsheetID, creds, log.New(log.Config{Output: os.Stderr}))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	c, err := core.NewCase(core.CaseInput{
		Name:            "Integration test",
		CourtCaseNumber: "IT-" + uuid.NewString()[:6],
		JudgmentAmount:  decimal.NewFromInt(1000),
		JudgmentDate:    core.NewDate(2024, 1, 1),
	}, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	ref, err := client.ExportCase(ctx, c, nil)
	if err != nil {
		t.Fatalf("ExportCase: %v", err)
	}
	t.Logf("exported to %s", ref)

	if err := client.RemoveCase(ctx, c.ID, c.CourtCaseNumber); err != nil {
		t.Fatalf("RemoveCase: %v", err)
	}
}

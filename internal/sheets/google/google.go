package google

import (
	"context"
	"errors"
	"fmt"

	"caseledger/internal/core"
	"caseledger/internal/log"
	ports "caseledger/internal/sheets"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets client authenticated with service account key JSON.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte, logger *log.Logger) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	logger = logger.WithComponent(log.ComponentSheets)
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, logger), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

// ExportCase rewrites the case's tab, creating it on first export.
func (c *Client) ExportCase(ctx context.Context, cs core.Case, txs []core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title := sheetTitle(cs.ID, cs.CourtCaseNumber)

	_, found, err := c.findSheet(ctx, title)
	if err != nil {
		return "", err
	}
	if !found {
		if err := c.addSheet(ctx, title); err != nil {
			return "", err
		}
	}

	quoted := quoteTitle(title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", title, err)
	}

	rows := ledgerRows(cs, txs)
	rng := fmt.Sprintf("%s!A1:F%d", quoted, len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update sheet %s: %w", title, err)
	}

	c.logger.InfoContext(ctx, "Case exported to Google Sheets",
		log.FieldCaseID, cs.ID,
		log.FieldCourtNumber, cs.CourtCaseNumber,
		"range", rng,
		"transactions", len(txs))
	return rng, nil
}

// RemoveCase deletes the case's tab if it exists.
func (c *Client) RemoveCase(ctx context.Context, caseID uuid.UUID, courtCaseNumber string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := sheetTitle(caseID, courtCaseNumber)

	sheetID, found, err := c.findSheet(ctx, title)
	if err != nil {
		return err
	}
	if !found {
		c.logger.DebugContext(ctx, "No sheet to remove", log.FieldCaseID, caseID, "title", title)
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			// The first tab has id 0, which omitempty would drop.
			DeleteSheet: &gsheet.DeleteSheetRequest{SheetId: sheetID, ForceSendFields: []string{"SheetId"}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete sheet %s: %w", title, err)
	}
	c.logger.InfoContext(ctx, "Case sheet removed", log.FieldCaseID, caseID, "title", title)
	return nil
}

func (c *Client) findSheet(ctx context.Context, title string) (int64, bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func (c *Client) addSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

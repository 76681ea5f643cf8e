package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"caseledger/internal/core"
	"caseledger/internal/log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets is an in-memory stand-in for the Sheets REST surface the
// client touches.
type fakeSheets struct {
	mu      sync.Mutex
	titles  map[string]int64
	nextID  int64
	cleared []string
	updated map[string][][]any
	deleted []int64
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{titles: map[string]int64{"Sheet1": 0}, nextID: 1, updated: map[string][][]any{}}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		ss := gsheet.Spreadsheet{}
		for title, id := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title, SheetId: id}})
		}
		json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.titles[rq.AddSheet.Properties.Title] = f.nextID
				f.nextID++
			}
			if rq.DeleteSheet != nil {
				f.deleted = append(f.deleted, rq.DeleteSheet.SheetId)
				for title, id := range f.titles {
					if id == rq.DeleteSheet.SheetId {
						delete(f.titles, title)
					}
				}
			}
		}
		json.NewEncoder(w).Encode(gsheet.BatchUpdateSpreadsheetResponse{SpreadsheetId: "sheet-1"})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		rng := strings.TrimSuffix(path[strings.Index(path, "/values/")+len("/values/"):], ":clear")
		f.cleared = append(f.cleared, rng)
		json.NewEncoder(w).Encode(gsheet.ClearValuesResponse{})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.updated[rng] = vr.Values
		json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{UpdatedRows: int64(len(vr.Values))})
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := newFakeSheets()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "sheet-1", log.New(log.Config{Output: io.Discard})), fake
}

func testCase() core.Case {
	return core.Case{
		ID:               testCaseID,
		Name:             "Acme v. Doe",
		CourtCaseNumber:  "CV-1",
		JudgmentAmount:   decimal.NewFromInt(1000),
		JudgmentDate:     core.NewDate(2024, 1, 1),
		InterestRate:     decimal.NewFromInt(10),
		PrincipalBalance: decimal.NewFromInt(900),
		PayoffAmount:     decimal.NewFromInt(900),
	}
}

func TestExportCaseCreatesAndRewritesTab(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()
	title := sheetTitle(testCaseID, "CV-1")

	ref, err := client.ExportCase(ctx, testCase(), nil)
	if err != nil {
		t.Fatalf("ExportCase: %v", err)
	}
	if ref != "'"+title+"'!A1:F12" {
		t.Fatalf("ref = %q", ref)
	}
	if _, ok := fake.titles[title]; !ok {
		t.Fatalf("tab %q not created, have %v", title, fake.titles)
	}
	rows := fake.updated[ref]
	if len(rows) != 12 || rows[0][1] != "Acme v. Doe" {
		t.Fatalf("unexpected rows written: %v", rows)
	}

	tx := core.Transaction{Date: core.NewDate(2024, 2, 1), Type: core.Cost, Amount: decimal.NewFromInt(5)}
	if _, err := client.ExportCase(ctx, testCase(), []core.Transaction{tx}); err != nil {
		t.Fatalf("second ExportCase: %v", err)
	}
	if len(fake.titles) != 2 {
		t.Fatalf("second export must reuse the tab, have %v", fake.titles)
	}
	if len(fake.cleared) != 2 {
		t.Fatalf("each export clears the tab first, cleared=%v", fake.cleared)
	}
}

func TestRemoveCase(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	if err := client.RemoveCase(ctx, uuid.New(), "CV-404"); err != nil {
		t.Fatalf("removing an unknown tab should be a no-op: %v", err)
	}
	if len(fake.deleted) != 0 {
		t.Fatal("nothing should be deleted")
	}

	if _, err := client.ExportCase(ctx, testCase(), nil); err != nil {
		t.Fatal(err)
	}
	if err := client.RemoveCase(ctx, testCaseID, "CV-1"); err != nil {
		t.Fatalf("RemoveCase: %v", err)
	}
	if _, ok := fake.titles[sheetTitle(testCaseID, "CV-1")]; ok {
		t.Fatal("tab should be gone")
	}
	if _, ok := fake.titles["Sheet1"]; !ok {
		t.Fatal("other tabs must survive")
	}
}

func TestExportCaseSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"), goption.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	client := NewWithService(svc, "sheet-1", log.New(log.Config{Output: io.Discard}))

	if _, err := client.ExportCase(context.Background(), testCase(), nil); err == nil || !strings.Contains(err.Error(), "get spreadsheet") {
		t.Fatalf("expected get spreadsheet error, got %v", err)
	}
}

func TestNilServiceAndMissingConfig(t *testing.T) {
	c := &Client{}
	if _, err := c.ExportCase(context.Background(), testCase(), nil); err == nil {
		t.Fatal("expected error with nil service")
	}
	if err := c.RemoveCase(context.Background(), testCaseID, "CV-1"); err == nil {
		t.Fatal("expected error with nil service")
	}

	logger := log.New(log.Config{Output: io.Discard})
	if _, err := New(context.Background(), "", []byte("{}"), logger); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New(context.Background(), "sheet-1", nil, logger); err == nil {
		t.Fatal("expected missing credentials error")
	}
}

package sheets

import (
	"context"

	"caseledger/internal/core"

	"github.com/google/uuid"
)

// Ports for outbound export adapters.
type (
	// CaseExporter mirrors one case ledger. ExportCase replaces whatever
	// was exported before.
	CaseExporter interface {
		ExportCase(ctx context.Context, c core.Case, txs []core.Transaction) (ref string, err error)
	}

	// CaseRemover drops the mirror of a deleted case. Removing a case that
	// was never exported is not an error.
	CaseRemover interface {
		RemoveCase(ctx context.Context, caseID uuid.UUID, courtCaseNumber string) error
	}

	Exporter interface {
		CaseExporter
		CaseRemover
	}
)

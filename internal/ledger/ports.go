package ledger

import (
	"context"
	"errors"

	"caseledger/internal/core"

	"github.com/google/uuid"
)

// ErrNotFound is returned by every backend when a case or transaction id is unknown.
var ErrNotFound = errors.New("not found")

// Ports for ledger storage backends.
type (
	CaseReader interface {
		GetCase(ctx context.Context, id uuid.UUID) (core.Case, error)
		// ListCases returns cases newest first.
		ListCases(ctx context.Context) ([]core.Case, error)
	}

	CaseWriter interface {
		// SaveCase inserts or replaces the case aggregate.
		SaveCase(ctx context.Context, c core.Case) error
		// DeleteCase removes the case and all of its transactions.
		DeleteCase(ctx context.Context, id uuid.UUID) error
	}

	TransactionReader interface {
		GetTransaction(ctx context.Context, caseID, txID uuid.UUID) (core.Transaction, error)
		// ListTransactions returns the case's transactions, newest date first.
		ListTransactions(ctx context.Context, caseID uuid.UUID) ([]core.Transaction, error)
	}

	// TransactionWriter persists a transaction together with the case
	// aggregate it produced, so the two never disagree.
	TransactionWriter interface {
		RecordTransaction(ctx context.Context, c core.Case, tx core.Transaction) error
		UpdateTransaction(ctx context.Context, c core.Case, tx core.Transaction) error
		// DeleteTransaction removes the record only; the case aggregate is left as is.
		DeleteTransaction(ctx context.Context, caseID, txID uuid.UUID) error
	}

	Repository interface {
		CaseReader
		CaseWriter
		TransactionReader
		TransactionWriter
	}
)

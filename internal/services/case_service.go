package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"caseledger/internal/amqp"
	"caseledger/internal/cache"
	"caseledger/internal/core"
	"caseledger/internal/ledger"
	"caseledger/internal/log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Publisher emits ledger events. *amqp.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// Summary is the cached per-case rollup served next to the case record.
type Summary struct {
	CaseID               uuid.UUID       `json:"case_id"`
	PrincipalBalance     decimal.Decimal `json:"principal_balance"`
	AccruedInterest      decimal.Decimal `json:"accrued_interest"`
	PayoffAmount         decimal.Decimal `json:"payoff_amount"`
	TotalPayments        decimal.Decimal `json:"total_payments"`
	TotalCosts           decimal.Decimal `json:"total_costs"`
	TotalInterestCharges decimal.Decimal `json:"total_interest_charges"`
	LastPaymentDate      core.Date       `json:"last_payment_date"`
	TransactionCount     int             `json:"transaction_count"`
}

// TransactionResult is what a recorded or edited transaction produced.
type TransactionResult struct {
	Case        core.Case
	Transaction core.Transaction
	Preview     core.Preview
}

// CaseService orchestrates ledger operations across the store, the summary
// cache and the event publisher.
type CaseService struct {
	repo        ledger.Repository
	publisher   Publisher
	summaries   cache.Cache[Summary]
	defaultRate decimal.Decimal
	logger      *log.Logger
	structured  *log.StructuredLogger
	now         func() time.Time

	// mu serializes read-modify-write cycles on case aggregates.
	mu sync.Mutex
}

// Option customises a CaseService.
type Option func(*CaseService)

// WithPublisher enables event publishing. A nil publisher disables it.
func WithPublisher(p Publisher) Option {
	return func(s *CaseService) { s.publisher = p }
}

// WithSummaryCache enables summary caching.
func WithSummaryCache(c cache.Cache[Summary]) Option {
	return func(s *CaseService) { s.summaries = c }
}

// WithDefaultRate sets the rate used when a case is opened without one.
func WithDefaultRate(rate decimal.Decimal) Option {
	return func(s *CaseService) { s.defaultRate = rate }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *CaseService) { s.now = now }
}

func NewCaseService(repo ledger.Repository, logger *log.Logger, opts ...Option) *CaseService {
	logger = logger.WithComponent(log.ComponentLedger)
	s := &CaseService{
		repo:        repo,
		defaultRate: core.DefaultInterestRate,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCase runs the opening calculation, saves the case and publishes
// case.upserted.
func (s *CaseService) CreateCase(ctx context.Context, in core.CaseInput) (core.Case, error) {
	if in.InterestRate == nil {
		rate := s.defaultRate
		in.InterestRate = &rate
	}
	c, err := core.NewCase(in, s.now())
	if err != nil {
		return core.Case{}, err
	}
	if err := s.repo.SaveCase(ctx, c); err != nil {
		return core.Case{}, fmt.Errorf("save case: %w", err)
	}

	s.logger.InfoContext(ctx, "Case created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithCase(c.ID.String(), c.CourtCaseNumber, c.PrincipalBalance.String(),
				c.AccruedInterest.String(), c.PayoffAmount.String()).
			ToSlice()...)

	s.publish(ctx, amqp.NewLedgerEvent(amqp.CaseUpserted, c.ID, c.CourtCaseNumber, nil))
	return c, nil
}

func (s *CaseService) GetCase(ctx context.Context, id uuid.UUID) (core.Case, error) {
	c, err := s.repo.GetCase(ctx, id)
	if err != nil {
		return core.Case{}, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (s *CaseService) ListCases(ctx context.Context) ([]core.Case, error) {
	cases, err := s.repo.ListCases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// DeleteCase removes the case with its transactions and publishes
// case.deleted carrying the court number, so consumers can still find
// anything keyed on it.
func (s *CaseService) DeleteCase(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetCase(ctx, id)
	if err != nil {
		return fmt.Errorf("get case: %w", err)
	}
	if err := s.repo.DeleteCase(ctx, id); err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "Case deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldCaseID, id,
		log.FieldCourtNumber, c.CourtCaseNumber)

	s.publish(ctx, amqp.NewLedgerEvent(amqp.CaseDeleted, id, c.CourtCaseNumber, nil))
	return nil
}

// PreviewTransaction computes what the transaction would do to the case
// without persisting anything.
func (s *CaseService) PreviewTransaction(ctx context.Context, caseID uuid.UUID, in core.TransactionInput) (core.Preview, error) {
	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return core.Preview{}, fmt.Errorf("get case: %w", err)
	}
	return core.PreviewTransaction(c, in)
}

// RecordTransaction previews, applies and persists a new transaction.
func (s *CaseService) RecordTransaction(ctx context.Context, caseID uuid.UUID, in core.TransactionInput) (TransactionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("get case: %w", err)
	}
	p, err := core.PreviewTransaction(c, in)
	if err != nil {
		return TransactionResult{}, err
	}
	now := s.now()
	tx, err := core.NewTransaction(caseID, in, p, now)
	if err != nil {
		return TransactionResult{}, err
	}
	c.ApplyTransaction(tx, p, now)

	if err := s.repo.RecordTransaction(ctx, c, tx); err != nil {
		return TransactionResult{}, fmt.Errorf("record transaction: %w", err)
	}
	s.invalidate(ctx, caseID)
	s.logTransaction(ctx, log.OpCreate, c, tx)

	txID := tx.ID
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionRecorded, caseID, c.CourtCaseNumber, &txID))
	return TransactionResult{Case: c, Transaction: tx, Preview: p}, nil
}

// UpdateTransaction replaces an existing transaction, recomputed against
// the current case aggregate. Older transactions are left untouched.
func (s *CaseService) UpdateTransaction(ctx context.Context, caseID, txID uuid.UUID, in core.TransactionInput) (TransactionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("get case: %w", err)
	}
	old, err := s.repo.GetTransaction(ctx, caseID, txID)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("get transaction: %w", err)
	}
	p, err := core.PreviewTransaction(c, in)
	if err != nil {
		return TransactionResult{}, err
	}
	now := s.now()
	updated, err := core.NewTransaction(caseID, in, p, now)
	if err != nil {
		return TransactionResult{}, err
	}
	updated.ID = old.ID
	updated.CreatedAt = old.CreatedAt
	c.ReplaceTransaction(old, updated, p, now)

	if err := s.repo.UpdateTransaction(ctx, c, updated); err != nil {
		return TransactionResult{}, fmt.Errorf("update transaction: %w", err)
	}
	s.invalidate(ctx, caseID)
	s.logTransaction(ctx, log.OpUpdate, c, updated)

	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionUpdated, caseID, c.CourtCaseNumber, &txID))
	return TransactionResult{Case: c, Transaction: updated, Preview: p}, nil
}

// DeleteTransaction removes the record. The case aggregate keeps the
// balances the transaction produced.
func (s *CaseService) DeleteTransaction(ctx context.Context, caseID, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("get case: %w", err)
	}
	if err := s.repo.DeleteTransaction(ctx, caseID, txID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(ctx, caseID)

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldCaseID, caseID,
		log.FieldTxID, txID)

	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionDeleted, caseID, c.CourtCaseNumber, &txID))
	return nil
}

func (s *CaseService) ListTransactions(ctx context.Context, caseID uuid.UUID) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Summary returns the case rollup, served from the cache when possible.
func (s *CaseService) Summary(ctx context.Context, caseID uuid.UUID) (Summary, error) {
	key := caseID.String()
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(ctx, key); ok {
			return sum, nil
		}
	}

	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return Summary{}, fmt.Errorf("get case: %w", err)
	}
	txs, err := s.repo.ListTransactions(ctx, caseID)
	if err != nil {
		return Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	sum := Summarize(c, txs)

	if s.summaries != nil {
		s.summaries.Set(ctx, key, sum)
	}
	return sum, nil
}

// Summarize builds the rollup from a case and its transactions.
func Summarize(c core.Case, txs []core.Transaction) Summary {
	sum := Summary{
		CaseID:               c.ID,
		PrincipalBalance:     c.PrincipalBalance,
		AccruedInterest:      c.AccruedInterest,
		PayoffAmount:         c.PayoffAmount,
		TotalPayments:        c.TotalPayments,
		TotalCosts:           decimal.Zero,
		TotalInterestCharges: decimal.Zero,
		LastPaymentDate:      c.LastPaymentDate,
		TransactionCount:     len(txs),
	}
	for _, tx := range txs {
		switch tx.Type {
		case core.Cost:
			sum.TotalCosts = sum.TotalCosts.Add(tx.Amount)
		case core.Interest:
			sum.TotalInterestCharges = sum.TotalInterestCharges.Add(tx.Amount)
		}
	}
	return sum
}

func (s *CaseService) invalidate(ctx context.Context, caseID uuid.UUID) {
	if s.summaries != nil {
		s.summaries.Delete(ctx, caseID.String())
	}
}

func (s *CaseService) logTransaction(ctx context.Context, op string, c core.Case, tx core.Transaction) {
	s.structured.LogTransactionRecorded(ctx, op,
		c.ID.String(), tx.ID.String(), tx.Type.String(), tx.Amount.String(),
		c.PrincipalBalance.String(), c.AccruedInterest.String(), c.PayoffAmount.String())
}

// publish never fails the caller: the ledger is already persisted and the
// worker's pending sweep picks up anything a lost event missed.
func (s *CaseService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Publisher not configured, skipping event",
			log.FieldEventKind, event.Kind)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.structured.LogError(ctx, "Failed to publish ledger event", err,
			log.ComponentAMQP, log.OpPublish,
			log.LogFields{log.FieldEventKind: string(event.Kind), log.FieldCaseID: event.CaseID.String()})
	}
}

// IsNotFound reports whether err stems from an unknown case or transaction.
func IsNotFound(err error) bool {
	return errors.Is(err, ledger.ErrNotFound)
}

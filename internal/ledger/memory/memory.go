package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"caseledger/internal/core"
	"caseledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ ledger.Repository = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]core.Case
	txs   map[uuid.UUID]map[uuid.UUID]core.Transaction
}

func New() *Store {
	return &Store{
		cases: make(map[uuid.UUID]core.Case),
		txs:   make(map[uuid.UUID]map[uuid.UUID]core.Transaction),
	}
}

type (
	seedTransaction struct {
		Type        string          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Date        core.Date       `json:"date"`
		Description string          `json:"description"`
		AccrualDays *int            `json:"accrual_days"`
	}

	seedCase struct {
		Name            string            `json:"name"`
		CourtCaseNumber string            `json:"court_case_number"`
		JudgmentAmount  decimal.Decimal   `json:"judgment_amount"`
		InterestRate    *decimal.Decimal  `json:"interest_rate"`
		JudgmentDate    core.Date         `json:"judgment_date"`
		EndDate         core.Date         `json:"end_date"`
		InitialPayment  decimal.Decimal   `json:"initial_payment"`
		InitialCost     decimal.Decimal   `json:"initial_cost"`
		Transactions    []seedTransaction `json:"transactions"`
	}
)

// NewFromFile builds a store pre-populated from a JSON seed file. Seed cases
// go through the same opening calculation and transaction replay as live
// data. An empty path yields an empty store.
func NewFromFile(path string, now time.Time) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedCase
	if err := json.Unmarshal(b, &seeds); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for i, sc := range seeds {
		if err := s.seed(sc, now); err != nil {
			return nil, fmt.Errorf("seed case %d (%s): %w", i, sc.CourtCaseNumber, err)
		}
	}
	return s, nil
}

func (s *Store) seed(sc seedCase, now time.Time) error {
	c, err := core.NewCase(core.CaseInput{
		Name:            sc.Name,
		CourtCaseNumber: sc.CourtCaseNumber,
		JudgmentAmount:  sc.JudgmentAmount,
		InterestRate:    sc.InterestRate,
		JudgmentDate:    sc.JudgmentDate,
		EndDate:         sc.EndDate,
		InitialPayment:  sc.InitialPayment,
		InitialCost:     sc.InitialCost,
	}, now)
	if err != nil {
		return err
	}
	s.cases[c.ID] = c
	s.txs[c.ID] = make(map[uuid.UUID]core.Transaction)

	for _, st := range sc.Transactions {
		typ, err := core.ParseTransactionType(st.Type)
		if err != nil {
			return err
		}
		in := core.TransactionInput{
			Type:        typ,
			Amount:      st.Amount,
			Date:        st.Date,
			Description: st.Description,
			AccrualDays: st.AccrualDays,
		}
		p, err := core.PreviewTransaction(c, in)
		if err != nil {
			return err
		}
		tx, err := core.NewTransaction(c.ID, in, p, now)
		if err != nil {
			return err
		}
		c.ApplyTransaction(tx, p, now)
		s.cases[c.ID] = c
		s.txs[c.ID][tx.ID] = tx
	}
	return nil
}

func (s *Store) GetCase(_ context.Context, id uuid.UUID) (core.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return core.Case{}, ledger.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCases(_ context.Context) ([]core.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b core.Case) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.CourtCaseNumber, b.CourtCaseNumber)
	})
	return out, nil
}

func (s *Store) SaveCase(_ context.Context, c core.Case) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = c
	if _, ok := s.txs[c.ID]; !ok {
		s.txs[c.ID] = make(map[uuid.UUID]core.Transaction)
	}
	return nil
}

func (s *Store) DeleteCase(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.cases, id)
	delete(s.txs, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, caseID, txID uuid.UUID) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[caseID][txID]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return tx, nil
}

func (s *Store) ListTransactions(_ context.Context, caseID uuid.UUID) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.cases[caseID]; !ok {
		return nil, ledger.ErrNotFound
	}
	out := make([]core.Transaction, 0, len(s.txs[caseID]))
	for _, tx := range s.txs[caseID] {
		out = append(out, tx)
	}
	slices.SortFunc(out, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) RecordTransaction(_ context.Context, c core.Case, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return ledger.ErrNotFound
	}
	s.cases[c.ID] = c
	s.txs[c.ID][tx.ID] = tx
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, c core.Case, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[c.ID][tx.ID]; !ok {
		return ledger.ErrNotFound
	}
	s.cases[c.ID] = c
	s.txs[c.ID][tx.ID] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, caseID, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[caseID][txID]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.txs[caseID], txID)
	return nil
}

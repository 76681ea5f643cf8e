package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"caseledger/internal/core"
	"caseledger/internal/ledger"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Export states tracked per case for the sheet mirror.
const (
	ExportPending  = "pending"
	ExportExported = "exported"
	ExportError    = "error"
)

const timeLayout = time.RFC3339Nano

var _ ledger.Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const caseColumns = `id, name, court_case_number, judgment_amount, judgment_date, interest_rate,
	last_payment_date, total_payments, accrued_interest, principal_balance, payoff_amount,
	created_at, updated_at`

const txColumns = `id, case_id, date, type, amount, description, accrued_interest,
	principal_balance, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(s scanner) (core.Case, error) {
	var (
		c                         core.Case
		judgmentDate, lastPayment string
		createdAt, updatedAt      string
	)
	err := s.Scan(&c.ID, &c.Name, &c.CourtCaseNumber, &c.JudgmentAmount, &judgmentDate, &c.InterestRate,
		&lastPayment, &c.TotalPayments, &c.AccruedInterest, &c.PrincipalBalance, &c.PayoffAmount,
		&createdAt, &updatedAt)
	if err != nil {
		return core.Case{}, err
	}
	if c.JudgmentDate, err = parseDate(judgmentDate); err != nil {
		return core.Case{}, err
	}
	if c.LastPaymentDate, err = parseDate(lastPayment); err != nil {
		return core.Case{}, err
	}
	if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Case{}, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.Case{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return c, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		date, txType         string
		createdAt, updatedAt string
	)
	err := s.Scan(&tx.ID, &tx.CaseID, &date, &txType, &tx.Amount, &tx.Description,
		&tx.AccruedInterest, &tx.PrincipalBalance, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(txType)
	if tx.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	if tx.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if tx.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return tx, nil
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (r *SQLiteRepository) GetCase(ctx context.Context, id uuid.UUID) (core.Case, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id.String())
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Case{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Case{}, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCases(ctx context.Context) ([]core.Case, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY created_at DESC, court_case_number`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []core.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveCase(ctx context.Context, c core.Case) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := upsertCase(ctx, r.db, c); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Case saved to SQLite", "case_id", c.ID, "court_case_number", c.CourtCaseNumber)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertCase(ctx context.Context, db execer, c core.Case) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`, export_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			court_case_number = excluded.court_case_number,
			judgment_amount = excluded.judgment_amount,
			judgment_date = excluded.judgment_date,
			interest_rate = excluded.interest_rate,
			last_payment_date = excluded.last_payment_date,
			total_payments = excluded.total_payments,
			accrued_interest = excluded.accrued_interest,
			principal_balance = excluded.principal_balance,
			payoff_amount = excluded.payoff_amount,
			updated_at = excluded.updated_at,
			export_status = 'pending'`,
		c.ID.String(), c.Name, c.CourtCaseNumber, c.JudgmentAmount.String(), c.JudgmentDate.String(),
		c.InterestRate.String(), c.LastPaymentDate.String(), c.TotalPayments.String(),
		c.AccruedInterest.String(), c.PrincipalBalance.String(), c.PayoffAmount.String(),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert case: %w", err)
	}
	return nil
}

// updateCaseAggregate writes the balance fields of an existing case.
func updateCaseAggregate(ctx context.Context, db execer, c core.Case) error {
	res, err := db.ExecContext(ctx, `
		UPDATE cases SET
			last_payment_date = ?, total_payments = ?, accrued_interest = ?,
			principal_balance = ?, payoff_amount = ?, updated_at = ?, export_status = 'pending'
		WHERE id = ?`,
		c.LastPaymentDate.String(), c.TotalPayments.String(), c.AccruedInterest.String(),
		c.PrincipalBalance.String(), c.PayoffAmount.String(), formatTime(c.UpdatedAt), c.ID.String())
	if err != nil {
		return fmt.Errorf("update case aggregate: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCase(ctx context.Context, id uuid.UUID) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE case_id = ?`, id.String()); err != nil {
			return fmt.Errorf("delete case transactions: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id.String())
		if err != nil {
			return fmt.Errorf("delete case: %w", err)
		}
		return requireAffected(res)
	})
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, caseID, txID uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ? AND case_id = ?`,
		txID.String(), caseID.String())
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, caseID uuid.UUID) ([]core.Transaction, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM cases WHERE id = ?`, caseID.String()).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check case: %w", err)
	}
	if exists == 0 {
		return nil, ledger.ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+txColumns+` FROM transactions
		WHERE case_id = ? ORDER BY date DESC, created_at DESC`, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) RecordTransaction(ctx context.Context, c core.Case, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := updateCaseAggregate(ctx, tx, c); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO transactions (`+txColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID.String(), c.ID.String(), t.Date.String(), string(t.Type), t.Amount.String(), t.Description,
			t.AccruedInterest.String(), t.PrincipalBalance.String(), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, c core.Case, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE transactions SET
				date = ?, type = ?, amount = ?, description = ?, accrued_interest = ?,
				principal_balance = ?, updated_at = ?
			WHERE id = ? AND case_id = ?`,
			t.Date.String(), string(t.Type), t.Amount.String(), t.Description, t.AccruedInterest.String(),
			t.PrincipalBalance.String(), formatTime(t.UpdatedAt), t.ID.String(), c.ID.String())
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		return updateCaseAggregate(ctx, tx, c)
	})
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, caseID, txID uuid.UUID) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND case_id = ?`,
			txID.String(), caseID.String())
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		// The sheet mirror still lists the removed row until the next export.
		if _, err := tx.ExecContext(ctx, `UPDATE cases SET export_status = 'pending', updated_at = ? WHERE id = ?`,
			formatTime(time.Now()), caseID.String()); err != nil {
			return fmt.Errorf("mark case pending: %w", err)
		}
		return nil
	})
}

// PendingExports returns ids of cases whose sheet mirror is stale, oldest change first.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM cases
		WHERE export_status IN ('pending', 'error') ORDER BY updated_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending exports: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan case id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ExportStatus returns the export state of a case.
func (r *SQLiteRepository) ExportStatus(ctx context.Context, id uuid.UUID) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT export_status FROM cases WHERE id = ?`, id.String()).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ledger.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get export status: %w", err)
	}
	return status, nil
}

// MarkExported marks a case as mirrored. It is a no-op when the case changed
// after the exported snapshot was read.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id uuid.UUID, snapshotUpdatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cases SET export_status = 'exported', exported_at = ?
		WHERE id = ? AND updated_at = ?`,
		formatTime(time.Now()), id.String(), formatTime(snapshotUpdatedAt))
	if err != nil {
		return fmt.Errorf("mark case exported: %w", err)
	}
	slog.InfoContext(ctx, "Case marked as exported", "case_id", id)
	return nil
}

// MarkExportError marks a case whose export failed; the sweep retries it.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cases SET export_status = 'error' WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("mark case export error: %w", err)
	}
	slog.WarnContext(ctx, "Case marked with export error", "case_id", id)
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"treasury/internal/core"
)

func (r *Repository) CreateYearlyBalance(ctx context.Context, b core.YearlyBalance) (core.YearlyBalance, error) {
	var closing sql.NullInt64
	if b.ClosingBalance != nil {
		closing = sql.NullInt64{Int64: b.ClosingBalance.Cents, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO yearly_balances (year, opening_cents, closing_cents, notes, created_by)
		VALUES (?, ?, ?, ?, ?)`,
		b.Year, b.OpeningBalance.Cents, closing, b.Notes, b.CreatedBy)
	if err != nil {
		return core.YearlyBalance{}, fmt.Errorf("insert yearly balance: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.YearlyBalance{}, fmt.Errorf("yearly balance insert id: %w", err)
	}
	return b, nil
}

func (r *Repository) GetYearlyBalance(ctx context.Context, year int) (core.YearlyBalance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, year, opening_cents, closing_cents, notes, created_by, created_at, updated_at
		FROM yearly_balances WHERE year = ?`, year)
	return scanYearlyBalance(row)
}

func (r *Repository) ListYearlyBalances(ctx context.Context) ([]core.YearlyBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, year, opening_cents, closing_cents, notes, created_by, created_at, updated_at
		FROM yearly_balances ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("list yearly balances: %w", err)
	}
	defer rows.Close()

	var out []core.YearlyBalance
	for rows.Next() {
		b, err := scanYearlyBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateYearlyBalance(ctx context.Context, b core.YearlyBalance) error {
	var closing sql.NullInt64
	if b.ClosingBalance != nil {
		closing = sql.NullInt64{Int64: b.ClosingBalance.Cents, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE yearly_balances
		SET opening_cents = ?, closing_cents = ?, notes = ?, updated_at = datetime('now')
		WHERE id = ?`,
		b.OpeningBalance.Cents, closing, b.Notes, b.ID)
	if err != nil {
		return fmt.Errorf("update yearly balance: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteYearlyBalance(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM yearly_balances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete yearly balance: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) YearlyBalanceExists(ctx context.Context, year int) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM yearly_balances WHERE year = ?`, year).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check yearly balance: %w", err)
	}
	return n > 0, nil
}

// LatestAccountSnapshot returns the snapshot with the maximum balance date.
// ok is false when no snapshot exists at all.
func (r *Repository) LatestAccountSnapshot(ctx context.Context) (core.AccountBalance, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, balance_cents, balance_date, notes, bank_statement_url, updated_by, created_at
		FROM account_balances ORDER BY balance_date DESC, id DESC LIMIT 1`)
	b, err := scanAccountBalance(row)
	if errors.Is(err, core.ErrNotFound) {
		return core.AccountBalance{}, false, nil
	}
	if err != nil {
		return core.AccountBalance{}, false, err
	}
	return b, true, nil
}

// ListAccountSnapshots returns snapshots newest first. A non-positive
// limit returns all of them.
func (r *Repository) ListAccountSnapshots(ctx context.Context, limit int) ([]core.AccountBalance, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, balance_cents, balance_date, notes, bank_statement_url, updated_by, created_at
		FROM account_balances ORDER BY balance_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list account snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.AccountBalance
	for rows.Next() {
		b, err := scanAccountBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) SnapshotExistsForDate(ctx context.Context, date string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM account_balances WHERE balance_date = ?`, date).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check snapshot date: %w", err)
	}
	return n > 0, nil
}

func (r *Repository) CreateAccountSnapshot(ctx context.Context, b core.AccountBalance) (core.AccountBalance, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO account_balances (balance_cents, balance_date, notes, bank_statement_url, updated_by)
		VALUES (?, ?, ?, ?, ?)`,
		b.CurrentBalance.Cents, fmtDate(b.BalanceDate), b.Notes, b.BankStatementURL, b.UpdatedBy)
	if err != nil {
		return core.AccountBalance{}, fmt.Errorf("insert account snapshot: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.AccountBalance{}, fmt.Errorf("account snapshot insert id: %w", err)
	}
	return b, nil
}

// UpdateAccountSnapshot corrects an existing snapshot in place. New values
// for the same date must go through this, never through a second create.
func (r *Repository) UpdateAccountSnapshot(ctx context.Context, b core.AccountBalance) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE account_balances
		SET balance_cents = ?, notes = ?, bank_statement_url = ?, updated_by = ?
		WHERE id = ?`,
		b.CurrentBalance.Cents, b.Notes, b.BankStatementURL, b.UpdatedBy, b.ID)
	if err != nil {
		return fmt.Errorf("update account snapshot: %w", err)
	}
	return requireRow(res)
}

func scanYearlyBalance(row rowScanner) (core.YearlyBalance, error) {
	var b core.YearlyBalance
	var closing sql.NullInt64
	var created, updated string
	err := row.Scan(&b.ID, &b.Year, &b.OpeningBalance.Cents, &closing, &b.Notes, &b.CreatedBy, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return b, core.ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("scan yearly balance: %w", err)
	}
	if closing.Valid {
		b.ClosingBalance = &core.Money{Cents: closing.Int64}
	}
	b.CreatedAt = parseDate(created)
	b.UpdatedAt = parseDate(updated)
	return b, nil
}

func scanAccountBalance(row rowScanner) (core.AccountBalance, error) {
	var b core.AccountBalance
	var date, created string
	err := row.Scan(&b.ID, &b.CurrentBalance.Cents, &date, &b.Notes, &b.BankStatementURL, &b.UpdatedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return b, core.ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("scan account balance: %w", err)
	}
	b.BalanceDate = parseDate(date)
	b.CreatedAt = parseDate(created)
	return b, nil
}

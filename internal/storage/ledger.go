package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"treasury/internal/core"
)

// ExpenseFilter narrows expense listings. Zero values mean "no filter".
type ExpenseFilter struct {
	Window        core.Window
	CategoryID    int64
	SubcategoryID int64
	Approved      *bool
}

// CollectionFilter narrows manual collection listings.
type CollectionFilter struct {
	Window   core.Window
	Mode     core.CollectionMode
	Category string
	Verified *bool
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (amount_cents, description, expense_date, vendor_name, receipt_url,
			is_approved, category_id, subcategory_id, linked_event_id, creator_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Amount.Cents, e.Description, fmtDate(e.ExpenseDate), e.VendorName, e.ReceiptURL,
		boolToInt(e.IsApproved), e.CategoryID, nullInt(e.SubcategoryID), nullInt(e.LinkedEventID), e.CreatorID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	return e, nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, amount_cents, description, expense_date, vendor_name, receipt_url,
		       is_approved, category_id, subcategory_id, linked_event_id, creator_id, created_at, updated_at
		FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

func (r *Repository) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	q := `SELECT id, amount_cents, description, expense_date, vendor_name, receipt_url,
	             is_approved, category_id, subcategory_id, linked_event_id, creator_id, created_at, updated_at
	      FROM expenses WHERE 1=1`
	var args []any
	if !f.Window.From.IsZero() {
		q += ` AND date(expense_date) >= ?`
		args = append(args, fmtDate(f.Window.From))
	}
	if !f.Window.To.IsZero() {
		q += ` AND date(expense_date) <= ?`
		args = append(args, fmtDate(f.Window.To))
	}
	if f.CategoryID > 0 {
		q += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.SubcategoryID > 0 {
		q += ` AND subcategory_id = ?`
		args = append(args, f.SubcategoryID)
	}
	if f.Approved != nil {
		q += ` AND is_approved = ?`
		args = append(args, boolToInt(*f.Approved))
	}
	q += ` ORDER BY expense_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount_cents = ?, description = ?, expense_date = ?, vendor_name = ?, receipt_url = ?,
		    is_approved = ?, category_id = ?, subcategory_id = ?, linked_event_id = ?, updated_at = datetime('now')
		WHERE id = ?`,
		e.Amount.Cents, e.Description, fmtDate(e.ExpenseDate), e.VendorName, e.ReceiptURL,
		boolToInt(e.IsApproved), e.CategoryID, nullInt(e.SubcategoryID), nullInt(e.LinkedEventID), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) CountExpensesByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses by category: %w", err)
	}
	return n, nil
}

func (r *Repository) CountExpensesBySubcategory(ctx context.Context, subcategoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE subcategory_id = ?`, subcategoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses by subcategory: %w", err)
	}
	return n, nil
}

func (r *Repository) CreateCollection(ctx context.Context, c core.ManualCollection) (core.ManualCollection, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO manual_collections (amount_cents, description, collection_date, collection_mode,
			category, is_verified, receipt_url, linked_event_id, creator_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Amount.Cents, c.Description, fmtDate(c.CollectionDate), string(c.Mode),
		c.Category, boolToInt(c.IsVerified), c.ReceiptURL, nullInt(c.LinkedEventID), c.CreatorID)
	if err != nil {
		return core.ManualCollection{}, fmt.Errorf("insert collection: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.ManualCollection{}, fmt.Errorf("collection insert id: %w", err)
	}
	return c, nil
}

func (r *Repository) GetCollection(ctx context.Context, id int64) (core.ManualCollection, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, amount_cents, description, collection_date, collection_mode, category,
		       is_verified, receipt_url, linked_event_id, creator_id, created_at, updated_at
		FROM manual_collections WHERE id = ?`, id)
	return scanCollection(row)
}

func (r *Repository) ListCollections(ctx context.Context, f CollectionFilter) ([]core.ManualCollection, error) {
	q := `SELECT id, amount_cents, description, collection_date, collection_mode, category,
	             is_verified, receipt_url, linked_event_id, creator_id, created_at, updated_at
	      FROM manual_collections WHERE 1=1`
	var args []any
	if !f.Window.From.IsZero() {
		q += ` AND date(collection_date) >= ?`
		args = append(args, fmtDate(f.Window.From))
	}
	if !f.Window.To.IsZero() {
		q += ` AND date(collection_date) <= ?`
		args = append(args, fmtDate(f.Window.To))
	}
	if f.Mode != "" {
		q += ` AND collection_mode = ?`
		args = append(args, string(f.Mode))
	}
	if f.Category != "" {
		q += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Verified != nil {
		q += ` AND is_verified = ?`
		args = append(args, boolToInt(*f.Verified))
	}
	q += ` ORDER BY collection_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []core.ManualCollection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateCollection(ctx context.Context, c core.ManualCollection) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE manual_collections
		SET amount_cents = ?, description = ?, collection_date = ?, collection_mode = ?,
		    category = ?, is_verified = ?, receipt_url = ?, linked_event_id = ?, updated_at = datetime('now')
		WHERE id = ?`,
		c.Amount.Cents, c.Description, fmtDate(c.CollectionDate), string(c.Mode),
		c.Category, boolToInt(c.IsVerified), c.ReceiptURL, nullInt(c.LinkedEventID), c.ID)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteCollection(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM manual_collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return requireRow(res)
}

// AppendPaymentTransaction is the write boundary used by the online payment
// feed; the treasury core itself only ever reads this table.
func (r *Repository) AppendPaymentTransaction(ctx context.Context, p core.PaymentTransaction) (core.PaymentTransaction, error) {
	created := p.CreatedAt
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (amount_cents, status, provider, reference_type, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Amount.Cents, string(p.Status), p.Provider, p.ReferenceType, p.UserID,
		created.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return core.PaymentTransaction{}, fmt.Errorf("append payment transaction: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return core.PaymentTransaction{}, fmt.Errorf("payment insert id: %w", err)
	}
	return p, nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var approved int
	var date, created, updated string
	var sub, event sql.NullInt64
	err := row.Scan(&e.ID, &e.Amount.Cents, &e.Description, &date, &e.VendorName, &e.ReceiptURL,
		&approved, &e.CategoryID, &sub, &event, &e.CreatorID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return e, core.ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("scan expense: %w", err)
	}
	e.IsApproved = approved != 0
	e.ExpenseDate = parseDate(date)
	e.SubcategoryID = intPtr(sub)
	e.LinkedEventID = intPtr(event)
	e.CreatedAt = parseDate(created)
	e.UpdatedAt = parseDate(updated)
	return e, nil
}

func scanCollection(row rowScanner) (core.ManualCollection, error) {
	var c core.ManualCollection
	var verified int
	var date, mode, created, updated string
	var event sql.NullInt64
	err := row.Scan(&c.ID, &c.Amount.Cents, &c.Description, &date, &mode, &c.Category,
		&verified, &c.ReceiptURL, &event, &c.CreatorID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return c, core.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scan collection: %w", err)
	}
	c.IsVerified = verified != 0
	c.CollectionDate = parseDate(date)
	c.Mode = core.CollectionMode(mode)
	c.LinkedEventID = intPtr(event)
	c.CreatedAt = parseDate(created)
	c.UpdatedAt = parseDate(updated)
	return c, nil
}

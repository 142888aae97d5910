package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"treasury/internal/core"
)

// CategoryStats is a category annotated with the dependent counts and the
// expense total used by listings and delete guards.
type CategoryStats struct {
	Category         core.ExpenseCategory
	SubcategoryCount int64
	ExpenseCount     int64
	ExpenseTotal     core.Money
}

// SubcategoryStats mirrors CategoryStats for one subcategory.
type SubcategoryStats struct {
	Subcategory  core.ExpenseSubcategory
	ExpenseCount int64
	ExpenseTotal core.Money
}

func (r *Repository) CreateCategory(ctx context.Context, c core.ExpenseCategory) (core.ExpenseCategory, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expense_categories (name, description, is_active, display_order)
		VALUES (?, ?, ?, ?)`,
		c.Name, c.Description, boolToInt(c.IsActive), c.DisplayOrder)
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("category insert id: %w", err)
	}
	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.ExpenseCategory, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_active, display_order, created_at, updated_at
		FROM expense_categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, is_active, display_order, created_at, updated_at
		FROM expense_categories ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCategoryStats returns every category with its dependent counts and
// expense total, ordered by display order.
func (r *Repository) ListCategoryStats(ctx context.Context) ([]CategoryStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.is_active, c.display_order, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM expense_subcategories s WHERE s.category_id = c.id),
		       (SELECT COUNT(*) FROM expenses e WHERE e.category_id = c.id),
		       (SELECT COALESCE(SUM(e.amount_cents), 0) FROM expenses e WHERE e.category_id = c.id)
		FROM expense_categories c
		ORDER BY c.display_order, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list category stats: %w", err)
	}
	defer rows.Close()

	var out []CategoryStats
	for rows.Next() {
		var s CategoryStats
		var active int
		var created, updated string
		err := rows.Scan(&s.Category.ID, &s.Category.Name, &s.Category.Description,
			&active, &s.Category.DisplayOrder, &created, &updated,
			&s.SubcategoryCount, &s.ExpenseCount, &s.ExpenseTotal.Cents)
		if err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		s.Category.IsActive = active != 0
		s.Category.CreatedAt = parseDate(created)
		s.Category.UpdatedAt = parseDate(updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.ExpenseCategory) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expense_categories
		SET name = ?, description = ?, is_active = ?, display_order = ?, updated_at = datetime('now')
		WHERE id = ?`,
		c.Name, c.Description, boolToInt(c.IsActive), c.DisplayOrder, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expense_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

// CategoryNameExists checks the trimmed name against every category, active
// or not. Uniqueness is global and case sensitive.
func (r *Repository) CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expense_categories WHERE name = ? AND id != ?`,
		name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return n > 0, nil
}

// MaxCategoryOrder returns the highest display order, or -1 when the table
// is empty so that max+1 starts a fresh list at 0.
func (r *Repository) MaxCategoryOrder(ctx context.Context) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(display_order), -1) FROM expense_categories`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max category order: %w", err)
	}
	return max, nil
}

// ReorderCategories assigns display_order = position for the given id list
// in one transaction. Unknown ids fail the whole reorder.
func (r *Repository) ReorderCategories(ctx context.Context, ids []int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for pos, id := range ids {
			res, err := tx.ExecContext(ctx, `
				UPDATE expense_categories
				SET display_order = ?, updated_at = datetime('now')
				WHERE id = ?`, pos, id)
			if err != nil {
				return fmt.Errorf("reorder category %d: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("reorder category %d: %w", id, err)
			}
			if n == 0 {
				return core.ErrUnknownEntity
			}
		}
		return nil
	})
}

func (r *Repository) CountSubcategories(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expense_subcategories WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count subcategories: %w", err)
	}
	return n, nil
}

func (r *Repository) CreateSubcategory(ctx context.Context, s core.ExpenseSubcategory) (core.ExpenseSubcategory, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expense_subcategories (category_id, name, description, is_active, display_order)
		VALUES (?, ?, ?, ?, ?)`,
		s.CategoryID, s.Name, s.Description, boolToInt(s.IsActive), s.DisplayOrder)
	if err != nil {
		return core.ExpenseSubcategory{}, fmt.Errorf("insert subcategory: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return core.ExpenseSubcategory{}, fmt.Errorf("subcategory insert id: %w", err)
	}
	return s, nil
}

func (r *Repository) GetSubcategory(ctx context.Context, id int64) (core.ExpenseSubcategory, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, category_id, name, description, is_active, display_order, created_at, updated_at
		FROM expense_subcategories WHERE id = ?`, id)
	return scanSubcategory(row)
}

func (r *Repository) ListSubcategories(ctx context.Context, categoryID int64) ([]core.ExpenseSubcategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, name, description, is_active, display_order, created_at, updated_at
		FROM expense_subcategories WHERE category_id = ?
		ORDER BY display_order, id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseSubcategory
	for rows.Next() {
		s, err := scanSubcategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSubcategoryStats annotates each subcategory of a category with its
// expense count and total.
func (r *Repository) ListSubcategoryStats(ctx context.Context, categoryID int64) ([]SubcategoryStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.category_id, s.name, s.description, s.is_active, s.display_order, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM expenses e WHERE e.subcategory_id = s.id),
		       (SELECT COALESCE(SUM(e.amount_cents), 0) FROM expenses e WHERE e.subcategory_id = s.id)
		FROM expense_subcategories s
		WHERE s.category_id = ?
		ORDER BY s.display_order, s.id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subcategory stats: %w", err)
	}
	defer rows.Close()

	var out []SubcategoryStats
	for rows.Next() {
		var s SubcategoryStats
		var active int
		var created, updated string
		err := rows.Scan(&s.Subcategory.ID, &s.Subcategory.CategoryID, &s.Subcategory.Name,
			&s.Subcategory.Description, &active, &s.Subcategory.DisplayOrder, &created, &updated,
			&s.ExpenseCount, &s.ExpenseTotal.Cents)
		if err != nil {
			return nil, fmt.Errorf("scan subcategory stats: %w", err)
		}
		s.Subcategory.IsActive = active != 0
		s.Subcategory.CreatedAt = parseDate(created)
		s.Subcategory.UpdatedAt = parseDate(updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateSubcategory(ctx context.Context, s core.ExpenseSubcategory) error {
	// CategoryID is immutable and deliberately absent from the SET list.
	res, err := r.db.ExecContext(ctx, `
		UPDATE expense_subcategories
		SET name = ?, description = ?, is_active = ?, display_order = ?, updated_at = datetime('now')
		WHERE id = ?`,
		s.Name, s.Description, boolToInt(s.IsActive), s.DisplayOrder, s.ID)
	if err != nil {
		return fmt.Errorf("update subcategory: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteSubcategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expense_subcategories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	return requireRow(res)
}

// SubcategoryNameExists checks uniqueness within one parent category.
func (r *Repository) SubcategoryNameExists(ctx context.Context, categoryID int64, name string, excludeID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expense_subcategories WHERE category_id = ? AND name = ? AND id != ?`,
		categoryID, name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check subcategory name: %w", err)
	}
	return n > 0, nil
}

func (r *Repository) MaxSubcategoryOrder(ctx context.Context, categoryID int64) (int, error) {
	var max int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(display_order), -1) FROM expense_subcategories WHERE category_id = ?`,
		categoryID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max subcategory order: %w", err)
	}
	return max, nil
}

// ReorderSubcategories reorders within one parent category; an id that does
// not exist under that parent aborts the transaction.
func (r *Repository) ReorderSubcategories(ctx context.Context, categoryID int64, ids []int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for pos, id := range ids {
			res, err := tx.ExecContext(ctx, `
				UPDATE expense_subcategories
				SET display_order = ?, updated_at = datetime('now')
				WHERE id = ? AND category_id = ?`, pos, id, categoryID)
			if err != nil {
				return fmt.Errorf("reorder subcategory %d: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("reorder subcategory %d: %w", id, err)
			}
			if n == 0 {
				return core.ErrUnknownEntity
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.ExpenseCategory, error) {
	var c core.ExpenseCategory
	var active int
	var created, updated string
	err := row.Scan(&c.ID, &c.Name, &c.Description, &active, &c.DisplayOrder, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return c, core.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scan category: %w", err)
	}
	c.IsActive = active != 0
	c.CreatedAt = parseDate(created)
	c.UpdatedAt = parseDate(updated)
	return c, nil
}

func scanSubcategory(row rowScanner) (core.ExpenseSubcategory, error) {
	var s core.ExpenseSubcategory
	var active int
	var created, updated string
	err := row.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Description, &active, &s.DisplayOrder, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return s, core.ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("scan subcategory: %w", err)
	}
	s.IsActive = active != 0
	s.CreatedAt = parseDate(created)
	s.UpdatedAt = parseDate(updated)
	return s, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

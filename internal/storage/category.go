package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bilancio/internal/core"
)

const categoryColumns = "id, name, percentage, color, icon, sort_order, is_active, created_at, updated_at"

func scanCategory(row interface{ Scan(...any) error }) (core.BudgetCategory, error) {
	var c core.BudgetCategory
	var active int
	err := row.Scan(&c.ID, &c.Name, &c.Percentage, &c.Color, &c.Icon, &c.SortOrder, &active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return core.BudgetCategory{}, err
	}
	c.IsActive = active != 0
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.BudgetCategory) (core.BudgetCategory, error) {
	now := time.Now().UTC()
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO budget_categories (name, percentage, color, icon, sort_order, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)",
		c.Name, c.Percentage, c.Color, c.Icon, c.SortOrder, now, now)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("insert category: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("category id: %w", err)
	}
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

// ListActiveCategories returns active categories ordered by sort order.
func (r *SQLiteRepository) ListActiveCategories(ctx context.Context) ([]core.BudgetCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM budget_categories WHERE is_active = 1 ORDER BY sort_order ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.BudgetCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory applies a partial update and returns the stored record.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id int64, patch core.CategoryPatch) (core.BudgetCategory, error) {
	var updated core.BudgetCategory

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			"SELECT "+categoryColumns+" FROM budget_categories WHERE id = ?", id)
		c, err := scanCategory(row)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read category: %w", err)
		}

		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Percentage != nil {
			c.Percentage = *patch.Percentage
		}
		if patch.Color != nil {
			c.Color = *patch.Color
		}
		if patch.Icon != nil {
			c.Icon = *patch.Icon
		}
		if patch.SortOrder != nil {
			c.SortOrder = *patch.SortOrder
		}
		if patch.IsActive != nil {
			c.IsActive = *patch.IsActive
		}
		c.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx,
			"UPDATE budget_categories SET name = ?, percentage = ?, color = ?, icon = ?, sort_order = ?, is_active = ?, updated_at = ? WHERE id = ?",
			c.Name, c.Percentage, c.Color, c.Icon, c.SortOrder, c.IsActive, c.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}

		updated = c
		return nil
	})
	if err != nil {
		return core.BudgetCategory{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM budget_categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivePercentageSum returns the percentage sum over active categories,
// excluding the given id (0 excludes nothing). Used by strict budget mode.
func (r *SQLiteRepository) ActivePercentageSum(ctx context.Context, excludeID int64) (float64, error) {
	var sum sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		"SELECT SUM(percentage) FROM budget_categories WHERE is_active = 1 AND id != ?",
		excludeID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum category percentages: %w", err)
	}
	return sum.Float64, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

const incomeColumns = "id, amount_cents, frequency, is_active, start_date, created_at, updated_at"

func scanIncome(row interface{ Scan(...any) error }) (core.Income, error) {
	var in core.Income
	var active int
	err := row.Scan(&in.ID, &in.Amount.Cents, &in.Frequency, &active, &in.StartDate, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return core.Income{}, err
	}
	in.IsActive = active != 0
	return in, nil
}

// ActivateIncome deactivates every currently active income and inserts the
// new one as active, all in one transaction. After it returns, exactly one
// income is active regardless of how many were active before.
func (r *SQLiteRepository) ActivateIncome(ctx context.Context, income core.Income) (core.Income, error) {
	now := time.Now().UTC()
	if income.StartDate.IsZero() {
		income.StartDate = now
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE incomes SET is_active = 0, updated_at = ? WHERE is_active = 1",
			now); err != nil {
			return fmt.Errorf("deactivate previous incomes: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO incomes (amount_cents, frequency, is_active, start_date, created_at, updated_at) VALUES (?, ?, 1, ?, ?, ?)",
			income.Amount.Cents, income.Frequency, income.StartDate, now, now)
		if err != nil {
			return fmt.Errorf("insert income: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("income id: %w", err)
		}
		income.ID = id
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}

	income.IsActive = true
	income.CreatedAt = now
	income.UpdatedAt = now

	slog.InfoContext(ctx, "Income activated",
		"income_id", income.ID,
		"amount_cents", income.Amount.Cents,
		"frequency", income.Frequency)

	return income, nil
}

// GetIncome returns a single income by id.
func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+incomeColumns+" FROM incomes WHERE id = ?", id)
	in, err := scanIncome(row)
	if err == sql.ErrNoRows {
		return core.Income{}, ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return in, nil
}

// ListIncomes returns all incomes, most recent first.
func (r *SQLiteRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+incomeColumns+" FROM incomes ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}

// GetActiveIncome returns the most recently created active income, or nil
// when no income is active.
func (r *SQLiteRepository) GetActiveIncome(ctx context.Context) (*core.Income, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+incomeColumns+" FROM incomes WHERE is_active = 1 ORDER BY created_at DESC, id DESC LIMIT 1")
	in, err := scanIncome(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active income: %w", err)
	}
	return &in, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

const debtColumns = "id, name, principal_cents, balance_cents, interest_rate, repayment_cents, repayment_frequency, start_date, due_date, creditor, description, color, is_paid, is_active, created_at, updated_at"

func scanDebt(row interface{ Scan(...any) error }) (core.Debt, error) {
	var d core.Debt
	var dueDate sql.NullTime
	var paid, active int
	err := row.Scan(&d.ID, &d.Name, &d.PrincipalAmount.Cents, &d.CurrentBalance.Cents, &d.InterestRate,
		&d.RepaymentAmount.Cents, &d.RepaymentFrequency, &d.StartDate, &dueDate, &d.Creditor,
		&d.Description, &d.Color, &paid, &active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return core.Debt{}, err
	}
	if dueDate.Valid {
		t := dueDate.Time
		d.DueDate = &t
	}
	d.IsPaid = paid != 0
	d.IsActive = active != 0
	return d, nil
}

// CreateDebt inserts a debt with its balance initialized to the principal.
func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	now := time.Now().UTC()
	if d.Color == "" {
		d.Color = core.DefaultDebtColor
	}
	if d.StartDate.IsZero() {
		d.StartDate = now
	}
	d.CurrentBalance = d.PrincipalAmount

	var dueDate any
	if d.DueDate != nil {
		dueDate = *d.DueDate
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO debts (name, principal_cents, balance_cents, interest_rate, repayment_cents, repayment_frequency, start_date, due_date, creditor, description, color, is_paid, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 1, ?, ?)",
		d.Name, d.PrincipalAmount.Cents, d.CurrentBalance.Cents, d.InterestRate, d.RepaymentAmount.Cents,
		d.RepaymentFrequency, d.StartDate, dueDate, d.Creditor, d.Description, d.Color, now, now)
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}

	d.ID, err = res.LastInsertId()
	if err != nil {
		return core.Debt{}, fmt.Errorf("debt id: %w", err)
	}
	d.IsPaid = false
	d.IsActive = true
	d.CreatedAt = now
	d.UpdatedAt = now
	return d, nil
}

// ListActiveDebts returns active debts (paid or not), newest first, each
// carrying its five most recent repayments.
func (r *SQLiteRepository) ListActiveDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE is_active = 1 ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range debts {
		repayments, err := r.listRepayments(ctx, debts[i].ID, 5)
		if err != nil {
			return nil, err
		}
		debts[i].Repayments = repayments
	}
	return debts, nil
}

// ListActiveUnpaidDebts returns the debts the dashboard aggregates, ordered
// by due date (debts without one sort last).
func (r *SQLiteRepository) ListActiveUnpaidDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE is_active = 1 AND is_paid = 0 ORDER BY due_date IS NULL, due_date ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list unpaid debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// GetDebt returns a debt with its full repayment history.
func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE id = ?", id)
	d, err := scanDebt(row)
	if err == sql.ErrNoRows {
		return core.Debt{}, ErrNotFound
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}

	d.Repayments, err = r.listRepayments(ctx, id, 0)
	if err != nil {
		return core.Debt{}, err
	}
	return d, nil
}

// UpdateDebt applies a partial update and returns the stored record.
func (r *SQLiteRepository) UpdateDebt(ctx context.Context, id int64, patch core.DebtPatch) (core.Debt, error) {
	var updated core.Debt

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			"SELECT "+debtColumns+" FROM debts WHERE id = ?", id)
		d, err := scanDebt(row)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read debt: %w", err)
		}

		if patch.Name != nil {
			d.Name = *patch.Name
		}
		if patch.PrincipalAmount != nil {
			d.PrincipalAmount = *patch.PrincipalAmount
		}
		if patch.CurrentBalance != nil {
			d.CurrentBalance = *patch.CurrentBalance
		}
		if patch.InterestRate != nil {
			d.InterestRate = *patch.InterestRate
		}
		if patch.RepaymentAmount != nil {
			d.RepaymentAmount = *patch.RepaymentAmount
		}
		if patch.RepaymentFrequency != nil {
			d.RepaymentFrequency = *patch.RepaymentFrequency
		}
		if patch.ClearDueDate {
			d.DueDate = nil
		} else if patch.DueDate != nil {
			t := *patch.DueDate
			d.DueDate = &t
		}
		if patch.Creditor != nil {
			d.Creditor = *patch.Creditor
		}
		if patch.Description != nil {
			d.Description = *patch.Description
		}
		if patch.Color != nil {
			d.Color = *patch.Color
		}
		if patch.IsPaid != nil {
			d.IsPaid = *patch.IsPaid
		}
		if patch.IsActive != nil {
			d.IsActive = *patch.IsActive
		}
		d.UpdatedAt = time.Now().UTC()

		var dueDate any
		if d.DueDate != nil {
			dueDate = *d.DueDate
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE debts SET name = ?, principal_cents = ?, balance_cents = ?, interest_rate = ?, repayment_cents = ?, repayment_frequency = ?, due_date = ?, creditor = ?, description = ?, color = ?, is_paid = ?, is_active = ?, updated_at = ? WHERE id = ?",
			d.Name, d.PrincipalAmount.Cents, d.CurrentBalance.Cents, d.InterestRate, d.RepaymentAmount.Cents,
			d.RepaymentFrequency, dueDate, d.Creditor, d.Description, d.Color, d.IsPaid, d.IsActive, d.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update debt: %w", err)
		}

		updated = d
		return nil
	})
	if err != nil {
		return core.Debt{}, err
	}
	return updated, nil
}

// DeleteDebt removes a debt; its repayments go with it via cascade.
func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete debt result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddRepayment appends a repayment row and decrements the debt's balance in
// one transaction. When the decremented balance reaches zero or below, the
// debt is marked paid and the balance clamped to exactly zero so an
// over-payment never stores a negative balance.
// Returns the created repayment and whether this call paid the debt off.
func (r *SQLiteRepository) AddRepayment(ctx context.Context, debtID int64, rp core.DebtRepayment) (core.DebtRepayment, bool, error) {
	now := time.Now().UTC()
	if rp.Date.IsZero() {
		rp.Date = now
	}
	rp.DebtID = debtID

	var paidOff bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM debts WHERE id = ?", debtID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check debt: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO debt_repayments (debt_id, amount_cents, date, note, created_at) VALUES (?, ?, ?, ?, ?)",
			debtID, rp.Amount.Cents, rp.Date, rp.Note, now)
		if err != nil {
			return fmt.Errorf("insert repayment: %w", err)
		}
		rp.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("repayment id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE debts SET balance_cents = balance_cents - ?, updated_at = ? WHERE id = ?",
			rp.Amount.Cents, now, debtID); err != nil {
			return fmt.Errorf("decrement debt balance: %w", err)
		}

		var balance int64
		var paid int
		err = tx.QueryRowContext(ctx,
			"SELECT balance_cents, is_paid FROM debts WHERE id = ?", debtID).Scan(&balance, &paid)
		if err != nil {
			return fmt.Errorf("re-read debt: %w", err)
		}

		if balance <= 0 {
			if _, err := tx.ExecContext(ctx,
				"UPDATE debts SET is_paid = 1, balance_cents = 0, updated_at = ? WHERE id = ?",
				now, debtID); err != nil {
				return fmt.Errorf("mark debt paid: %w", err)
			}
			paidOff = paid == 0
		}
		return nil
	})
	if err != nil {
		return core.DebtRepayment{}, false, err
	}

	rp.CreatedAt = now
	slog.InfoContext(ctx, "Repayment recorded",
		"debt_id", debtID,
		"repayment_id", rp.ID,
		"amount_cents", rp.Amount.Cents,
		"paid_off", paidOff)
	return rp, paidOff, nil
}

// GetRepayment returns a repayment by id along with its debt's name.
func (r *SQLiteRepository) GetRepayment(ctx context.Context, id int64) (core.DebtRepayment, string, error) {
	var rp core.DebtRepayment
	var debtName string
	err := r.db.QueryRowContext(ctx,
		"SELECT p.id, p.debt_id, p.amount_cents, p.date, p.note, p.created_at, d.name FROM debt_repayments p JOIN debts d ON d.id = p.debt_id WHERE p.id = ?",
		id).Scan(&rp.ID, &rp.DebtID, &rp.Amount.Cents, &rp.Date, &rp.Note, &rp.CreatedAt, &debtName)
	if err == sql.ErrNoRows {
		return core.DebtRepayment{}, "", ErrNotFound
	}
	if err != nil {
		return core.DebtRepayment{}, "", fmt.Errorf("get repayment: %w", err)
	}
	return rp, debtName, nil
}

// listRepayments returns repayments for a debt, newest first.
// A limit of 0 means no limit.
func (r *SQLiteRepository) listRepayments(ctx context.Context, debtID int64, limit int) ([]core.DebtRepayment, error) {
	query := "SELECT id, debt_id, amount_cents, date, note, created_at FROM debt_repayments WHERE debt_id = ? ORDER BY date DESC, id DESC"
	args := []any{debtID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list repayments: %w", err)
	}
	defer rows.Close()

	var repayments []core.DebtRepayment
	for rows.Next() {
		var rp core.DebtRepayment
		if err := rows.Scan(&rp.ID, &rp.DebtID, &rp.Amount.Cents, &rp.Date, &rp.Note, &rp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan repayment: %w", err)
		}
		repayments = append(repayments, rp)
	}
	return repayments, rows.Err()
}

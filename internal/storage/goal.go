package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

const goalColumns = "id, name, target_amount_cents, current_amount_cents, description, target_date, color, icon, sort_order, is_completed, is_active, created_at, updated_at"

func scanGoal(row interface{ Scan(...any) error }) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	var targetDate sql.NullTime
	var completed, active int
	err := row.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &g.Description,
		&targetDate, &g.Color, &g.Icon, &g.SortOrder, &completed, &active, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	if targetDate.Valid {
		t := targetDate.Time
		g.TargetDate = &t
	}
	g.IsCompleted = completed != 0
	g.IsActive = active != 0
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	now := time.Now().UTC()
	if g.Color == "" {
		g.Color = core.DefaultGoalColor
	}

	var targetDate any
	if g.TargetDate != nil {
		targetDate = *g.TargetDate
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO savings_goals (name, target_amount_cents, current_amount_cents, description, target_date, color, icon, sort_order, is_completed, is_active, created_at, updated_at) VALUES (?, ?, 0, ?, ?, ?, ?, ?, 0, 1, ?, ?)",
		g.Name, g.TargetAmount.Cents, g.Description, targetDate, g.Color, g.Icon, g.SortOrder, now, now)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
	}

	g.ID, err = res.LastInsertId()
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("goal id: %w", err)
	}
	g.CurrentAmount = core.Money{}
	g.IsCompleted = false
	g.IsActive = true
	g.CreatedAt = now
	g.UpdatedAt = now
	return g, nil
}

// ListActiveGoals returns active goals ordered by sort order, each carrying
// its five most recent contributions.
func (r *SQLiteRepository) ListActiveGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM savings_goals WHERE is_active = 1 ORDER BY sort_order ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range goals {
		contributions, err := r.listContributions(ctx, goals[i].ID, 5)
		if err != nil {
			return nil, err
		}
		goals[i].Contributions = contributions
	}
	return goals, nil
}

// GetGoal returns a goal with its full contribution history.
func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM savings_goals WHERE id = ?", id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return core.SavingsGoal{}, ErrNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", err)
	}

	g.Contributions, err = r.listContributions(ctx, id, 0)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// UpdateGoal applies a partial update and returns the stored record.
// Editing targetAmount below currentAmount does NOT flip isCompleted:
// completion only changes at the moment a contribution crosses the target.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, id int64, patch core.GoalPatch) (core.SavingsGoal, error) {
	var updated core.SavingsGoal

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			"SELECT "+goalColumns+" FROM savings_goals WHERE id = ?", id)
		g, err := scanGoal(row)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read goal: %w", err)
		}

		if patch.Name != nil {
			g.Name = *patch.Name
		}
		if patch.TargetAmount != nil {
			g.TargetAmount = *patch.TargetAmount
		}
		if patch.CurrentAmount != nil {
			g.CurrentAmount = *patch.CurrentAmount
		}
		if patch.Description != nil {
			g.Description = *patch.Description
		}
		if patch.ClearTargetDate {
			g.TargetDate = nil
		} else if patch.TargetDate != nil {
			t := *patch.TargetDate
			g.TargetDate = &t
		}
		if patch.Color != nil {
			g.Color = *patch.Color
		}
		if patch.Icon != nil {
			g.Icon = *patch.Icon
		}
		if patch.SortOrder != nil {
			g.SortOrder = *patch.SortOrder
		}
		if patch.IsCompleted != nil {
			g.IsCompleted = *patch.IsCompleted
		}
		if patch.IsActive != nil {
			g.IsActive = *patch.IsActive
		}
		g.UpdatedAt = time.Now().UTC()

		var targetDate any
		if g.TargetDate != nil {
			targetDate = *g.TargetDate
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE savings_goals SET name = ?, target_amount_cents = ?, current_amount_cents = ?, description = ?, target_date = ?, color = ?, icon = ?, sort_order = ?, is_completed = ?, is_active = ?, updated_at = ? WHERE id = ?",
			g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Description, targetDate,
			g.Color, g.Icon, g.SortOrder, g.IsCompleted, g.IsActive, g.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}

		updated = g
		return nil
	})
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return updated, nil
}

// DeleteGoal removes a goal; its contributions go with it via cascade.
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM savings_goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddContribution appends a contribution row and increments the goal's
// current amount in one transaction. The completion check re-reads the
// persisted amount after the increment, so the flag reflects stored state.
// Returns the created contribution and whether this call completed the goal.
func (r *SQLiteRepository) AddContribution(ctx context.Context, goalID int64, c core.SavingsContribution) (core.SavingsContribution, bool, error) {
	now := time.Now().UTC()
	if c.Date.IsZero() {
		c.Date = now
	}
	c.GoalID = goalID

	var justCompleted bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM savings_goals WHERE id = ?", goalID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check goal: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO savings_contributions (goal_id, amount_cents, date, note, created_at) VALUES (?, ?, ?, ?, ?)",
			goalID, c.Amount.Cents, c.Date, c.Note, now)
		if err != nil {
			return fmt.Errorf("insert contribution: %w", err)
		}
		c.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("contribution id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE savings_goals SET current_amount_cents = current_amount_cents + ?, updated_at = ? WHERE id = ?",
			c.Amount.Cents, now, goalID); err != nil {
			return fmt.Errorf("increment goal amount: %w", err)
		}

		var current, target int64
		var completed int
		err = tx.QueryRowContext(ctx,
			"SELECT current_amount_cents, target_amount_cents, is_completed FROM savings_goals WHERE id = ?",
			goalID).Scan(&current, &target, &completed)
		if err != nil {
			return fmt.Errorf("re-read goal: %w", err)
		}

		if current >= target && completed == 0 {
			if _, err := tx.ExecContext(ctx,
				"UPDATE savings_goals SET is_completed = 1, updated_at = ? WHERE id = ?",
				now, goalID); err != nil {
				return fmt.Errorf("mark goal completed: %w", err)
			}
			justCompleted = true
		}
		return nil
	})
	if err != nil {
		return core.SavingsContribution{}, false, err
	}

	c.CreatedAt = now
	slog.InfoContext(ctx, "Contribution recorded",
		"goal_id", goalID,
		"contribution_id", c.ID,
		"amount_cents", c.Amount.Cents,
		"completed_goal", justCompleted)
	return c, justCompleted, nil
}

// listContributions returns contributions for a goal, newest first.
// A limit of 0 means no limit.
func (r *SQLiteRepository) listContributions(ctx context.Context, goalID int64, limit int) ([]core.SavingsContribution, error) {
	query := "SELECT id, goal_id, amount_cents, date, note, created_at FROM savings_contributions WHERE goal_id = ? ORDER BY date DESC, id DESC"
	args := []any{goalID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []core.SavingsContribution
	for rows.Next() {
		var c core.SavingsContribution
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Amount.Cents, &c.Date, &c.Note, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

// GetContribution returns a contribution by id along with its goal's name.
func (r *SQLiteRepository) GetContribution(ctx context.Context, id int64) (core.SavingsContribution, string, error) {
	var c core.SavingsContribution
	var goalName string
	err := r.db.QueryRowContext(ctx,
		"SELECT c.id, c.goal_id, c.amount_cents, c.date, c.note, c.created_at, g.name FROM savings_contributions c JOIN savings_goals g ON g.id = c.goal_id WHERE c.id = ?",
		id).Scan(&c.ID, &c.GoalID, &c.Amount.Cents, &c.Date, &c.Note, &c.CreatedAt, &goalName)
	if err == sql.ErrNoRows {
		return core.SavingsContribution{}, "", ErrNotFound
	}
	if err != nil {
		return core.SavingsContribution{}, "", fmt.Errorf("get contribution: %w", err)
	}
	return c, goalName, nil
}

// CountContributions reports how many contribution rows reference a goal id,
// including rows whose goal no longer exists.
func (r *SQLiteRepository) CountContributions(ctx context.Context, goalID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM savings_contributions WHERE goal_id = ?", goalID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contributions: %w", err)
	}
	return n, nil
}

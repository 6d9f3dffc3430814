package worker

import (
	"context"
	"path/filepath"
	"testing"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/sheets/memory"
	"bilancio/internal/storage"
)

func newTestWorker(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	store := memory.New()
	return NewExportWorker(repo, store), repo, store
}

func TestHandleLedgerEventExportsContribution(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()

	goal, err := repo.CreateGoal(ctx, core.SavingsGoal{
		Name:         "Trip",
		TargetAmount: core.Money{Cents: 100000},
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	c, _, err := repo.AddContribution(ctx, goal.ID, core.SavingsContribution{
		Amount: core.Money{Cents: 2500},
		Note:   "march",
	})
	if err != nil {
		t.Fatalf("add contribution: %v", err)
	}

	msg := amqp.NewLedgerEventMessage(amqp.EventContributionAdded, c.ID, c.Amount.Cents)
	if err := w.HandleLedgerEvent(ctx, msg); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	rows := store.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Kind != amqp.EventContributionAdded {
		t.Errorf("kind = %q, want %q", rows[0].Kind, amqp.EventContributionAdded)
	}
	if rows[0].Name != "Trip" {
		t.Errorf("name = %q, want the goal name", rows[0].Name)
	}
	if rows[0].Amount.Cents != 2500 {
		t.Errorf("amount = %d, want 2500", rows[0].Amount.Cents)
	}
	if rows[0].Detail != "march" {
		t.Errorf("detail = %q, want the note", rows[0].Detail)
	}
}

func TestHandleLedgerEventExportsIncomeAndDebt(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()

	in, err := repo.ActivateIncome(ctx, core.Income{
		Amount:    core.Money{Cents: 360000},
		Frequency: core.Monthly,
	})
	if err != nil {
		t.Fatalf("activate income: %v", err)
	}
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEventMessage(amqp.EventIncomeActivated, in.ID, in.Amount.Cents)); err != nil {
		t.Fatalf("handle income event: %v", err)
	}

	debt, err := repo.CreateDebt(ctx, core.Debt{
		Name:               "Loan",
		PrincipalAmount:    core.Money{Cents: 50000},
		RepaymentAmount:    core.Money{Cents: 50000},
		RepaymentFrequency: core.Monthly,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}
	if _, _, err := repo.AddRepayment(ctx, debt.ID, core.DebtRepayment{Amount: core.Money{Cents: 50000}}); err != nil {
		t.Fatalf("add repayment: %v", err)
	}
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEventMessage(amqp.EventDebtPaid, debt.ID, 50000)); err != nil {
		t.Fatalf("handle debt paid event: %v", err)
	}

	rows := store.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Detail != "monthly" {
		t.Errorf("income detail = %q, want the frequency", rows[0].Detail)
	}
	if rows[1].Name != "Loan" || rows[1].Detail != "paid off" {
		t.Errorf("unexpected debt row: %+v", rows[1])
	}
}

func TestHandleLedgerEventDropsMissingAndUnknown(t *testing.T) {
	w, _, store := newTestWorker(t)
	ctx := context.Background()

	// Record deleted between publish and consume
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEventMessage(amqp.EventGoalCompleted, 9999, 0)); err != nil {
		t.Fatalf("missing record should be dropped, got %v", err)
	}

	// Kind from a newer publisher
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEventMessage("budget_rebalanced", 1, 0)); err != nil {
		t.Fatalf("unknown kind should be dropped, got %v", err)
	}

	if n := len(store.Rows()); n != 0 {
		t.Fatalf("got %d exported rows, want 0", n)
	}
}

package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// newTestService wires a service onto a real temp database with no AMQP
// client; publishing is skipped in that configuration.
func newTestService(t *testing.T, strict bool) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewLedgerService(repo, nil, strict)
}

func TestActivateIncomeValidation(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	tests := []struct {
		name    string
		income  core.Income
		wantErr error
	}{
		{"zero amount", core.Income{Frequency: core.Monthly}, core.ErrInvalidAmount},
		{"negative amount", core.Income{Amount: core.Money{Cents: -100}, Frequency: core.Weekly}, core.ErrInvalidAmount},
		{"bad frequency", core.Income{Amount: core.Money{Cents: 100}, Frequency: "yearly"}, core.ErrInvalidFrequency},
		{"valid", core.Income{Amount: core.Money{Cents: 360000}, Frequency: core.Monthly}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ActivateIncome(ctx, tt.income)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ActivateIncome() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStrictBudgetRejectsOverAllocation(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.BudgetCategory{Name: "Rent", Percentage: 60}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	cat, err := svc.CreateCategory(ctx, core.BudgetCategory{Name: "Food", Percentage: 30})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	// 60 + 30 + 20 > 100
	_, err = svc.CreateCategory(ctx, core.BudgetCategory{Name: "Fun", Percentage: 20})
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}

	// Raising Food from 30 to 45 would hit 105; the category's own current
	// percentage must not count against it.
	over := 45.0
	_, err = svc.UpdateCategory(ctx, cat.ID, core.CategoryPatch{Percentage: &over})
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded on update, got %v", err)
	}

	ok := 40.0
	if _, err := svc.UpdateCategory(ctx, cat.ID, core.CategoryPatch{Percentage: &ok}); err != nil {
		t.Fatalf("update within budget should succeed: %v", err)
	}
}

func TestAdvisoryBudgetAllowsOverAllocation(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, core.BudgetCategory{Name: "Rent", Percentage: 80}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, core.BudgetCategory{Name: "Food", Percentage: 40}); err != nil {
		t.Fatalf("over-allocation should be accepted outside strict mode: %v", err)
	}

	dash, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !dash.OverBudget {
		t.Fatalf("dashboard should flag the 120%% allocation as over budget")
	}
}

func TestDashboardAssembly(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	if _, err := svc.ActivateIncome(ctx, core.Income{
		Amount:    core.Money{Cents: 360000}, // 3600.00 monthly
		Frequency: core.Monthly,
	}); err != nil {
		t.Fatalf("activate income: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, core.BudgetCategory{Name: "Groceries", Percentage: 25}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	goal, err := svc.CreateGoal(ctx, core.SavingsGoal{Name: "Trip", TargetAmount: core.Money{Cents: 100000}})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if _, err := svc.AddContribution(ctx, goal.ID, core.SavingsContribution{Amount: core.Money{Cents: 25000}}); err != nil {
		t.Fatalf("add contribution: %v", err)
	}

	debt, err := svc.CreateDebt(ctx, core.Debt{
		Name:               "Loan",
		PrincipalAmount:    core.Money{Cents: 700000},
		RepaymentAmount:    core.Money{Cents: 50000},
		RepaymentFrequency: core.Monthly,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}
	if _, err := svc.AddRepayment(ctx, debt.ID, core.DebtRepayment{Amount: core.Money{Cents: 700000}}); err != nil {
		t.Fatalf("add repayment: %v", err)
	}

	dash, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if dash.Income == nil {
		t.Fatalf("dashboard should carry the active income")
	}
	if dash.DailyIncome.Cents != 12000 {
		t.Errorf("dailyIncome = %d cents, want 12000", dash.DailyIncome.Cents)
	}
	if len(dash.Categories) != 1 || dash.Categories[0].Amount.Cents != 3000 {
		t.Errorf("category allocation = %+v, want one entry of 3000 cents", dash.Categories)
	}
	if dash.TotalSavings.Cents != 25000 {
		t.Errorf("totalSavings = %d, want 25000", dash.TotalSavings.Cents)
	}
	if dash.SavingsProgress != 25 {
		t.Errorf("savingsProgress = %v, want 25", dash.SavingsProgress)
	}

	// The paid-off debt must not appear in the dashboard aggregate.
	if len(dash.Debts) != 0 {
		t.Errorf("got %d debts, want 0 (paid debts excluded)", len(dash.Debts))
	}
	if dash.TotalDebt.Cents != 0 {
		t.Errorf("totalDebt = %d, want 0", dash.TotalDebt.Cents)
	}
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &LedgerService{}

		err := service.Close()

		if err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}

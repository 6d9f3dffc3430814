package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// ErrBudgetExceeded is returned in strict budget mode when a category change
// would push the active percentage sum above 100.
var ErrBudgetExceeded = errors.New("active budget percentages exceed 100")

// LedgerService orchestrates ledger operations across SQLite and AMQP.
// Every mutation is persisted first; event publishing is best effort and
// never fails the request. A nil AMQP client disables publishing entirely.
type LedgerService struct {
	storage      *storage.SQLiteRepository
	amqpClient   *amqp.Client
	strictBudget bool
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, strictBudget bool) *LedgerService {
	return &LedgerService{
		storage:      storage,
		amqpClient:   amqpClient,
		strictBudget: strictBudget,
	}
}

// ActivateIncome records a new income and makes it the single active one.
func (s *LedgerService) ActivateIncome(ctx context.Context, income core.Income) (core.Income, error) {
	if err := income.Validate(); err != nil {
		return core.Income{}, err
	}

	saved, err := s.storage.ActivateIncome(ctx, income)
	if err != nil {
		return core.Income{}, fmt.Errorf("activate income: %w", err)
	}

	s.publishEvent(ctx, amqp.EventIncomeActivated, saved.ID, saved.Amount.Cents)
	return saved, nil
}

func (s *LedgerService) ListIncomes(ctx context.Context) ([]core.Income, error) {
	return s.storage.ListIncomes(ctx)
}

func (s *LedgerService) ActiveIncome(ctx context.Context) (*core.Income, error) {
	return s.storage.GetActiveIncome(ctx)
}

// CreateCategory validates and stores a budget category. In strict budget
// mode the category is rejected when it would push the active percentage sum
// above 100.
func (s *LedgerService) CreateCategory(ctx context.Context, c core.BudgetCategory) (core.BudgetCategory, error) {
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	if err := s.checkBudget(ctx, 0, c.Percentage); err != nil {
		return core.BudgetCategory{}, err
	}
	return s.storage.CreateCategory(ctx, c)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.BudgetCategory, error) {
	return s.storage.ListActiveCategories(ctx)
}

func (s *LedgerService) UpdateCategory(ctx context.Context, id int64, patch core.CategoryPatch) (core.BudgetCategory, error) {
	if patch.Percentage != nil {
		if *patch.Percentage < 0 || *patch.Percentage > 100 {
			return core.BudgetCategory{}, core.ErrInvalidPercentage
		}
		if err := s.checkBudget(ctx, id, *patch.Percentage); err != nil {
			return core.BudgetCategory{}, err
		}
	}
	if patch.Name != nil && *patch.Name == "" {
		return core.BudgetCategory{}, core.ErrEmptyName
	}
	return s.storage.UpdateCategory(ctx, id, patch)
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	return s.storage.DeleteCategory(ctx, id)
}

// checkBudget enforces the percentage ceiling in strict mode. Outside strict
// mode the sum is advisory and surfaced on the dashboard instead.
func (s *LedgerService) checkBudget(ctx context.Context, excludeID int64, percentage float64) error {
	if !s.strictBudget {
		return nil
	}
	sum, err := s.storage.ActivePercentageSum(ctx, excludeID)
	if err != nil {
		return fmt.Errorf("check budget: %w", err)
	}
	if sum+percentage > 100 {
		return ErrBudgetExceeded
	}
	return nil
}

func (s *LedgerService) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.storage.CreateGoal(ctx, g)
}

func (s *LedgerService) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	return s.storage.ListActiveGoals(ctx)
}

func (s *LedgerService) GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error) {
	return s.storage.GetGoal(ctx, id)
}

func (s *LedgerService) UpdateGoal(ctx context.Context, id int64, patch core.GoalPatch) (core.SavingsGoal, error) {
	if patch.Name != nil && *patch.Name == "" {
		return core.SavingsGoal{}, core.ErrEmptyName
	}
	if patch.TargetAmount != nil && !patch.TargetAmount.IsPositive() {
		return core.SavingsGoal{}, core.ErrInvalidAmount
	}
	return s.storage.UpdateGoal(ctx, id, patch)
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id int64) error {
	return s.storage.DeleteGoal(ctx, id)
}

// AddContribution appends a contribution and publishes the resulting events.
// Completing a goal emits a second event on top of the contribution itself.
func (s *LedgerService) AddContribution(ctx context.Context, goalID int64, c core.SavingsContribution) (core.SavingsContribution, error) {
	if err := c.Validate(); err != nil {
		return core.SavingsContribution{}, err
	}

	saved, completed, err := s.storage.AddContribution(ctx, goalID, c)
	if err != nil {
		return core.SavingsContribution{}, err
	}

	s.publishEvent(ctx, amqp.EventContributionAdded, saved.ID, saved.Amount.Cents)
	if completed {
		s.publishEvent(ctx, amqp.EventGoalCompleted, goalID, saved.Amount.Cents)
	}
	return saved, nil
}

func (s *LedgerService) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	return s.storage.CreateDebt(ctx, d)
}

func (s *LedgerService) ListDebts(ctx context.Context) ([]core.Debt, error) {
	return s.storage.ListActiveDebts(ctx)
}

func (s *LedgerService) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	return s.storage.GetDebt(ctx, id)
}

func (s *LedgerService) UpdateDebt(ctx context.Context, id int64, patch core.DebtPatch) (core.Debt, error) {
	if patch.Name != nil && *patch.Name == "" {
		return core.Debt{}, core.ErrEmptyName
	}
	if patch.RepaymentFrequency != nil {
		if err := patch.RepaymentFrequency.Validate(); err != nil {
			return core.Debt{}, err
		}
	}
	return s.storage.UpdateDebt(ctx, id, patch)
}

func (s *LedgerService) DeleteDebt(ctx context.Context, id int64) error {
	return s.storage.DeleteDebt(ctx, id)
}

// AddRepayment appends a repayment and publishes the resulting events.
// Paying a debt off emits a second event on top of the repayment itself.
func (s *LedgerService) AddRepayment(ctx context.Context, debtID int64, rp core.DebtRepayment) (core.DebtRepayment, error) {
	if err := rp.Validate(); err != nil {
		return core.DebtRepayment{}, err
	}

	saved, paidOff, err := s.storage.AddRepayment(ctx, debtID, rp)
	if err != nil {
		return core.DebtRepayment{}, err
	}

	s.publishEvent(ctx, amqp.EventRepaymentAdded, saved.ID, saved.Amount.Cents)
	if paidOff {
		s.publishEvent(ctx, amqp.EventDebtPaid, debtID, saved.Amount.Cents)
	}
	return saved, nil
}

// Dashboard assembles the ledger summary. The four reads are independent, so
// they run concurrently; the summary itself is computed in memory.
func (s *LedgerService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	var (
		income     *core.Income
		categories []core.BudgetCategory
		goals      []core.SavingsGoal
		debts      []core.Debt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.storage.GetActiveIncome(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.storage.ListActiveCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.storage.ListActiveGoals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		debts, err = s.storage.ListActiveUnpaidDebts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, fmt.Errorf("load dashboard data: %w", err)
	}

	return core.BuildDashboard(income, categories, goals, debts), nil
}

// publishEvent sends a ledger event without failing the request. The record
// is already persisted; the export stream is best-effort, so a failed
// publish is logged and the event is lost.
func (s *LedgerService) publishEvent(ctx context.Context, kind string, entityID, amountCents int64) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", "kind", kind)
		return
	}

	msg := amqp.NewLedgerEventMessage(kind, entityID, amountCents)
	if err := s.amqpClient.PublishLedgerEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			"entity_id", entityID,
			"error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}

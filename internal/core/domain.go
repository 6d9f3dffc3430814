package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Default colors assigned when a record arrives without one.
const (
	DefaultCategoryColor = "#3b82f6"
	DefaultGoalColor     = "#10b981"
	DefaultDebtColor     = "#ef4444"
)

type (
	// Frequency is how often an income or repayment recurs.
	Frequency string

	// Income is a recorded income stream. At most one income is active at a
	// time; activating a new one supersedes the previous active record.
	Income struct {
		ID        int64     `json:"id"`
		Amount    Money     `json:"amount"`
		Frequency Frequency `json:"frequency"`
		IsActive  bool      `json:"isActive"`
		StartDate time.Time `json:"startDate"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// BudgetCategory allocates a percentage of the daily income. Percentages
	// are independent per category; their sum across active categories is
	// advisory unless strict budget mode is enabled.
	BudgetCategory struct {
		ID         int64     `json:"id"`
		Name       string    `json:"name"`
		Percentage float64   `json:"percentage"`
		Color      string    `json:"color"`
		Icon       string    `json:"icon,omitempty"`
		SortOrder  int       `json:"order"`
		IsActive   bool      `json:"isActive"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	// SavingsGoal accumulates contributions toward a target amount.
	// IsCompleted flips the first time a contribution pushes CurrentAmount
	// past TargetAmount and is never recomputed retroactively.
	SavingsGoal struct {
		ID            int64                 `json:"id"`
		Name          string                `json:"name"`
		TargetAmount  Money                 `json:"targetAmount"`
		CurrentAmount Money                 `json:"currentAmount"`
		Description   string                `json:"description,omitempty"`
		TargetDate    *time.Time            `json:"targetDate,omitempty"`
		Color         string                `json:"color"`
		Icon          string                `json:"icon,omitempty"`
		SortOrder     int                   `json:"order"`
		IsCompleted   bool                  `json:"isCompleted"`
		IsActive      bool                  `json:"isActive"`
		Contributions []SavingsContribution `json:"contributions,omitempty"`
		CreatedAt     time.Time             `json:"createdAt"`
		UpdatedAt     time.Time             `json:"updatedAt"`
	}

	// SavingsContribution is an append-only ledger row; it is never edited
	// after creation.
	SavingsContribution struct {
		ID        int64     `json:"id"`
		GoalID    int64     `json:"goalId"`
		Amount    Money     `json:"amount"`
		Date      time.Time `json:"date"`
		Note      string    `json:"note,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Debt tracks a balance reduced by repayments. InterestRate is recorded
	// for display only; no computation applies it.
	Debt struct {
		ID                 int64           `json:"id"`
		Name               string          `json:"name"`
		PrincipalAmount    Money           `json:"principalAmount"`
		CurrentBalance     Money           `json:"currentBalance"`
		InterestRate       float64         `json:"interestRate"`
		RepaymentAmount    Money           `json:"repaymentAmount"`
		RepaymentFrequency Frequency       `json:"repaymentFrequency"`
		StartDate          time.Time       `json:"startDate"`
		DueDate            *time.Time      `json:"dueDate,omitempty"`
		Creditor           string          `json:"creditor,omitempty"`
		Description        string          `json:"description,omitempty"`
		Color              string          `json:"color"`
		IsPaid             bool            `json:"isPaid"`
		IsActive           bool            `json:"isActive"`
		Repayments         []DebtRepayment `json:"repayments,omitempty"`
		CreatedAt          time.Time       `json:"createdAt"`
		UpdatedAt          time.Time       `json:"updatedAt"`
	}

	// DebtRepayment is an append-only ledger row; it is never edited after
	// creation.
	DebtRepayment struct {
		ID        int64     `json:"id"`
		DebtID    int64     `json:"debtId"`
		Amount    Money     `json:"amount"`
		Date      time.Time `json:"date"`
		Note      string    `json:"note,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrEmptyName         = errors.New("empty name")
)

// ParseFrequency normalizes and validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", ErrInvalidFrequency
}

// Validate reports whether the frequency is one of the enumerated values.
func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly:
		return nil
	}
	return ErrInvalidFrequency
}

// DailyAmount converts an amount at the given frequency to its daily
// equivalent. Monthly uses a fixed 30-day month, not calendar length.
func DailyAmount(amount Money, f Frequency) Money {
	switch f {
	case Weekly:
		return amount.Div(7)
	case Monthly:
		return amount.Div(30)
	default:
		return amount
	}
}

func (i Income) Validate() error {
	if !i.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return i.Frequency.Validate()
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Percentage < 0 || c.Percentage > 100 {
		return ErrInvalidPercentage
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (c SavingsContribution) Validate() error {
	if !c.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if !d.PrincipalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.RepaymentAmount.IsPositive() {
		return ErrInvalidAmount
	}
	return d.RepaymentFrequency.Validate()
}

func (r DebtRepayment) Validate() error {
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

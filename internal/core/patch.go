package core

import "time"

// Patch types carry partial updates as one optional field per attribute.
// A nil field leaves the stored value unchanged. This replaces dynamic
// payload merging with a shape that can be validated before persistence.
// Nullable date columns get an extra Clear flag: the pointer alone cannot
// say "set to null", and the flag wins over the pointer when both are set.
type (
	CategoryPatch struct {
		Name       *string
		Percentage *float64
		Color      *string
		Icon       *string
		SortOrder  *int
		IsActive   *bool
	}

	GoalPatch struct {
		Name            *string
		TargetAmount    *Money
		CurrentAmount   *Money
		Description     *string
		TargetDate      *time.Time
		ClearTargetDate bool
		Color           *string
		Icon            *string
		SortOrder       *int
		IsCompleted     *bool
		IsActive        *bool
	}

	DebtPatch struct {
		Name               *string
		PrincipalAmount    *Money
		CurrentBalance     *Money
		InterestRate       *float64
		RepaymentAmount    *Money
		RepaymentFrequency *Frequency
		DueDate            *time.Time
		ClearDueDate       bool
		Creditor           *string
		Description        *string
		Color              *string
		IsPaid             *bool
		IsActive           *bool
	}
)

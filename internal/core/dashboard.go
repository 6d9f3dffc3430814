package core

// CategoryAllocation is a budget category with its daily allocation resolved
// against the active income.
type CategoryAllocation struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Amount     Money   `json:"amount"`
	Color      string  `json:"color"`
}

// Dashboard is the read-time summary of the whole ledger. It is recomputed
// from current record state on every request and never persisted.
type Dashboard struct {
	Income                *Income              `json:"income"`
	DailyIncome           Money                `json:"dailyIncome"`
	Categories            []CategoryAllocation `json:"categories"`
	TotalBudgetPercentage float64              `json:"totalBudgetPercentage"`
	OverBudget            bool                 `json:"overBudget"`
	SavingsGoals          []SavingsGoal        `json:"savingsGoals"`
	TotalSavings          Money                `json:"totalSavings"`
	TotalSavingsTarget    Money                `json:"totalSavingsTarget"`
	SavingsProgress       float64              `json:"savingsProgress"`
	Debts                 []Debt               `json:"debts"`
	TotalDebt             Money                `json:"totalDebt"`
	CompletedGoals        int                  `json:"completedGoals"`
	ActiveGoals           int                  `json:"activeGoals"`
	ActiveDebts           int                  `json:"activeDebts"`
}

// BuildDashboard computes the summary from current record state.
//
// income may be nil when no income is active; allocations then resolve to
// zero. Percentage totals are not clamped: a sum above 100 is surfaced via
// OverBudget instead of being rejected. SavingsProgress is 0 when the target
// sum is 0 and may exceed 100 when goals are overfunded.
func BuildDashboard(income *Income, categories []BudgetCategory, goals []SavingsGoal, debts []Debt) Dashboard {
	d := Dashboard{
		Income:       income,
		Categories:   make([]CategoryAllocation, 0, len(categories)),
		SavingsGoals: goals,
		Debts:        debts,
		ActiveDebts:  len(debts),
	}

	if income != nil {
		d.DailyIncome = DailyAmount(income.Amount, income.Frequency)
	}

	for _, c := range categories {
		d.Categories = append(d.Categories, CategoryAllocation{
			Name:       c.Name,
			Percentage: c.Percentage,
			Amount:     d.DailyIncome.Percent(c.Percentage),
			Color:      c.Color,
		})
		d.TotalBudgetPercentage += c.Percentage
	}
	d.OverBudget = d.TotalBudgetPercentage > 100

	for _, g := range goals {
		d.TotalSavings = d.TotalSavings.Add(g.CurrentAmount)
		d.TotalSavingsTarget = d.TotalSavingsTarget.Add(g.TargetAmount)
		if g.IsCompleted {
			d.CompletedGoals++
		} else {
			d.ActiveGoals++
		}
	}
	if d.TotalSavingsTarget.Cents > 0 {
		d.SavingsProgress = float64(d.TotalSavings.Cents) / float64(d.TotalSavingsTarget.Cents) * 100
	}

	for _, debt := range debts {
		d.TotalDebt = d.TotalDebt.Add(debt.CurrentBalance)
	}

	return d
}

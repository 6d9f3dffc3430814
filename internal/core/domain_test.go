package core

import "testing"

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want Frequency
		ok   bool
	}{
		{"daily", Daily, true},
		{"weekly", Weekly, true},
		{"monthly", Monthly, true},
		{" Monthly ", Monthly, true},
		{"yearly", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		got, err := ParseFrequency(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q) expected ok, got %v", i, tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q) expected error", i, tc.in)
		}
		if got != tc.want {
			t.Fatalf("case %d (%q) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

func TestDailyAmount(t *testing.T) {
	cases := []struct {
		cents int64
		freq  Frequency
		want  int64
	}{
		{12000, Daily, 12000},
		{70000, Weekly, 10000},
		{360000, Monthly, 12000}, // fixed 30-day month, not calendar length
	}
	for i, tc := range cases {
		got := DailyAmount(Money{Cents: tc.cents}, tc.freq)
		if got.Cents != tc.want {
			t.Fatalf("case %d: DailyAmount(%d, %s) = %d, want %d", i, tc.cents, tc.freq, got.Cents, tc.want)
		}
	}
}

func TestIncomeValidate(t *testing.T) {
	good := Income{Amount: Money{Cents: 100}, Frequency: Monthly}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Income{
		{Amount: Money{Cents: 0}, Frequency: Daily},
		{Amount: Money{Cents: 100}, Frequency: "yearly"},
	}
	for i, in := range bads {
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetCategoryValidate(t *testing.T) {
	good := BudgetCategory{Name: "Groceries", Percentage: 25}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []BudgetCategory{
		{Name: "", Percentage: 25},
		{Name: "  ", Percentage: 25},
		{Name: "Rent", Percentage: -1},
		{Name: "Rent", Percentage: 101},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDebtValidate(t *testing.T) {
	good := Debt{
		Name:               "Car loan",
		PrincipalAmount:    Money{Cents: 700000},
		RepaymentAmount:    Money{Cents: 50000},
		RepaymentFrequency: Monthly,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Debt{
		{Name: "", PrincipalAmount: Money{Cents: 1}, RepaymentAmount: Money{Cents: 1}, RepaymentFrequency: Monthly},
		{Name: "a", PrincipalAmount: Money{Cents: 0}, RepaymentAmount: Money{Cents: 1}, RepaymentFrequency: Monthly},
		{Name: "a", PrincipalAmount: Money{Cents: 1}, RepaymentAmount: Money{Cents: 0}, RepaymentFrequency: Monthly},
		{Name: "a", PrincipalAmount: Money{Cents: 1}, RepaymentAmount: Money{Cents: 1}, RepaymentFrequency: "never"},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

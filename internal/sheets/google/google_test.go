package google

import "testing"

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2026, "2026 Ledger"},
		{"  Ledger  ", 2026, "2026 Ledger"},
		{"2025 Ledger", 2026, "2025 Ledger"}, // already prefixed, keep as is
		{"", 2026, ""},
		{"1850 Ledger", 2026, "2026 1850 Ledger"}, // implausible year, treat as plain name
	}

	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

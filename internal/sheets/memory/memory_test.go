package memory

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

func TestMemoryStoreAppendAndRows(t *testing.T) {
	s := New()

	ref, err := s.Append(context.Background(), sheets.LedgerRow{
		Date:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Kind:   "contribution_added",
		Name:   "Trip",
		Amount: core.Money{Cents: 12300},
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Name != "Trip" || rows[0].Amount.Cents != 12300 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

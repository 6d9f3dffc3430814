package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// ExportWorker mirrors ledger events into a Google Sheets ledger. Events
// carry only ids; the worker reads the full record from SQLite so the
// exported row reflects stored state, not whatever the publisher saw.
type ExportWorker struct {
	storage *storage.SQLiteRepository
	sheets  sheets.LedgerWriter
}

func NewExportWorker(storage *storage.SQLiteRepository, sheets sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		sheets:  sheets,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
// A missing record is dropped instead of requeued: the row was deleted
// between publish and consume and will never reappear.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	row, err := w.buildRow(ctx, msg)
	if errors.Is(err, errUnknownKind) {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Ledger event references a missing record, dropping",
			"kind", msg.Kind,
			"entity_id", msg.EntityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("build ledger row: %w", err)
	}

	ref, err := w.sheets.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger event",
		"kind", msg.Kind,
		"entity_id", msg.EntityID,
		"sheets_ref", ref)
	return nil
}

func (w *ExportWorker) buildRow(ctx context.Context, msg *amqp.LedgerEventMessage) (sheets.LedgerRow, error) {
	switch msg.Kind {
	case amqp.EventIncomeActivated:
		in, err := w.storage.GetIncome(ctx, msg.EntityID)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		return sheets.LedgerRow{
			Date:   in.StartDate,
			Kind:   msg.Kind,
			Name:   "Income",
			Amount: in.Amount,
			Detail: string(in.Frequency),
		}, nil

	case amqp.EventContributionAdded:
		c, goalName, err := w.storage.GetContribution(ctx, msg.EntityID)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		return sheets.LedgerRow{
			Date:   c.Date,
			Kind:   msg.Kind,
			Name:   goalName,
			Amount: c.Amount,
			Detail: c.Note,
		}, nil

	case amqp.EventRepaymentAdded:
		rp, debtName, err := w.storage.GetRepayment(ctx, msg.EntityID)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		return sheets.LedgerRow{
			Date:   rp.Date,
			Kind:   msg.Kind,
			Name:   debtName,
			Amount: rp.Amount,
			Detail: rp.Note,
		}, nil

	case amqp.EventGoalCompleted:
		g, err := w.storage.GetGoal(ctx, msg.EntityID)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		return sheets.LedgerRow{
			Date:   g.UpdatedAt,
			Kind:   msg.Kind,
			Name:   g.Name,
			Amount: g.CurrentAmount,
			Detail: fmt.Sprintf("target %s", g.TargetAmount),
		}, nil

	case amqp.EventDebtPaid:
		d, err := w.storage.GetDebt(ctx, msg.EntityID)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		return sheets.LedgerRow{
			Date:   d.UpdatedAt,
			Kind:   msg.Kind,
			Name:   d.Name,
			Amount: d.PrincipalAmount,
			Detail: "paid off",
		}, nil
	}

	// Unknown kinds come from newer publishers; drop rather than requeue forever.
	slog.WarnContext(ctx, "Unknown ledger event kind, dropping", "kind", msg.Kind)
	return sheets.LedgerRow{}, errUnknownKind
}

var errUnknownKind = errors.New("unknown event kind")

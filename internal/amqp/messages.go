package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published on the ledger exchange.
const (
	EventIncomeActivated   = "income_activated"
	EventContributionAdded = "contribution_added"
	EventRepaymentAdded    = "repayment_added"
	EventGoalCompleted     = "goal_completed"
	EventDebtPaid          = "debt_paid"
)

// LedgerEventMessage is a lightweight notification that something changed in
// the ledger. It carries only the kind, entity id and amount; the worker
// fetches the full record from the database when it needs more.
type LedgerEventMessage struct {
	Kind        string    `json:"kind"`
	EntityID    int64     `json:"entityId"`
	AmountCents int64     `json:"amountCents"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event message stamped with the current time.
func NewLedgerEventMessage(kind string, entityID, amountCents int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:        kind,
		EntityID:    entityID,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

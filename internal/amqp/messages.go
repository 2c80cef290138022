package amqp

import (
	"encoding/json"
	"time"

	"opsledger/internal/core"
)

// Actions carried by ledger events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEvent is a lightweight notification that a payment row changed.
// It carries identifiers only; the worker reloads the full row (and the
// affected entities) from the database before mirroring.
type LedgerEvent struct {
	PaymentID string    `json:"payment_id"`
	Action    string    `json:"action"`
	InternID  string    `json:"intern_id,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(action string, p core.PaymentRecord) LedgerEvent {
	return LedgerEvent{
		PaymentID: p.ID,
		Action:    action,
		InternID:  p.InternID,
		ProjectID: p.ProjectID,
		Timestamp: time.Now(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

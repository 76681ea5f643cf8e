package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names the ledger change a message announces.
type EventKind string

const (
	CaseUpserted        EventKind = "case.upserted"
	CaseDeleted         EventKind = "case.deleted"
	TransactionRecorded EventKind = "transaction.recorded"
	TransactionUpdated  EventKind = "transaction.updated"
	TransactionDeleted  EventKind = "transaction.deleted"
)

func (k EventKind) Valid() bool {
	switch k {
	case CaseUpserted, CaseDeleted, TransactionRecorded, TransactionUpdated, TransactionDeleted:
		return true
	default:
		return false
	}
}

// LedgerEvent is a lightweight change notification. The consumer reloads
// the case from storage; only deletions need the court case number, since
// the case row is gone by the time the message is handled.
type LedgerEvent struct {
	Kind            EventKind  `json:"kind"`
	CaseID          uuid.UUID  `json:"case_id"`
	CourtCaseNumber string     `json:"court_case_number,omitempty"`
	TransactionID   *uuid.UUID `json:"transaction_id,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind EventKind, caseID uuid.UUID, courtCaseNumber string, txID *uuid.UUID) *LedgerEvent {
	return &LedgerEvent{
		Kind:            kind,
		CaseID:          caseID,
		CourtCaseNumber: courtCaseNumber,
		TransactionID:   txID,
		Timestamp:       time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.CaseID == uuid.Nil {
		return nil, fmt.Errorf("event %s without case id", msg.Kind)
	}
	return &msg, nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies a work order history entry
type EventType string

const (
	EventCreate       EventType = "CREATE"
	EventSubmit       EventType = "SUBMIT"
	EventStart        EventType = "START"
	EventComplete     EventType = "COMPLETE"
	EventValidate     EventType = "VALIDATE"
	EventApprove      EventType = "APPROVE"
	EventReject       EventType = "REJECT"
	EventCancel       EventType = "CANCEL"
	EventUpdate       EventType = "UPDATE"
	EventPartAdded    EventType = "PART_ADDED"
	EventPartRemoved  EventType = "PART_REMOVED"
	EventPartReserved EventType = "PART_RESERVED"
	EventPartConsumed EventType = "PART_CONSUMED"
	EventPartReleased EventType = "PART_RELEASED"
)

// WorkOrderEvent is one row of a work order's audit trail.
type WorkOrderEvent struct {
	ID          string
	WorkOrderID string
	Type        EventType
	FromStatus  WorkOrderStatus
	ToStatus    WorkOrderStatus
	Amount      *decimal.Decimal
	Description string
	PerformedBy string
	CreatedAt   time.Time
}

package domain

import "strings"

// Role represents the caller's role in the system
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleTechnician   Role = "TECHNICIAN"
	RoleStockManager Role = "STOCK_MANAGER"
	RoleRequester    Role = "REQUESTER"
	RoleSystem       Role = "SYSTEM"
)

// IsSupervisor reports whether the role may approve, validate and plan work.
func (r Role) IsSupervisor() bool {
	return r == RoleAdmin || r == RoleManager
}

// Actor is the authenticated caller of a use case. Identity and role are
// supplied by the host service; the core never resolves them.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by the schedule runner.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// WorkOrderStatus represents the lifecycle state of a work order
type WorkOrderStatus string

const (
	StatusDraft      WorkOrderStatus = "DRAFT"
	StatusPending    WorkOrderStatus = "PENDING"
	StatusPlanned    WorkOrderStatus = "PLANNED"
	StatusInProgress WorkOrderStatus = "IN_PROGRESS"
	StatusCompleted  WorkOrderStatus = "COMPLETED"
	StatusCancelled  WorkOrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition (other than validation
// of a completed order) is possible.
func (s WorkOrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority uses the 4-value scale. The legacy LOW/HIGH scale is a subset.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority normalises a priority string. Empty input defaults to MEDIUM.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", validationf("unknown priority %q", s)
	}
}

// MaintenanceType classifies the work performed
type MaintenanceType string

const (
	TypeCorrective  MaintenanceType = "CORRECTIVE"
	TypePreventive  MaintenanceType = "PREVENTIVE"
	TypePredictive  MaintenanceType = "PREDICTIVE"
	TypeConditional MaintenanceType = "CONDITIONAL"
)

// Valid reports whether t is a known maintenance type.
func (t MaintenanceType) Valid() bool {
	switch t {
	case TypeCorrective, TypePreventive, TypePredictive, TypeConditional:
		return true
	}
	return false
}

// PartStatus tracks a work order part through the reservation ledger
type PartStatus string

const (
	PartPlanned  PartStatus = "PLANNED"
	PartReserved PartStatus = "RESERVED"
	PartConsumed PartStatus = "CONSUMED"
)

// MovementType is the direction of a stock movement
type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

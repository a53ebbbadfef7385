package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinTitleLength applies to work order and schedule titles.
const MinTitleLength = 5

// WorkOrder is a single maintenance task tracked from creation to
// financial closure. It is mutated only through its transition methods.
type WorkOrder struct {
	ID                 string
	Title              string
	Description        string
	Status             WorkOrderStatus
	Priority           Priority
	Type               MaintenanceType
	AssetID            string
	AssignedToID       *string
	ScheduleID         *string
	ScheduledAt        *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	EstimatedDuration  int // minutes
	ActualDuration     int // minutes
	LaborCost          decimal.Decimal
	MaterialCost       decimal.Decimal
	TotalCost          decimal.Decimal
	EstimatedCost      decimal.Decimal
	RequiresApproval   bool
	ApprovedByID       *string
	ApprovedAt         *time.Time
	RejectionReason    string
	ValidatedByID      *string
	ValidatedAt        *time.Time
	CancellationReason string
	CreatedByID        string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewWorkOrderParams holds the inputs of NewWorkOrder
type NewWorkOrderParams struct {
	ID                string
	Title             string
	Description       string
	Priority          Priority
	Type              MaintenanceType
	AssetID           string
	AssignedToID      *string
	ScheduleID        *string
	ScheduledAt       *time.Time
	EstimatedDuration int
	EstimatedCost     decimal.Decimal
	RequiresApproval  bool
	Draft             bool
	CreatedByID       string
}

// NewWorkOrder creates a validated work order. Drafts start in DRAFT;
// otherwise orders that need approval start PENDING and the rest PLANNED.
func NewWorkOrder(p NewWorkOrderParams, now time.Time) (*WorkOrder, error) {
	title := strings.TrimSpace(p.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.AssetID) == "" {
		return nil, validationf("asset id is required")
	}
	if !p.Type.Valid() {
		return nil, validationf("unknown maintenance type %q", p.Type)
	}
	priority, err := ParsePriority(string(p.Priority))
	if err != nil {
		return nil, err
	}
	if p.EstimatedDuration < 0 {
		return nil, validationf("estimated duration cannot be negative")
	}
	if p.EstimatedCost.IsNegative() {
		return nil, validationf("estimated cost cannot be negative")
	}

	wo := &WorkOrder{
		ID:                p.ID,
		Title:             title,
		Description:       p.Description,
		Priority:          priority,
		Type:              p.Type,
		AssetID:           p.AssetID,
		AssignedToID:      p.AssignedToID,
		ScheduleID:        p.ScheduleID,
		ScheduledAt:       p.ScheduledAt,
		EstimatedDuration: p.EstimatedDuration,
		EstimatedCost:     RoundMoney(p.EstimatedCost),
		RequiresApproval:  p.RequiresApproval,
		CreatedByID:       p.CreatedByID,
		LaborCost:         decimal.Zero,
		MaterialCost:      decimal.Zero,
		TotalCost:         decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	switch {
	case p.Draft:
		wo.Status = StatusDraft
	case p.RequiresApproval:
		wo.Status = StatusPending
	default:
		wo.Status = StatusPlanned
	}
	return wo, nil
}

func validateTitle(title string) error {
	if len([]rune(strings.TrimSpace(title))) < MinTitleLength {
		return validationf("title must be at least %d characters", MinTitleLength)
	}
	return nil
}

// IsValidated reports whether a manager has signed off the costs.
func (w *WorkOrder) IsValidated() bool {
	return w.ValidatedAt != nil
}

// IsAssignedTo reports whether userID is the assigned technician.
func (w *WorkOrder) IsAssignedTo(userID string) bool {
	return w.AssignedToID != nil && *w.AssignedToID == userID
}

// Submit moves a draft into the approval queue or straight to planning.
func (w *WorkOrder) Submit(now time.Time) error {
	if w.Status != StatusDraft {
		return invalidStatef("work order %s is %s, only drafts can be submitted", w.ID, w.Status)
	}
	if w.RequiresApproval {
		w.Status = StatusPending
	} else {
		w.Status = StatusPlanned
	}
	w.UpdatedAt = now
	return nil
}

// StartWork begins execution. Orders awaiting approval cannot start, and a
// draft that needs approval has to be submitted first.
func (w *WorkOrder) StartWork(now time.Time) error {
	switch w.Status {
	case StatusPlanned:
	case StatusDraft:
		if w.RequiresApproval {
			return invalidStatef("work order %s must be submitted for approval before it can start", w.ID)
		}
	case StatusPending:
		return invalidStatef("work order %s is awaiting approval", w.ID)
	default:
		return invalidStatef("work order %s cannot be started from %s", w.ID, w.Status)
	}
	w.Status = StatusInProgress
	w.StartedAt = timePtr(now)
	w.UpdatedAt = now
	return nil
}

// CompleteByTechnician records the end of execution. Costs are left to the
// manager's validation.
func (w *WorkOrder) CompleteByTechnician(actualDuration int, now time.Time) error {
	if w.Status != StatusInProgress {
		return invalidStatef("work order %s must be in progress to complete, got %s", w.ID, w.Status)
	}
	if actualDuration < 0 {
		return validationf("actual duration cannot be negative")
	}
	completedAt := now
	if w.StartedAt != nil && completedAt.Before(*w.StartedAt) {
		completedAt = *w.StartedAt
	}
	w.Status = StatusCompleted
	w.CompletedAt = timePtr(completedAt)
	w.ActualDuration = actualDuration
	w.UpdatedAt = now
	return nil
}

// ValidateByManager finalises the costs of a completed order and records the
// manager as its approver. It succeeds once; a second validation is an
// invalid state. Costs are rounded to cents.
func (w *WorkOrder) ValidateByManager(managerID string, laborCost, materialCost decimal.Decimal, now time.Time) error {
	if w.Status != StatusCompleted {
		return invalidStatef("work order %s must be completed before validation, got %s", w.ID, w.Status)
	}
	if w.IsValidated() {
		return invalidStatef("work order %s was already validated", w.ID)
	}
	if laborCost.IsNegative() {
		return validationf("labor cost cannot be negative")
	}
	if materialCost.IsNegative() {
		return validationf("material cost cannot be negative")
	}
	w.LaborCost = RoundMoney(laborCost)
	w.MaterialCost = RoundMoney(materialCost)
	w.recomputeTotal()
	w.ValidatedByID = stringPtr(managerID)
	w.ValidatedAt = timePtr(now)
	w.ApprovedByID = stringPtr(managerID)
	w.ApprovedAt = timePtr(now)
	w.UpdatedAt = now
	return nil
}

// Approve releases a pending order for planning. The approver fields stay
// empty until the completed order is validated; the decision itself is kept
// in the order's history.
func (w *WorkOrder) Approve(approverID string, now time.Time) error {
	if w.Status != StatusPending {
		return invalidStatef("work order %s is not awaiting approval", w.ID)
	}
	w.Status = StatusPlanned
	w.UpdatedAt = now
	return nil
}

// Reject closes a pending order with a reason.
func (w *WorkOrder) Reject(approverID, reason string, now time.Time) error {
	if w.Status != StatusPending {
		return invalidStatef("work order %s is not awaiting approval", w.ID)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validationf("rejection reason is required")
	}
	w.Status = StatusCancelled
	w.RejectionReason = reason
	w.CancellationReason = "rejected by " + approverID
	w.UpdatedAt = now
	return nil
}

// Cancel is permitted from every non-terminal state. Cancelling twice fails.
func (w *WorkOrder) Cancel(reason string, now time.Time) error {
	if w.Status.IsTerminal() {
		return invalidStatef("work order %s cannot be cancelled from %s", w.ID, w.Status)
	}
	w.Status = StatusCancelled
	w.CancellationReason = strings.TrimSpace(reason)
	w.UpdatedAt = now
	return nil
}

// WorkOrderUpdate carries a partial update. Nil fields are left untouched.
type WorkOrderUpdate struct {
	Title             *string
	Description       *string
	Priority          *Priority
	ScheduledAt       *time.Time
	EstimatedDuration *int
	AssignedToID      *string
}

func (u WorkOrderUpdate) onlyInProgressFields() bool {
	return u.Title == nil && u.Priority == nil && u.ScheduledAt == nil && u.EstimatedDuration == nil
}

// Update applies the fields that are still mutable in the current status.
func (w *WorkOrder) Update(u WorkOrderUpdate, now time.Time) error {
	switch w.Status {
	case StatusDraft, StatusPending, StatusPlanned:
	case StatusInProgress:
		if !u.onlyInProgressFields() {
			return invalidStatef("work order %s is in progress, only description and assignee can change", w.ID)
		}
	default:
		return invalidStatef("work order %s is %s and can no longer be edited", w.ID, w.Status)
	}

	if u.Title != nil {
		if err := validateTitle(*u.Title); err != nil {
			return err
		}
	}
	var priority Priority
	if u.Priority != nil {
		p, err := ParsePriority(string(*u.Priority))
		if err != nil {
			return err
		}
		priority = p
	}
	if u.EstimatedDuration != nil && *u.EstimatedDuration < 0 {
		return validationf("estimated duration cannot be negative")
	}

	if u.Title != nil {
		w.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		w.Description = *u.Description
	}
	if u.Priority != nil {
		w.Priority = priority
	}
	if u.ScheduledAt != nil {
		w.ScheduledAt = timePtr(*u.ScheduledAt)
	}
	if u.EstimatedDuration != nil {
		w.EstimatedDuration = *u.EstimatedDuration
	}
	if u.AssignedToID != nil {
		w.AssignedToID = stringPtr(*u.AssignedToID)
	}
	w.UpdatedAt = now
	return nil
}

// recomputeTotal is the only writer of TotalCost.
func (w *WorkOrder) recomputeTotal() {
	w.TotalCost = w.LaborCost.Add(w.MaterialCost)
}

// MoneyScale is the number of decimal places money is stored with.
const MoneyScale = 2

// RoundMoney rounds an amount half away from zero to MoneyScale places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

func timePtr(t time.Time) *time.Time { return &t }

func stringPtr(s string) *string { return &s }

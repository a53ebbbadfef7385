package models

import (
	"fmt"
	"time"

	"cmms-engine/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Reference Tables (owned by the host application)
// ============================================================

// Asset represents assets table. The core only checks existence.
type Asset struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Location  string    `gorm:"size:150" json:"location"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}

// User represents users table. Technicians are users with the TECHNICIAN role.
type User struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName  string         `gorm:"size:150;not null" json:"full_name"`
	Role      string         `gorm:"size:20;not null;index" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// ============================================================
// Stock Ledger
// ============================================================

// Part represents parts table
type Part struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	SKU            string          `gorm:"column:sku;size:50;uniqueIndex;not null" json:"sku"`
	Name           string          `gorm:"size:150;not null" json:"name"`
	QuantityOnHand int             `gorm:"not null;default:0" json:"quantity_on_hand"`
	MinimumStock   int             `gorm:"not null;default:0" json:"minimum_stock"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	Version        int             `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

func (Part) TableName() string {
	return "parts"
}

func (m *Part) ToDomain() *domain.Part {
	return &domain.Part{
		ID:             m.ID,
		SKU:            m.SKU,
		Name:           m.Name,
		QuantityOnHand: m.QuantityOnHand,
		MinimumStock:   m.MinimumStock,
		UnitPrice:      m.UnitPrice,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func PartFromDomain(p *domain.Part) *Part {
	return &Part{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		QuantityOnHand: p.QuantityOnHand,
		MinimumStock:   p.MinimumStock,
		UnitPrice:      p.UnitPrice,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// StockMovement represents stock_movements table (append only)
type StockMovement struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	PartID      string    `gorm:"size:36;not null;index" json:"part_id"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	WorkOrderID *string   `gorm:"size:36;index" json:"work_order_id"`
	Reason      string    `gorm:"size:255" json:"reason"`
	PerformedBy string    `gorm:"size:36;not null" json:"performed_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

func (m *StockMovement) ToDomain() *domain.StockMovement {
	return &domain.StockMovement{
		ID:          m.ID,
		PartID:      m.PartID,
		Type:        domain.MovementType(m.Type),
		Quantity:    m.Quantity,
		WorkOrderID: m.WorkOrderID,
		Reason:      m.Reason,
		PerformedBy: m.PerformedBy,
		CreatedAt:   m.CreatedAt,
	}
}

func StockMovementFromDomain(s *domain.StockMovement) *StockMovement {
	return &StockMovement{
		ID:          s.ID,
		PartID:      s.PartID,
		Type:        string(s.Type),
		Quantity:    s.Quantity,
		WorkOrderID: s.WorkOrderID,
		Reason:      s.Reason,
		PerformedBy: s.PerformedBy,
		CreatedAt:   s.CreatedAt,
	}
}

// ============================================================
// Work Orders
// ============================================================

// WorkOrder represents work_orders table. total_cost is not stored; it is
// derived from labor_cost + material_cost on load.
type WorkOrder struct {
	ID                 string          `gorm:"primaryKey;size:36" json:"id"`
	Title              string          `gorm:"size:255;not null" json:"title"`
	Description        string          `gorm:"type:text" json:"description"`
	Status             string          `gorm:"size:20;not null;index" json:"status"`
	Priority           string          `gorm:"size:10;not null" json:"priority"`
	Type               string          `gorm:"size:20;not null" json:"type"`
	AssetID            string          `gorm:"size:36;not null;index" json:"asset_id"`
	AssignedToID       *string         `gorm:"size:36;index" json:"assigned_to_id"`
	ScheduleID         *string         `gorm:"size:36;index" json:"schedule_id"`
	ScheduledAt        *time.Time      `json:"scheduled_at"`
	StartedAt          *time.Time      `json:"started_at"`
	CompletedAt        *time.Time      `json:"completed_at"`
	EstimatedDuration  int             `gorm:"not null;default:0" json:"estimated_duration"`
	ActualDuration     int             `gorm:"not null;default:0" json:"actual_duration"`
	LaborCost          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"labor_cost"`
	MaterialCost       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"material_cost"`
	EstimatedCost      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"estimated_cost"`
	RequiresApproval   bool            `gorm:"not null;default:false" json:"requires_approval"`
	ApprovedByID       *string         `gorm:"size:36" json:"approved_by_id"`
	ApprovedAt         *time.Time      `json:"approved_at"`
	RejectionReason    string          `gorm:"type:text" json:"rejection_reason"`
	ValidatedByID      *string         `gorm:"size:36" json:"validated_by_id"`
	ValidatedAt        *time.Time      `json:"validated_at"`
	CancellationReason string          `gorm:"type:text" json:"cancellation_reason"`
	CreatedByID        string          `gorm:"size:36;not null" json:"created_by_id"`
	Version            int             `gorm:"not null;default:1" json:"version"`
	CreatedAt          time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null" json:"updated_at"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

func (m *WorkOrder) ToDomain() *domain.WorkOrder {
	return &domain.WorkOrder{
		ID:                 m.ID,
		Title:              m.Title,
		Description:        m.Description,
		Status:             domain.WorkOrderStatus(m.Status),
		Priority:           domain.Priority(m.Priority),
		Type:               domain.MaintenanceType(m.Type),
		AssetID:            m.AssetID,
		AssignedToID:       m.AssignedToID,
		ScheduleID:         m.ScheduleID,
		ScheduledAt:        m.ScheduledAt,
		StartedAt:          m.StartedAt,
		CompletedAt:        m.CompletedAt,
		EstimatedDuration:  m.EstimatedDuration,
		ActualDuration:     m.ActualDuration,
		LaborCost:          m.LaborCost,
		MaterialCost:       m.MaterialCost,
		TotalCost:          m.LaborCost.Add(m.MaterialCost),
		EstimatedCost:      m.EstimatedCost,
		RequiresApproval:   m.RequiresApproval,
		ApprovedByID:       m.ApprovedByID,
		ApprovedAt:         m.ApprovedAt,
		RejectionReason:    m.RejectionReason,
		ValidatedByID:      m.ValidatedByID,
		ValidatedAt:        m.ValidatedAt,
		CancellationReason: m.CancellationReason,
		CreatedByID:        m.CreatedByID,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func WorkOrderFromDomain(w *domain.WorkOrder) *WorkOrder {
	return &WorkOrder{
		ID:                 w.ID,
		Title:              w.Title,
		Description:        w.Description,
		Status:             string(w.Status),
		Priority:           string(w.Priority),
		Type:               string(w.Type),
		AssetID:            w.AssetID,
		AssignedToID:       w.AssignedToID,
		ScheduleID:         w.ScheduleID,
		ScheduledAt:        w.ScheduledAt,
		StartedAt:          w.StartedAt,
		CompletedAt:        w.CompletedAt,
		EstimatedDuration:  w.EstimatedDuration,
		ActualDuration:     w.ActualDuration,
		LaborCost:          w.LaborCost,
		MaterialCost:       w.MaterialCost,
		EstimatedCost:      w.EstimatedCost,
		RequiresApproval:   w.RequiresApproval,
		ApprovedByID:       w.ApprovedByID,
		ApprovedAt:         w.ApprovedAt,
		RejectionReason:    w.RejectionReason,
		ValidatedByID:      w.ValidatedByID,
		ValidatedAt:        w.ValidatedAt,
		CancellationReason: w.CancellationReason,
		CreatedByID:        w.CreatedByID,
		Version:            w.Version,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

// WorkOrderPart represents work_order_parts table
type WorkOrderPart struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	WorkOrderID      string          `gorm:"size:36;not null;index" json:"work_order_id"`
	PartID           string          `gorm:"size:36;not null;index" json:"part_id"`
	QuantityPlanned  int             `gorm:"not null" json:"quantity_planned"`
	QuantityReserved int             `gorm:"not null;default:0" json:"quantity_reserved"`
	QuantityConsumed int             `gorm:"not null;default:0" json:"quantity_consumed"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_price"`
	Status           string          `gorm:"size:20;not null" json:"status"`
	ReservedByID     *string         `gorm:"size:36" json:"reserved_by_id"`
	ReservedAt       *time.Time      `json:"reserved_at"`
	ConsumedAt       *time.Time      `json:"consumed_at"`
	Version          int             `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (WorkOrderPart) TableName() string {
	return "work_order_parts"
}

func (m *WorkOrderPart) ToDomain() *domain.WorkOrderPart {
	return &domain.WorkOrderPart{
		ID:               m.ID,
		WorkOrderID:      m.WorkOrderID,
		PartID:           m.PartID,
		QuantityPlanned:  m.QuantityPlanned,
		QuantityReserved: m.QuantityReserved,
		QuantityConsumed: m.QuantityConsumed,
		UnitPrice:        m.UnitPrice,
		TotalPrice:       m.TotalPrice,
		Status:           domain.PartStatus(m.Status),
		ReservedByID:     m.ReservedByID,
		ReservedAt:       m.ReservedAt,
		ConsumedAt:       m.ConsumedAt,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func WorkOrderPartFromDomain(p *domain.WorkOrderPart) *WorkOrderPart {
	return &WorkOrderPart{
		ID:               p.ID,
		WorkOrderID:      p.WorkOrderID,
		PartID:           p.PartID,
		QuantityPlanned:  p.QuantityPlanned,
		QuantityReserved: p.QuantityReserved,
		QuantityConsumed: p.QuantityConsumed,
		UnitPrice:        p.UnitPrice,
		TotalPrice:       p.TotalPrice,
		Status:           string(p.Status),
		ReservedByID:     p.ReservedByID,
		ReservedAt:       p.ReservedAt,
		ConsumedAt:       p.ConsumedAt,
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// PartRequest represents part_requests table
type PartRequest struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	WorkOrderID   string    `gorm:"size:36;not null;index" json:"work_order_id"`
	PartID        string    `gorm:"size:36;not null" json:"part_id"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	RequestedByID string    `gorm:"size:36;not null" json:"requested_by_id"`
	Status        string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (PartRequest) TableName() string {
	return "part_requests"
}

func (m *PartRequest) ToDomain() *domain.PartRequest {
	return &domain.PartRequest{
		ID:            m.ID,
		WorkOrderID:   m.WorkOrderID,
		PartID:        m.PartID,
		Quantity:      m.Quantity,
		RequestedByID: m.RequestedByID,
		Status:        domain.PartRequestStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func PartRequestFromDomain(r *domain.PartRequest) *PartRequest {
	return &PartRequest{
		ID:            r.ID,
		WorkOrderID:   r.WorkOrderID,
		PartID:        r.PartID,
		Quantity:      r.Quantity,
		RequestedByID: r.RequestedByID,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// WorkOrderEvent represents work_order_events table (History)
type WorkOrderEvent struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	WorkOrderID string           `gorm:"size:36;not null;index" json:"work_order_id"`
	Type        string           `gorm:"size:30;not null" json:"type"`
	FromStatus  *string          `gorm:"size:20" json:"from_status"`
	ToStatus    string           `gorm:"size:20;not null" json:"to_status"`
	Amount      *decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Description string           `gorm:"type:text" json:"description"`
	PerformedBy string           `gorm:"size:36;not null" json:"performed_by"`
	CreatedAt   time.Time        `gorm:"not null;index" json:"created_at"`
}

func (WorkOrderEvent) TableName() string {
	return "work_order_events"
}

func (m *WorkOrderEvent) ToDomain() *domain.WorkOrderEvent {
	e := &domain.WorkOrderEvent{
		ID:          m.ID,
		WorkOrderID: m.WorkOrderID,
		Type:        domain.EventType(m.Type),
		ToStatus:    domain.WorkOrderStatus(m.ToStatus),
		Amount:      m.Amount,
		Description: m.Description,
		PerformedBy: m.PerformedBy,
		CreatedAt:   m.CreatedAt,
	}
	if m.FromStatus != nil {
		e.FromStatus = domain.WorkOrderStatus(*m.FromStatus)
	}
	return e
}

func WorkOrderEventFromDomain(e *domain.WorkOrderEvent) *WorkOrderEvent {
	m := &WorkOrderEvent{
		ID:          e.ID,
		WorkOrderID: e.WorkOrderID,
		Type:        string(e.Type),
		ToStatus:    string(e.ToStatus),
		Amount:      e.Amount,
		Description: e.Description,
		PerformedBy: e.PerformedBy,
		CreatedAt:   e.CreatedAt,
	}
	if e.FromStatus != "" {
		from := string(e.FromStatus)
		m.FromStatus = &from
	}
	return m
}

// ============================================================
// Maintenance Schedules
// ============================================================

// MaintenanceSchedule represents maintenance_schedules table. Only the
// columns of the discipline named by trigger_type are set.
type MaintenanceSchedule struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	AssetID           string     `gorm:"size:36;not null;index" json:"asset_id"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	MaintenanceType   string     `gorm:"size:20;not null" json:"maintenance_type"`
	TriggerType       string     `gorm:"size:20;not null;index" json:"trigger_type"`
	Frequency         *string    `gorm:"size:20" json:"frequency"`
	IntervalValue     *int       `json:"interval_value"`
	NextDueDate       *time.Time `gorm:"index" json:"next_due_date"`
	ThresholdMetric   *string    `gorm:"size:100" json:"threshold_metric"`
	ThresholdValue    *float64   `json:"threshold_value"`
	ThresholdUnit     *string    `gorm:"size:30" json:"threshold_unit"`
	CurrentValue      *float64   `json:"current_value"`
	LastExecutedAt    *time.Time `json:"last_executed_at"`
	EstimatedDuration int        `gorm:"not null;default:0" json:"estimated_duration"`
	AssignedToID      *string    `gorm:"size:36" json:"assigned_to_id"`
	IsActive          bool       `gorm:"not null;default:true;index" json:"is_active"`
	Priority          string     `gorm:"size:10;not null" json:"priority"`
	CreatedByID       string     `gorm:"size:36;not null" json:"created_by_id"`
	Version           int        `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}

func (MaintenanceSchedule) TableName() string {
	return "maintenance_schedules"
}

// ToDomain rebuilds the trigger from its discipline's columns. A row whose
// columns do not match trigger_type is rejected.
func (m *MaintenanceSchedule) ToDomain() (domain.MaintenanceSchedule, error) {
	s := domain.MaintenanceSchedule{
		ID:                m.ID,
		AssetID:           m.AssetID,
		Title:             m.Title,
		Description:       m.Description,
		MaintenanceType:   domain.MaintenanceType(m.MaintenanceType),
		LastExecutedAt:    m.LastExecutedAt,
		EstimatedDuration: m.EstimatedDuration,
		AssignedToID:      m.AssignedToID,
		IsActive:          m.IsActive,
		Priority:          domain.Priority(m.Priority),
		CreatedByID:       m.CreatedByID,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}

	switch domain.TriggerType(m.TriggerType) {
	case domain.TriggerTimeBased:
		if m.Frequency == nil || m.IntervalValue == nil || m.NextDueDate == nil {
			return s, fmt.Errorf("schedule %s: time-based row without frequency, interval or next due date", m.ID)
		}
		if m.ThresholdMetric != nil || m.ThresholdValue != nil {
			return s, fmt.Errorf("schedule %s: time-based row carries threshold columns", m.ID)
		}
		s.Trigger = domain.TimeTrigger{
			Frequency:   domain.Frequency(*m.Frequency),
			Interval:    *m.IntervalValue,
			NextDueDate: *m.NextDueDate,
		}
	case domain.TriggerThresholdBased:
		if m.ThresholdMetric == nil || m.ThresholdValue == nil {
			return s, fmt.Errorf("schedule %s: threshold-based row without metric or threshold", m.ID)
		}
		if m.Frequency != nil || m.NextDueDate != nil {
			return s, fmt.Errorf("schedule %s: threshold-based row carries calendar columns", m.ID)
		}
		t := domain.ThresholdTrigger{Metric: *m.ThresholdMetric, Threshold: *m.ThresholdValue}
		if m.ThresholdUnit != nil {
			t.Unit = *m.ThresholdUnit
		}
		if m.CurrentValue != nil {
			t.CurrentValue = *m.CurrentValue
		}
		s.Trigger = t
	default:
		return s, fmt.Errorf("schedule %s: unknown trigger type %q", m.ID, m.TriggerType)
	}
	return s, nil
}

func MaintenanceScheduleFromDomain(s domain.MaintenanceSchedule) *MaintenanceSchedule {
	m := &MaintenanceSchedule{
		ID:                s.ID,
		AssetID:           s.AssetID,
		Title:             s.Title,
		Description:       s.Description,
		MaintenanceType:   string(s.MaintenanceType),
		TriggerType:       string(s.TriggerType()),
		LastExecutedAt:    s.LastExecutedAt,
		EstimatedDuration: s.EstimatedDuration,
		AssignedToID:      s.AssignedToID,
		IsActive:          s.IsActive,
		Priority:          string(s.Priority),
		CreatedByID:       s.CreatedByID,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	switch t := s.Trigger.(type) {
	case domain.TimeTrigger:
		freq := string(t.Frequency)
		interval := t.Interval
		next := t.NextDueDate
		m.Frequency, m.IntervalValue, m.NextDueDate = &freq, &interval, &next
	case domain.ThresholdTrigger:
		metric, threshold, unit, current := t.Metric, t.Threshold, t.Unit, t.CurrentValue
		m.ThresholdMetric, m.ThresholdValue, m.ThresholdUnit, m.CurrentValue = &metric, &threshold, &unit, &current
	}
	return m
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for every table the engine uses
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Reference
		&Asset{},
		&User{},
		// Stock ledger
		&Part{},
		&StockMovement{},
		// Work orders
		&WorkOrder{},
		&WorkOrderPart{},
		&PartRequest{},
		&WorkOrderEvent{},
		// Schedules
		&MaintenanceSchedule{},
	)
}

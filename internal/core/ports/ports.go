// Package ports defines the persistence contracts the workflow services
// depend on.
package ports

import (
	"context"
	"time"

	"cmms-engine/internal/core/domain"
)

// WorkOrderRepository defines work order persistence
type WorkOrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.WorkOrder, error)
	FindByAssetID(ctx context.Context, assetID string) ([]*domain.WorkOrder, error)
	Save(ctx context.Context, wo *domain.WorkOrder) error
	Update(ctx context.Context, wo *domain.WorkOrder) error
}

// WorkOrderPartRepository defines reservation ledger persistence
type WorkOrderPartRepository interface {
	FindByID(ctx context.Context, id string) (*domain.WorkOrderPart, error)
	FindByWorkOrderID(ctx context.Context, workOrderID string) ([]*domain.WorkOrderPart, error)
	Save(ctx context.Context, part *domain.WorkOrderPart) error
	Update(ctx context.Context, part *domain.WorkOrderPart) error
	Delete(ctx context.Context, id string) error
}

// ScheduleRepository defines maintenance schedule persistence
type ScheduleRepository interface {
	FindByID(ctx context.Context, id string) (domain.MaintenanceSchedule, error)
	FindByAssetID(ctx context.Context, assetID string) ([]domain.MaintenanceSchedule, error)
	// FindDueSchedules returns active schedules whose own discipline is due at now.
	FindDueSchedules(ctx context.Context, now time.Time) ([]domain.MaintenanceSchedule, error)
	Save(ctx context.Context, s domain.MaintenanceSchedule) error
	Update(ctx context.Context, s domain.MaintenanceSchedule) error
}

// PartRepository defines stock ledger persistence
type PartRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Part, error)
	Update(ctx context.Context, part *domain.Part) error
}

// StockMovementRepository defines stock history persistence
type StockMovementRepository interface {
	Save(ctx context.Context, m *domain.StockMovement) error
	FindByPartID(ctx context.Context, partID string) ([]*domain.StockMovement, error)
}

// PartRequestRepository defines stock-manager request persistence
type PartRequestRepository interface {
	Save(ctx context.Context, r *domain.PartRequest) error
	Update(ctx context.Context, r *domain.PartRequest) error
	FindByWorkOrderID(ctx context.Context, workOrderID string) ([]*domain.PartRequest, error)
}

// HistoryRepository defines work order audit trail persistence
type HistoryRepository interface {
	Save(ctx context.Context, e *domain.WorkOrderEvent) error
	FindByWorkOrderID(ctx context.Context, workOrderID string) ([]*domain.WorkOrderEvent, error)
}

// AssetRepository checks externally owned assets
type AssetRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// TechnicianRepository checks externally owned technicians
type TechnicianRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Repositories groups every repository bound to one connection or transaction.
type Repositories interface {
	WorkOrders() WorkOrderRepository
	WorkOrderParts() WorkOrderPartRepository
	Schedules() ScheduleRepository
	Parts() PartRepository
	StockMovements() StockMovementRepository
	PartRequests() PartRequestRepository
	History() HistoryRepository
	Assets() AssetRepository
	Technicians() TechnicianRepository
}

// UnitOfWork runs fn inside one transaction. Within it, FindByID on work
// orders, work order parts, schedules and parts holds a row lock until
// commit. Returning an error rolls everything back.
type UnitOfWork interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

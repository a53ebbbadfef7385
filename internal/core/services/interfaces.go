package services

import (
	"context"

	"cmms-engine/internal/core/domain"
)

// WorkOrderUseCases defines the work order lifecycle operations
type WorkOrderUseCases interface {
	Create(ctx context.Context, actor domain.Actor, input CreateWorkOrderInput) (*domain.WorkOrder, error)
	Get(ctx context.Context, id string) (*domain.WorkOrder, error)
	ListByAsset(ctx context.Context, assetID string) ([]*domain.WorkOrder, error)
	History(ctx context.Context, id string) ([]*domain.WorkOrderEvent, error)
	Submit(ctx context.Context, actor domain.Actor, id string) (*domain.WorkOrder, error)
	Start(ctx context.Context, actor domain.Actor, id string) (*domain.WorkOrder, error)
	CompleteByTechnician(ctx context.Context, actor domain.Actor, id string, input CompleteInput) (*domain.WorkOrder, error)
	ValidateByManager(ctx context.Context, actor domain.Actor, id string, input ValidateInput) (*domain.WorkOrder, error)
	Approve(ctx context.Context, actor domain.Actor, id string) (*domain.WorkOrder, error)
	Reject(ctx context.Context, actor domain.Actor, id, reason string) (*domain.WorkOrder, error)
	Cancel(ctx context.Context, actor domain.Actor, id, reason string) (*domain.WorkOrder, error)
	Update(ctx context.Context, actor domain.Actor, id string, input domain.WorkOrderUpdate) (*domain.WorkOrder, error)
}

// PartsUseCases defines the reservation ledger operations
type PartsUseCases interface {
	ListByWorkOrder(ctx context.Context, workOrderID string) ([]*domain.WorkOrderPart, error)
	StockMovements(ctx context.Context, partID string) ([]*domain.StockMovement, error)
	AddPart(ctx context.Context, actor domain.Actor, workOrderID string, line PartLine) (*domain.WorkOrderPart, error)
	RemovePart(ctx context.Context, actor domain.Actor, workOrderID, workOrderPartID string) error
	SwapPart(ctx context.Context, actor domain.Actor, workOrderID, workOrderPartID string, line PartLine) (*domain.WorkOrderPart, error)
	Reserve(ctx context.Context, actor domain.Actor, workOrderPartID string, quantity int) (*domain.WorkOrderPart, error)
	Release(ctx context.Context, actor domain.Actor, workOrderPartID string) (*domain.WorkOrderPart, error)
}

// DueScheduleRunner executes every due schedule once
type DueScheduleRunner interface {
	ExecuteDue(ctx context.Context) (*ExecutionReport, error)
}

// ScheduleUseCases defines the maintenance schedule operations
type ScheduleUseCases interface {
	DueScheduleRunner
	Create(ctx context.Context, actor domain.Actor, input CreateScheduleInput) (domain.MaintenanceSchedule, error)
	Get(ctx context.Context, id string) (domain.MaintenanceSchedule, error)
	ListByAsset(ctx context.Context, assetID string) ([]domain.MaintenanceSchedule, error)
	ListDue(ctx context.Context) ([]domain.MaintenanceSchedule, error)
	Update(ctx context.Context, actor domain.Actor, id string, input domain.ScheduleUpdate) (domain.MaintenanceSchedule, error)
	SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (domain.MaintenanceSchedule, error)
	RecordReading(ctx context.Context, actor domain.Actor, id string, value float64) (domain.MaintenanceSchedule, error)
	Execute(ctx context.Context, actor domain.Actor, id string) (*Execution, error)
}

var (
	_ WorkOrderUseCases = (*WorkOrderService)(nil)
	_ PartsUseCases     = (*PartsService)(nil)
	_ ScheduleUseCases  = (*ScheduleService)(nil)
)

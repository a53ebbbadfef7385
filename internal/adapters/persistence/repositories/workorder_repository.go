package repositories

import (
	"context"

	"cmms-engine/internal/adapters/persistence/models"
	"cmms-engine/internal/core/domain"

	"gorm.io/gorm"
)

// WorkOrderRepository handles work order data access
type WorkOrderRepository struct {
	db   *gorm.DB
	lock bool
}

// NewWorkOrderRepository creates a new work order repository
func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// FindByID gets a work order by ID
func (r *WorkOrderRepository) FindByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	var row models.WorkOrder
	err := forUpdate(r.db.WithContext(ctx), r.lock).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, mapError(err, "work order", id)
	}
	return row.ToDomain(), nil
}

// FindByAssetID lists the work orders of an asset, newest first
func (r *WorkOrderRepository) FindByAssetID(ctx context.Context, assetID string) ([]*domain.WorkOrder, error) {
	var rows []*models.WorkOrder
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err, "asset", assetID)
	}
	out := make([]*domain.WorkOrder, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// Save inserts a new work order
func (r *WorkOrderRepository) Save(ctx context.Context, wo *domain.WorkOrder) error {
	row := models.WorkOrderFromDomain(wo)
	row.Version = 1
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return mapError(err, "work order", wo.ID)
	}
	wo.Version = 1
	return nil
}

// Update replaces a work order, guarded by its version
func (r *WorkOrderRepository) Update(ctx context.Context, wo *domain.WorkOrder) error {
	row := models.WorkOrderFromDomain(wo)
	row.Version = wo.Version + 1
	if err := guardedUpdate(ctx, r.db, row, wo.Version, "work order", wo.ID); err != nil {
		return err
	}
	wo.Version = row.Version
	return nil
}

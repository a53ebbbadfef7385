package repositories

import (
	"context"

	"cmms-engine/internal/adapters/persistence/models"
	"cmms-engine/internal/core/domain"

	"gorm.io/gorm"
)

// HistoryRepository handles work order event data access
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save appends an event
func (r *HistoryRepository) Save(ctx context.Context, e *domain.WorkOrderEvent) error {
	return mapError(r.db.WithContext(ctx).Create(models.WorkOrderEventFromDomain(e)).Error, "work order event", e.ID)
}

// FindByWorkOrderID lists the events of a work order, oldest first
func (r *HistoryRepository) FindByWorkOrderID(ctx context.Context, workOrderID string) ([]*domain.WorkOrderEvent, error) {
	var rows []*models.WorkOrderEvent
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err, "work order", workOrderID)
	}
	out := make([]*domain.WorkOrderEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// AssetRepository checks assets
type AssetRepository struct {
	db *gorm.DB
}

// Exists reports whether an active asset exists
func (r *AssetRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, translate(err)
}

// TechnicianRepository checks technicians
type TechnicianRepository struct {
	db *gorm.DB
}

// Exists reports whether an active user with the technician role exists
func (r *TechnicianRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ? AND is_active = ?", id, domain.RoleTechnician, true).
		Count(&count).Error
	return count > 0, translate(err)
}

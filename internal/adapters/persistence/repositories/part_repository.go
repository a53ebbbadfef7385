package repositories

import (
	"context"

	"cmms-engine/internal/adapters/persistence/models"
	"cmms-engine/internal/core/domain"

	"gorm.io/gorm"
)

// PartRepository handles spare part stock data access
type PartRepository struct {
	db   *gorm.DB
	lock bool
}

// NewPartRepository creates a new part repository
func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

// FindByID gets a part by ID
func (r *PartRepository) FindByID(ctx context.Context, id string) (*domain.Part, error) {
	var row models.Part
	err := forUpdate(r.db.WithContext(ctx), r.lock).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, mapError(err, "part", id)
	}
	return row.ToDomain(), nil
}

// Update replaces a part, guarded by its version
func (r *PartRepository) Update(ctx context.Context, p *domain.Part) error {
	row := models.PartFromDomain(p)
	row.Version = p.Version + 1
	if err := guardedUpdate(ctx, r.db, row, p.Version, "part", p.ID); err != nil {
		return err
	}
	p.Version = row.Version
	return nil
}

// WorkOrderPartRepository handles reservation ledger data access
type WorkOrderPartRepository struct {
	db   *gorm.DB
	lock bool
}

// NewWorkOrderPartRepository creates a new work order part repository
func NewWorkOrderPartRepository(db *gorm.DB) *WorkOrderPartRepository {
	return &WorkOrderPartRepository{db: db}
}

// FindByID gets a work order part by ID
func (r *WorkOrderPartRepository) FindByID(ctx context.Context, id string) (*domain.WorkOrderPart, error) {
	var row models.WorkOrderPart
	err := forUpdate(r.db.WithContext(ctx), r.lock).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, mapError(err, "work order part", id)
	}
	return row.ToDomain(), nil
}

// FindByWorkOrderID lists the parts of a work order
func (r *WorkOrderPartRepository) FindByWorkOrderID(ctx context.Context, workOrderID string) ([]*domain.WorkOrderPart, error) {
	var rows []*models.WorkOrderPart
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err, "work order", workOrderID)
	}
	out := make([]*domain.WorkOrderPart, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// Save inserts a work order part
func (r *WorkOrderPartRepository) Save(ctx context.Context, p *domain.WorkOrderPart) error {
	row := models.WorkOrderPartFromDomain(p)
	row.Version = 1
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return mapError(err, "work order part", p.ID)
	}
	p.Version = 1
	return nil
}

// Update replaces a work order part, guarded by its version
func (r *WorkOrderPartRepository) Update(ctx context.Context, p *domain.WorkOrderPart) error {
	row := models.WorkOrderPartFromDomain(p)
	row.Version = p.Version + 1
	if err := guardedUpdate(ctx, r.db, row, p.Version, "work order part", p.ID); err != nil {
		return err
	}
	p.Version = row.Version
	return nil
}

// Delete removes a work order part
func (r *WorkOrderPartRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.WorkOrderPart{})
	if res.Error != nil {
		return mapError(res.Error, "work order part", id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("work order part", id)
	}
	return nil
}

// StockMovementRepository handles stock movement data access
type StockMovementRepository struct {
	db *gorm.DB
}

// NewStockMovementRepository creates a new stock movement repository
func NewStockMovementRepository(db *gorm.DB) *StockMovementRepository {
	return &StockMovementRepository{db: db}
}

// Save appends a stock movement
func (r *StockMovementRepository) Save(ctx context.Context, m *domain.StockMovement) error {
	return mapError(r.db.WithContext(ctx).Create(models.StockMovementFromDomain(m)).Error, "stock movement", m.ID)
}

// FindByPartID lists the movements of a part, oldest first
func (r *StockMovementRepository) FindByPartID(ctx context.Context, partID string) ([]*domain.StockMovement, error) {
	var rows []*models.StockMovement
	err := r.db.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err, "part", partID)
	}
	out := make([]*domain.StockMovement, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// PartRequestRepository handles part request data access
type PartRequestRepository struct {
	db *gorm.DB
}

// NewPartRequestRepository creates a new part request repository
func NewPartRequestRepository(db *gorm.DB) *PartRequestRepository {
	return &PartRequestRepository{db: db}
}

// Save inserts a part request
func (r *PartRequestRepository) Save(ctx context.Context, req *domain.PartRequest) error {
	return mapError(r.db.WithContext(ctx).Create(models.PartRequestFromDomain(req)).Error, "part request", req.ID)
}

// Update replaces a part request
func (r *PartRequestRepository) Update(ctx context.Context, req *domain.PartRequest) error {
	row := models.PartRequestFromDomain(req)
	return mapError(r.db.WithContext(ctx).Model(row).Select("*").Updates(row).Error, "part request", req.ID)
}

// FindByWorkOrderID lists the part requests of a work order
func (r *PartRequestRepository) FindByWorkOrderID(ctx context.Context, workOrderID string) ([]*domain.PartRequest, error) {
	var rows []*models.PartRequest
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err, "work order", workOrderID)
	}
	out := make([]*domain.PartRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

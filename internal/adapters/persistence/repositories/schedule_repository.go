package repositories

import (
	"context"
	"time"

	"cmms-engine/internal/adapters/persistence/models"
	"cmms-engine/internal/core/domain"

	"gorm.io/gorm"
)

// ScheduleRepository handles maintenance schedule data access
type ScheduleRepository struct {
	db   *gorm.DB
	lock bool
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByID gets a schedule by ID
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (domain.MaintenanceSchedule, error) {
	var row models.MaintenanceSchedule
	err := forUpdate(r.db.WithContext(ctx), r.lock).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return domain.MaintenanceSchedule{}, mapError(err, "schedule", id)
	}
	return row.ToDomain()
}

// FindByAssetID lists the schedules of an asset
func (r *ScheduleRepository) FindByAssetID(ctx context.Context, assetID string) ([]domain.MaintenanceSchedule, error) {
	var rows []*models.MaintenanceSchedule
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err, "asset", assetID)
	}
	return toSchedules(rows, time.Time{}, false)
}

// FindDueSchedules lists active schedules whose own discipline is due at now
func (r *ScheduleRepository) FindDueSchedules(ctx context.Context, now time.Time) ([]domain.MaintenanceSchedule, error) {
	var rows []*models.MaintenanceSchedule
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(
			r.db.Where("trigger_type = ? AND next_due_date <= ?", domain.TriggerTimeBased, now).
				Or("trigger_type = ? AND current_value >= threshold_value", domain.TriggerThresholdBased),
		).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return toSchedules(rows, now, true)
}

// Save inserts a schedule
func (r *ScheduleRepository) Save(ctx context.Context, s domain.MaintenanceSchedule) error {
	row := models.MaintenanceScheduleFromDomain(s)
	row.Version = 1
	return mapError(r.db.WithContext(ctx).Create(row).Error, "schedule", s.ID)
}

// Update replaces a schedule, guarded by its version
func (r *ScheduleRepository) Update(ctx context.Context, s domain.MaintenanceSchedule) error {
	row := models.MaintenanceScheduleFromDomain(s)
	row.Version = s.Version + 1
	return guardedUpdate(ctx, r.db, row, s.Version, "schedule", s.ID)
}

func toSchedules(rows []*models.MaintenanceSchedule, now time.Time, dueOnly bool) ([]domain.MaintenanceSchedule, error) {
	out := make([]domain.MaintenanceSchedule, 0, len(rows))
	for _, row := range rows {
		s, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		if dueOnly && !s.IsDue(now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

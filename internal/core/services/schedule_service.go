package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/policy"
	"cmms-engine/internal/core/ports"

	"github.com/sirupsen/logrus"
)

// ScheduleService manages maintenance schedules and turns due schedules
// into work orders
type ScheduleService struct {
	base
}

// NewScheduleService creates a new schedule service
func NewScheduleService(uow ports.UnitOfWork, opts Options) *ScheduleService {
	return &ScheduleService{base: newBase(uow, opts)}
}

// CreateScheduleInput represents create schedule input
type CreateScheduleInput struct {
	AssetID           string
	Title             string
	Description       string
	MaintenanceType   domain.MaintenanceType
	Trigger           domain.Trigger
	EstimatedDuration int
	AssignedToID      *string
	Priority          domain.Priority
}

// Create creates an active schedule
func (s *ScheduleService) Create(ctx context.Context, actor domain.Actor, input CreateScheduleInput) (domain.MaintenanceSchedule, error) {
	if err := policy.Authorize(actor, policy.ActionManageSchedule); err != nil {
		return domain.MaintenanceSchedule{}, err
	}
	id := s.newID()
	err := s.tx(ctx, "create_schedule", func(ctx context.Context, tx ports.Repositories) error {
		if err := s.checkAsset(ctx, tx, input.AssetID); err != nil {
			return err
		}
		if input.AssignedToID != nil {
			if err := s.checkTechnician(ctx, tx, *input.AssignedToID); err != nil {
				return err
			}
		}
		sched, err := domain.NewMaintenanceSchedule(domain.NewScheduleParams{
			ID:                id,
			AssetID:           input.AssetID,
			Title:             input.Title,
			Description:       input.Description,
			MaintenanceType:   input.MaintenanceType,
			Trigger:           input.Trigger,
			EstimatedDuration: input.EstimatedDuration,
			AssignedToID:      input.AssignedToID,
			Priority:          input.Priority,
			CreatedByID:       actor.ID,
		}, s.clock.Now())
		if err != nil {
			return err
		}
		return tx.Schedules().Save(ctx, sched)
	})
	if err != nil {
		return domain.MaintenanceSchedule{}, err
	}
	s.log.WithFields(logrus.Fields{"schedule_id": id, "asset_id": input.AssetID, "actor_id": actor.ID}).
		Info("maintenance schedule created")
	return s.Get(ctx, id)
}

// Get returns a schedule by id
func (s *ScheduleService) Get(ctx context.Context, id string) (domain.MaintenanceSchedule, error) {
	return s.uow.Schedules().FindByID(ctx, id)
}

// ListByAsset returns the schedules of an asset
func (s *ScheduleService) ListByAsset(ctx context.Context, assetID string) ([]domain.MaintenanceSchedule, error) {
	return s.uow.Schedules().FindByAssetID(ctx, assetID)
}

// ListDue returns the schedules due now
func (s *ScheduleService) ListDue(ctx context.Context) ([]domain.MaintenanceSchedule, error) {
	return s.uow.Schedules().FindDueSchedules(ctx, s.clock.Now())
}

// Update edits a schedule. A new trigger replaces the old one entirely.
func (s *ScheduleService) Update(ctx context.Context, actor domain.Actor, id string, input domain.ScheduleUpdate) (domain.MaintenanceSchedule, error) {
	return s.mutate(ctx, actor, policy.ActionManageSchedule, id, func(ctx context.Context, tx ports.Repositories, sched domain.MaintenanceSchedule, now time.Time) (domain.MaintenanceSchedule, error) {
		if input.AssignedToID != nil {
			if err := s.checkTechnician(ctx, tx, *input.AssignedToID); err != nil {
				return sched, err
			}
		}
		return sched.Update(input, now)
	})
}

// SetActive enables or disables a schedule
func (s *ScheduleService) SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (domain.MaintenanceSchedule, error) {
	return s.mutate(ctx, actor, policy.ActionManageSchedule, id, func(_ context.Context, _ ports.Repositories, sched domain.MaintenanceSchedule, now time.Time) (domain.MaintenanceSchedule, error) {
		return sched.SetActive(active, now), nil
	})
}

// RecordReading stores a new counter value on a threshold schedule
func (s *ScheduleService) RecordReading(ctx context.Context, actor domain.Actor, id string, value float64) (domain.MaintenanceSchedule, error) {
	return s.mutate(ctx, actor, policy.ActionRecordReading, id, func(_ context.Context, _ ports.Repositories, sched domain.MaintenanceSchedule, now time.Time) (domain.MaintenanceSchedule, error) {
		return sched.UpdateCurrentValue(value, now)
	})
}

type scheduleFunc func(ctx context.Context, tx ports.Repositories, sched domain.MaintenanceSchedule, now time.Time) (domain.MaintenanceSchedule, error)

func (s *ScheduleService) mutate(ctx context.Context, actor domain.Actor, action policy.Action, id string, fn scheduleFunc) (domain.MaintenanceSchedule, error) {
	if err := policy.Authorize(actor, action); err != nil {
		return domain.MaintenanceSchedule{}, err
	}
	err := s.tx(ctx, string(action), func(ctx context.Context, tx ports.Repositories) error {
		sched, err := tx.Schedules().FindByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := fn(ctx, tx, sched, s.clock.Now())
		if err != nil {
			return fmt.Errorf("schedule %s: %w", id, err)
		}
		return tx.Schedules().Update(ctx, next)
	})
	if err != nil {
		return domain.MaintenanceSchedule{}, err
	}
	s.log.WithFields(logrus.Fields{"schedule_id": id, "actor_id": actor.ID, "action": action}).Debug("schedule changed")
	return s.Get(ctx, id)
}

// Execution is the outcome of one schedule execution
type Execution struct {
	Schedule  domain.MaintenanceSchedule
	WorkOrder *domain.WorkOrder
}

// Execute generates the work order of a due schedule and marks the schedule
// executed. Both are persisted in one transaction.
func (s *ScheduleService) Execute(ctx context.Context, actor domain.Actor, id string) (*Execution, error) {
	if err := policy.Authorize(actor, policy.ActionExecuteSchedule); err != nil {
		return nil, err
	}

	var wo *domain.WorkOrder
	err := s.tx(ctx, "execute_schedule", func(ctx context.Context, tx ports.Repositories) error {
		sched, err := tx.Schedules().FindByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if !sched.IsDue(now) {
			return fmt.Errorf("%w: schedule %s is not due", domain.ErrInvalidState, id)
		}

		scheduledAt := now
		if due, ok := sched.NextDueDate(); ok {
			scheduledAt = due
		}
		scheduleID := sched.ID
		wo, err = domain.NewWorkOrder(domain.NewWorkOrderParams{
			ID:                s.newID(),
			Title:             sched.Title,
			Description:       sched.Description,
			Priority:          sched.Priority,
			Type:              sched.MaintenanceType,
			AssetID:           sched.AssetID,
			AssignedToID:      sched.AssignedToID,
			ScheduleID:        &scheduleID,
			ScheduledAt:       &scheduledAt,
			EstimatedDuration: sched.EstimatedDuration,
			CreatedByID:       actor.ID,
		}, now)
		if err != nil {
			return fmt.Errorf("schedule %s: %w", id, err)
		}
		if err := tx.WorkOrders().Save(ctx, wo); err != nil {
			return err
		}
		if err := s.record(ctx, tx, wo, domain.EventCreate, "", actor, "generated by schedule "+sched.ID, nil); err != nil {
			return err
		}
		return tx.Schedules().Update(ctx, sched.MarkAsExecuted(now))
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidState):
			s.metrics.ScheduleExecuted("not_due")
		default:
			s.metrics.ScheduleExecuted("error")
		}
		return nil, err
	}

	s.metrics.ScheduleExecuted("ok")
	s.metrics.Transition(string(wo.Status))
	s.log.WithFields(logrus.Fields{
		"schedule_id":   id,
		"work_order_id": wo.ID,
		"actor_id":      actor.ID,
		"type":          wo.Type,
	}).Info("maintenance schedule executed")

	sched, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Execution{Schedule: sched, WorkOrder: wo}, nil
}

// ExecutionFailure records a schedule that could not be executed
type ExecutionFailure struct {
	ScheduleID string
	Err        error
}

// ExecutionReport summarises a run over all due schedules
type ExecutionReport struct {
	Executed []*Execution
	Skipped  []string
	Failed   []ExecutionFailure
}

// ExecuteDue executes every schedule due now as the system actor. A failure
// is recorded and the run continues with the next schedule.
func (s *ScheduleService) ExecuteDue(ctx context.Context) (*ExecutionReport, error) {
	due, err := s.ListDue(ctx)
	if err != nil {
		return nil, err
	}

	report := &ExecutionReport{}
	for _, sched := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		exec, err := s.Execute(ctx, domain.SystemActor, sched.ID)
		switch {
		case err == nil:
			report.Executed = append(report.Executed, exec)
		case errors.Is(err, domain.ErrInvalidState):
			// executed or deactivated since it was listed
			report.Skipped = append(report.Skipped, sched.ID)
		default:
			s.log.WithField("schedule_id", sched.ID).WithError(err).Error("schedule execution failed")
			report.Failed = append(report.Failed, ExecutionFailure{ScheduleID: sched.ID, Err: err})
		}
	}

	s.log.WithFields(logrus.Fields{
		"due":      len(due),
		"executed": len(report.Executed),
		"skipped":  len(report.Skipped),
		"failed":   len(report.Failed),
	}).Info("due schedules processed")
	return report, nil
}

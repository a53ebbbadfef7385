package services

import (
	"testing"
	"time"

	"cmms-engine/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (fx *fixture) engineHoursSchedule(t *testing.T, current float64) domain.MaintenanceSchedule {
	t.Helper()
	sched, err := fx.schedules.Create(ctxBG, manager, CreateScheduleInput{
		AssetID:           "asset-1",
		Title:             "Engine service every 500h",
		MaintenanceType:   domain.TypePredictive,
		Trigger:           domain.ThresholdTrigger{Metric: "engine hours", Threshold: 500, Unit: "h", CurrentValue: current},
		EstimatedDuration: 120,
		AssignedToID:      strPtr("tech-1"),
		Priority:          domain.PriorityHigh,
	})
	require.NoError(t, err)
	return sched
}

func TestThresholdSchedule_EndToEnd(t *testing.T) {
	fx := newFixture(t)
	sched := fx.engineHoursSchedule(t, 480)
	assert.False(t, sched.IsDue(fx.clock.Now()))
	assert.Equal(t, 96, sched.ThresholdProgress())

	due, err := fx.schedules.ListDue(ctxBG)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = fx.schedules.Execute(ctxBG, manager, sched.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	sched, err = fx.schedules.RecordReading(ctxBG, technician, sched.ID, 500)
	require.NoError(t, err)
	assert.True(t, sched.IsDue(fx.clock.Now()))

	exec, err := fx.schedules.Execute(ctxBG, manager, sched.ID)
	require.NoError(t, err)

	wo := exec.WorkOrder
	assert.Equal(t, domain.TypePredictive, wo.Type)
	assert.Equal(t, domain.StatusPlanned, wo.Status)
	assert.Equal(t, domain.PriorityHigh, wo.Priority)
	assert.Equal(t, "asset-1", wo.AssetID)
	assert.True(t, wo.IsAssignedTo("tech-1"))
	assert.Equal(t, 120, wo.EstimatedDuration)
	require.NotNil(t, wo.ScheduleID)
	assert.Equal(t, sched.ID, *wo.ScheduleID)

	trigger, ok := exec.Schedule.Trigger.(domain.ThresholdTrigger)
	require.True(t, ok)
	assert.Zero(t, trigger.CurrentValue)
	assert.False(t, exec.Schedule.IsDue(fx.clock.Now()))
	require.NotNil(t, exec.Schedule.LastExecutedAt)
	assert.Equal(t, fx.clock.Now(), *exec.Schedule.LastExecutedAt)

	stored, err := fx.orders.Get(ctxBG, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, wo.ID, stored.ID)
}

func TestTimeSchedule_ExecuteDueClampsMonthEnd(t *testing.T) {
	fx := newFixture(t)
	jan31 := time.Date(2025, 1, 31, 6, 0, 0, 0, time.UTC)
	fx.clock.Set(jan31.AddDate(0, 0, -10))

	sched, err := fx.schedules.Create(ctxBG, manager, CreateScheduleInput{
		AssetID:         "asset-1",
		Title:           "Monthly belt inspection",
		MaintenanceType: domain.TypePreventive,
		Trigger:         domain.TimeTrigger{Frequency: domain.FrequencyMonthly, Interval: 1, NextDueDate: jan31},
	})
	require.NoError(t, err)

	report, err := fx.schedules.ExecuteDue(ctxBG)
	require.NoError(t, err)
	assert.Empty(t, report.Executed)

	fx.clock.Set(jan31)
	report, err = fx.schedules.ExecuteDue(ctxBG)
	require.NoError(t, err)
	require.Len(t, report.Executed, 1)
	assert.Empty(t, report.Failed)

	exec := report.Executed[0]
	assert.Equal(t, domain.TypePreventive, exec.WorkOrder.Type)
	assert.Equal(t, domain.SystemActor.ID, exec.WorkOrder.CreatedByID)
	assert.Equal(t, jan31, *exec.WorkOrder.ScheduledAt)

	next, ok := exec.Schedule.NextDueDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 28, 6, 0, 0, 0, time.UTC), next)
	assert.Equal(t, jan31, *exec.Schedule.LastExecutedAt)

	report, err = fx.schedules.ExecuteDue(ctxBG)
	require.NoError(t, err)
	assert.Empty(t, report.Executed)

	orders, err := fx.orders.ListByAsset(ctxBG, "asset-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, sched.ID, *orders[0].ScheduleID)
}

func TestExecuteDue_SkipsInactive(t *testing.T) {
	fx := newFixture(t)
	sched := fx.engineHoursSchedule(t, 600)

	sched, err := fx.schedules.SetActive(ctxBG, manager, sched.ID, false)
	require.NoError(t, err)
	assert.False(t, sched.IsActive)

	report, err := fx.schedules.ExecuteDue(ctxBG)
	require.NoError(t, err)
	assert.Empty(t, report.Executed)

	_, err = fx.schedules.SetActive(ctxBG, manager, sched.ID, true)
	require.NoError(t, err)
	report, err = fx.schedules.ExecuteDue(ctxBG)
	require.NoError(t, err)
	assert.Len(t, report.Executed, 1)
}

func TestSchedule_Guards(t *testing.T) {
	fx := newFixture(t)
	sched := fx.engineHoursSchedule(t, 0)

	_, err := fx.schedules.Create(ctxBG, technician, CreateScheduleInput{
		AssetID:         "asset-1",
		Title:           "Weekly grease run",
		MaintenanceType: domain.TypePreventive,
		Trigger:         domain.TimeTrigger{Frequency: domain.FrequencyWeekly, Interval: 1, NextDueDate: t0},
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = fx.schedules.Create(ctxBG, manager, CreateScheduleInput{
		AssetID:         "asset-404",
		Title:           "Weekly grease run",
		MaintenanceType: domain.TypePreventive,
		Trigger:         domain.TimeTrigger{Frequency: domain.FrequencyWeekly, Interval: 1, NextDueDate: t0},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = fx.schedules.Create(ctxBG, manager, CreateScheduleInput{
		AssetID:         "asset-1",
		Title:           "Weekly grease run",
		MaintenanceType: domain.TypeCorrective,
		Trigger:         domain.TimeTrigger{Frequency: domain.FrequencyWeekly, Interval: 1, NextDueDate: t0},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = fx.schedules.RecordReading(ctxBG, technician, sched.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = fx.schedules.RecordReading(ctxBG, requester, sched.ID, 10)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = fx.schedules.Execute(ctxBG, technician, sched.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = fx.schedules.Execute(ctxBG, manager, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	short := "abc"
	_, err = fx.schedules.Update(ctxBG, manager, sched.ID, domain.ScheduleUpdate{Title: &short})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSchedule_RecordReadingOnTimeBased(t *testing.T) {
	fx := newFixture(t)
	sched, err := fx.schedules.Create(ctxBG, manager, CreateScheduleInput{
		AssetID:         "asset-1",
		Title:           "Quarterly HVAC check",
		MaintenanceType: domain.TypePreventive,
		Trigger:         domain.TimeTrigger{Frequency: domain.FrequencyQuarterly, Interval: 1, NextDueDate: t0.AddDate(0, 1, 0)},
	})
	require.NoError(t, err)

	_, err = fx.schedules.RecordReading(ctxBG, domain.SystemActor, sched.ID, 42)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSchedule_UpdateReplacesTrigger(t *testing.T) {
	fx := newFixture(t)
	sched := fx.engineHoursSchedule(t, 100)

	title := "Engine service on calendar"
	updated, err := fx.schedules.Update(ctxBG, manager, sched.ID, domain.ScheduleUpdate{
		Title:   &title,
		Trigger: domain.TimeTrigger{Frequency: domain.FrequencyYearly, Interval: 1, NextDueDate: t0},
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, domain.TriggerTimeBased, updated.TriggerType())
	assert.Zero(t, updated.ThresholdProgress())
	assert.True(t, updated.IsDue(t0))

	list, err := fx.schedules.ListByAsset(ctxBG, "asset-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, updated.Version, list[0].Version)
}

func TestSchedule_PointerTriggerExecutesOnce(t *testing.T) {
	fx := newFixture(t)
	sched, err := fx.schedules.Create(ctxBG, manager, CreateScheduleInput{
		AssetID:         "asset-1",
		Title:           "Compressor service every 200 cycles",
		MaintenanceType: domain.TypePredictive,
		Trigger:         &domain.ThresholdTrigger{Metric: "cycles", Threshold: 200, CurrentValue: 250},
	})
	require.NoError(t, err)
	assert.True(t, sched.IsDue(fx.clock.Now()))

	exec, err := fx.schedules.Execute(ctxBG, manager, sched.ID)
	require.NoError(t, err)
	assert.False(t, exec.Schedule.IsDue(fx.clock.Now()))

	_, err = fx.schedules.Execute(ctxBG, manager, sched.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	report, err := fx.schedules.ExecuteDue(ctxBG)
	require.NoError(t, err)
	assert.Empty(t, report.Executed)

	orders, err := fx.orders.ListByAsset(ctxBG, "asset-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

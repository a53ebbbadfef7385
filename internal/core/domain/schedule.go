package domain

import (
	"math"
	"strings"
	"time"
)

// TriggerType names the discipline deciding when a schedule is due
type TriggerType string

const (
	TriggerTimeBased      TriggerType = "TIME_BASED"
	TriggerThresholdBased TriggerType = "THRESHOLD_BASED"
)

// Frequency is the calendar unit of a time-based schedule
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// Trigger is either a TimeTrigger or a ThresholdTrigger. A schedule carries
// exactly one, so the fields of the other discipline do not exist.
type Trigger interface {
	Type() TriggerType
	validate() error
	isDue(now time.Time) bool
}

// normalizeTrigger stores triggers by value so that execution and readings
// always update the schedule's own copy, then validates them.
func normalizeTrigger(t Trigger) (Trigger, error) {
	switch v := t.(type) {
	case nil:
		return nil, validationf("a trigger is required")
	case *TimeTrigger:
		if v == nil {
			return nil, validationf("a trigger is required")
		}
		t = *v
	case *ThresholdTrigger:
		if v == nil {
			return nil, validationf("a trigger is required")
		}
		t = *v
	case TimeTrigger, ThresholdTrigger:
	default:
		return nil, validationf("unsupported trigger type %q", t.Type())
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// TimeTrigger fires on a calendar cadence.
type TimeTrigger struct {
	Frequency   Frequency
	Interval    int
	NextDueDate time.Time
}

// Type implements Trigger.
func (TimeTrigger) Type() TriggerType { return TriggerTimeBased }

func (t TimeTrigger) validate() error {
	switch t.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
	default:
		return validationf("unknown frequency %q", t.Frequency)
	}
	if t.Interval < 1 {
		return validationf("interval must be at least 1, got %d", t.Interval)
	}
	if t.NextDueDate.IsZero() {
		return validationf("time-based schedules need a next due date")
	}
	return nil
}

func (t TimeTrigger) isDue(now time.Time) bool {
	return !now.Before(t.NextDueDate)
}

// ThresholdTrigger fires when a usage counter reaches its limit.
type ThresholdTrigger struct {
	Metric       string
	Threshold    float64
	Unit         string
	CurrentValue float64
}

// Type implements Trigger.
func (ThresholdTrigger) Type() TriggerType { return TriggerThresholdBased }

func (t ThresholdTrigger) validate() error {
	if strings.TrimSpace(t.Metric) == "" {
		return validationf("threshold-based schedules need a metric")
	}
	if t.Threshold <= 0 {
		return validationf("threshold must be positive, got %v", t.Threshold)
	}
	if t.CurrentValue < 0 {
		return validationf("current value cannot be negative")
	}
	return nil
}

func (t ThresholdTrigger) isDue(time.Time) bool {
	return t.CurrentValue >= t.Threshold
}

// MaintenanceSchedule is a recurring or threshold-triggered maintenance
// definition. It is a value: every mutator returns a new schedule.
type MaintenanceSchedule struct {
	ID                string
	AssetID           string
	Title             string
	Description       string
	MaintenanceType   MaintenanceType
	Trigger           Trigger
	LastExecutedAt    *time.Time
	EstimatedDuration int // minutes
	AssignedToID      *string
	IsActive          bool
	Priority          Priority
	CreatedByID       string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewScheduleParams holds the inputs of NewMaintenanceSchedule
type NewScheduleParams struct {
	ID                string
	AssetID           string
	Title             string
	Description       string
	MaintenanceType   MaintenanceType
	Trigger           Trigger
	EstimatedDuration int
	AssignedToID      *string
	Priority          Priority
	CreatedByID       string
}

// NewMaintenanceSchedule creates a validated, active schedule.
func NewMaintenanceSchedule(p NewScheduleParams, now time.Time) (MaintenanceSchedule, error) {
	if err := validateTitle(p.Title); err != nil {
		return MaintenanceSchedule{}, err
	}
	if strings.TrimSpace(p.AssetID) == "" {
		return MaintenanceSchedule{}, validationf("asset id is required")
	}
	if p.MaintenanceType != TypePreventive && p.MaintenanceType != TypePredictive {
		return MaintenanceSchedule{}, validationf("schedules generate PREVENTIVE or PREDICTIVE work, got %q", p.MaintenanceType)
	}
	trigger, err := normalizeTrigger(p.Trigger)
	if err != nil {
		return MaintenanceSchedule{}, err
	}
	if p.EstimatedDuration < 0 {
		return MaintenanceSchedule{}, validationf("estimated duration cannot be negative")
	}
	priority, err := ParsePriority(string(p.Priority))
	if err != nil {
		return MaintenanceSchedule{}, err
	}
	return MaintenanceSchedule{
		ID:                p.ID,
		AssetID:           p.AssetID,
		Title:             strings.TrimSpace(p.Title),
		Description:       p.Description,
		MaintenanceType:   p.MaintenanceType,
		Trigger:           trigger,
		EstimatedDuration: p.EstimatedDuration,
		AssignedToID:      p.AssignedToID,
		IsActive:          true,
		Priority:          priority,
		CreatedByID:       p.CreatedByID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// TriggerType returns the discipline of the schedule.
func (s MaintenanceSchedule) TriggerType() TriggerType {
	if s.Trigger == nil {
		return ""
	}
	return s.Trigger.Type()
}

// IsDue evaluates only the schedule's own discipline.
func (s MaintenanceSchedule) IsDue(now time.Time) bool {
	if !s.IsActive || s.Trigger == nil {
		return false
	}
	return s.Trigger.isDue(now)
}

// NextDueDate returns the next due date of a time-based schedule.
func (s MaintenanceSchedule) NextDueDate() (time.Time, bool) {
	t, ok := s.Trigger.(TimeTrigger)
	if !ok {
		return time.Time{}, false
	}
	return t.NextDueDate, true
}

// CalculateNextDueDate adds the interval to the later of the last execution
// and the current due date. Month and year steps clamp to the end of the
// target month.
func (s MaintenanceSchedule) CalculateNextDueDate() (time.Time, error) {
	t, ok := s.Trigger.(TimeTrigger)
	if !ok {
		return time.Time{}, invalidStatef("schedule %s is not time-based", s.ID)
	}
	base := t.NextDueDate
	if s.LastExecutedAt != nil && s.LastExecutedAt.After(base) {
		base = *s.LastExecutedAt
	}
	return addCalendar(base, t.Frequency, t.Interval), nil
}

// ThresholdProgress is the percentage of the threshold reached, capped at
// 100. Time-based schedules report 0.
func (s MaintenanceSchedule) ThresholdProgress() int {
	t, ok := s.Trigger.(ThresholdTrigger)
	if !ok || t.Threshold <= 0 {
		return 0
	}
	progress := int(math.Round(t.CurrentValue / t.Threshold * 100))
	if progress > 100 {
		return 100
	}
	return progress
}

// MarkAsExecuted resets the discipline's own progress.
func (s MaintenanceSchedule) MarkAsExecuted(executedAt time.Time) MaintenanceSchedule {
	next := s
	next.LastExecutedAt = timePtr(executedAt)
	next.UpdatedAt = executedAt
	switch t := s.Trigger.(type) {
	case TimeTrigger:
		due, _ := next.CalculateNextDueDate()
		t.NextDueDate = due
		next.Trigger = t
	case ThresholdTrigger:
		t.CurrentValue = 0
		next.Trigger = t
	}
	return next
}

// UpdateCurrentValue records a new counter reading on a threshold schedule.
func (s MaintenanceSchedule) UpdateCurrentValue(value float64, now time.Time) (MaintenanceSchedule, error) {
	t, ok := s.Trigger.(ThresholdTrigger)
	if !ok {
		return s, invalidStatef("schedule %s is not threshold-based", s.ID)
	}
	if value < 0 {
		return s, validationf("current value cannot be negative")
	}
	t.CurrentValue = value
	next := s
	next.Trigger = t
	next.UpdatedAt = now
	return next, nil
}

// ScheduleUpdate carries a partial update. Nil fields are left untouched; a
// non-nil Trigger replaces the whole discipline.
type ScheduleUpdate struct {
	Title             *string
	Description       *string
	Priority          *Priority
	EstimatedDuration *int
	AssignedToID      *string
	Trigger           Trigger
}

// Update returns a copy with the given fields replaced.
func (s MaintenanceSchedule) Update(u ScheduleUpdate, now time.Time) (MaintenanceSchedule, error) {
	next := s
	if u.Title != nil {
		if err := validateTitle(*u.Title); err != nil {
			return s, err
		}
		next.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	if u.Priority != nil {
		p, err := ParsePriority(string(*u.Priority))
		if err != nil {
			return s, err
		}
		next.Priority = p
	}
	if u.EstimatedDuration != nil {
		if *u.EstimatedDuration < 0 {
			return s, validationf("estimated duration cannot be negative")
		}
		next.EstimatedDuration = *u.EstimatedDuration
	}
	if u.AssignedToID != nil {
		next.AssignedToID = stringPtr(*u.AssignedToID)
	}
	if u.Trigger != nil {
		trigger, err := normalizeTrigger(u.Trigger)
		if err != nil {
			return s, err
		}
		next.Trigger = trigger
	}
	next.UpdatedAt = now
	return next, nil
}

// SetActive returns a copy with the active flag replaced.
func (s MaintenanceSchedule) SetActive(active bool, now time.Time) MaintenanceSchedule {
	next := s
	next.IsActive = active
	next.UpdatedAt = now
	return next
}

func addCalendar(t time.Time, f Frequency, n int) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, n)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7*n)
	case FrequencyMonthly:
		return addMonths(t, n)
	case FrequencyQuarterly:
		return addMonths(t, 3*n)
	case FrequencyYearly:
		return addMonths(t, 12*n)
	}
	return t
}

// addMonths keeps the day of month when it exists in the target month and
// otherwise lands on that month's last day.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	first := time.Date(year, month+time.Month(n), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

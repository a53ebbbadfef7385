package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, mutate func(*NewWorkOrderParams)) *WorkOrder {
	t.Helper()
	p := NewWorkOrderParams{
		ID:          "wo-1",
		Title:       "Replace conveyor belt",
		Priority:    PriorityHigh,
		Type:        TypeCorrective,
		AssetID:     "asset-1",
		CreatedByID: "mgr-1",
	}
	if mutate != nil {
		mutate(&p)
	}
	wo, err := NewWorkOrder(p, t0)
	require.NoError(t, err)
	return wo
}

func TestNewWorkOrder_InitialStatus(t *testing.T) {
	assert.Equal(t, StatusPlanned, newOrder(t, nil).Status)
	assert.Equal(t, StatusPending, newOrder(t, func(p *NewWorkOrderParams) { p.RequiresApproval = true }).Status)
	assert.Equal(t, StatusDraft, newOrder(t, func(p *NewWorkOrderParams) {
		p.Draft = true
		p.RequiresApproval = true
	}).Status)
}

func TestNewWorkOrder_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*NewWorkOrderParams)
	}{
		{"short title", func(p *NewWorkOrderParams) { p.Title = "Fix" }},
		{"blank padded title", func(p *NewWorkOrderParams) { p.Title = "  ab  " }},
		{"missing asset", func(p *NewWorkOrderParams) { p.AssetID = "" }},
		{"unknown type", func(p *NewWorkOrderParams) { p.Type = "ROUTINE" }},
		{"unknown priority", func(p *NewWorkOrderParams) { p.Priority = "CRITICAL" }},
		{"negative estimate", func(p *NewWorkOrderParams) { p.EstimatedCost = decimal.NewFromInt(-1) }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewWorkOrderParams{Title: "Replace conveyor belt", Type: TypeCorrective, AssetID: "asset-1"}
			tc.mutate(&p)
			_, err := NewWorkOrder(p, t0)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestWorkOrder_StartThenComplete(t *testing.T) {
	wo := newOrder(t, nil)

	require.NoError(t, wo.StartWork(t0))
	assert.Equal(t, StatusInProgress, wo.Status)

	require.NoError(t, wo.CompleteByTechnician(95, t0.Add(2*time.Hour)))
	assert.Equal(t, StatusCompleted, wo.Status)
	assert.Equal(t, 95, wo.ActualDuration)
	require.NotNil(t, wo.CompletedAt)
	assert.False(t, wo.CompletedAt.Before(*wo.StartedAt))
	assert.True(t, wo.TotalCost.IsZero(), "completion must not set costs")
}

func TestWorkOrder_CompletedAtNeverBeforeStartedAt(t *testing.T) {
	wo := newOrder(t, nil)
	require.NoError(t, wo.StartWork(t0))
	require.NoError(t, wo.CompleteByTechnician(0, t0.Add(-time.Minute)))
	assert.Equal(t, *wo.StartedAt, *wo.CompletedAt)
}

func TestWorkOrder_CompleteRequiresInProgress(t *testing.T) {
	for _, mutate := range []func(*NewWorkOrderParams){
		nil,
		func(p *NewWorkOrderParams) { p.Draft = true },
		func(p *NewWorkOrderParams) { p.RequiresApproval = true },
	} {
		wo := newOrder(t, mutate)
		err := wo.CompleteByTechnician(10, t0)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Contains(t, err.Error(), "must be in progress")
	}
}

func TestWorkOrder_StartGuards(t *testing.T) {
	pending := newOrder(t, func(p *NewWorkOrderParams) { p.RequiresApproval = true })
	assert.ErrorIs(t, pending.StartWork(t0), ErrInvalidState)

	draft := newOrder(t, func(p *NewWorkOrderParams) { p.Draft = true })
	assert.NoError(t, draft.StartWork(t0))
	assert.ErrorIs(t, draft.StartWork(t0), ErrInvalidState)

	gated := newOrder(t, func(p *NewWorkOrderParams) {
		p.Draft = true
		p.RequiresApproval = true
	})
	err := gated.StartWork(t0)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "must be submitted for approval")
	assert.Equal(t, StatusDraft, gated.Status)
	assert.Nil(t, gated.StartedAt)
	require.NoError(t, gated.Submit(t0))
	assert.ErrorIs(t, gated.StartWork(t0), ErrInvalidState)
	require.NoError(t, gated.Approve("mgr", t0))
	assert.NoError(t, gated.StartWork(t0))

	cancelled := newOrder(t, nil)
	require.NoError(t, cancelled.Cancel("duplicate", t0))
	assert.ErrorIs(t, cancelled.StartWork(t0), ErrInvalidState)
}

func TestWorkOrder_ValidateByManager(t *testing.T) {
	wo := newOrder(t, nil)
	assert.ErrorIs(t, wo.ValidateByManager("mgr", decimal.Zero, decimal.Zero, t0), ErrInvalidState)

	require.NoError(t, wo.StartWork(t0))
	require.NoError(t, wo.CompleteByTechnician(60, t0.Add(time.Hour)))

	err := wo.ValidateByManager("mgr", decimal.NewFromInt(-1), decimal.Zero, t0)
	assert.ErrorIs(t, err, ErrValidation)
	err = wo.ValidateByManager("mgr", decimal.Zero, decimal.NewFromInt(-5), t0)
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, wo.IsValidated())
	assert.Nil(t, wo.ApprovedByID)

	require.NoError(t, wo.ValidateByManager("mgr", decimal.NewFromInt(150), decimal.NewFromInt(50), t0.Add(2*time.Hour)))
	assert.True(t, wo.TotalCost.Equal(decimal.NewFromInt(200)))
	assert.True(t, wo.TotalCost.Equal(wo.LaborCost.Add(wo.MaterialCost)))
	assert.Equal(t, "mgr", *wo.ValidatedByID)
	require.NotNil(t, wo.ApprovedByID)
	assert.Equal(t, "mgr", *wo.ApprovedByID)
	require.NotNil(t, wo.ApprovedAt)
	assert.Equal(t, t0.Add(2*time.Hour), *wo.ApprovedAt)
	assert.Equal(t, StatusCompleted, wo.Status)

	err = wo.ValidateByManager("mgr", decimal.NewFromInt(150), decimal.NewFromInt(50), t0)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestWorkOrder_ApproveReject(t *testing.T) {
	wo := newOrder(t, func(p *NewWorkOrderParams) { p.RequiresApproval = true })
	require.NoError(t, wo.Approve("mgr", t0))
	assert.Equal(t, StatusPlanned, wo.Status)
	assert.Nil(t, wo.ApprovedByID)
	assert.Nil(t, wo.ApprovedAt)
	assert.ErrorIs(t, wo.Approve("mgr", t0), ErrInvalidState)

	rejected := newOrder(t, func(p *NewWorkOrderParams) { p.RequiresApproval = true })
	assert.ErrorIs(t, rejected.Reject("mgr", "   ", t0), ErrValidation)
	require.NoError(t, rejected.Reject("mgr", "over budget", t0))
	assert.Equal(t, StatusCancelled, rejected.Status)
	assert.Equal(t, "over budget", rejected.RejectionReason)
	assert.Nil(t, rejected.ApprovedByID)
}

func TestWorkOrder_CancelTwiceFails(t *testing.T) {
	wo := newOrder(t, nil)
	require.NoError(t, wo.Cancel("no longer needed", t0))
	assert.ErrorIs(t, wo.Cancel("again", t0), ErrInvalidState)

	done := newOrder(t, nil)
	require.NoError(t, done.StartWork(t0))
	require.NoError(t, done.CompleteByTechnician(1, t0))
	assert.ErrorIs(t, done.Cancel("late", t0), ErrInvalidState)
}

func TestWorkOrder_Update(t *testing.T) {
	wo := newOrder(t, nil)
	short := "Oil"
	assert.ErrorIs(t, wo.Update(WorkOrderUpdate{Title: &short}, t0), ErrValidation)

	title := "Replace conveyor belt and rollers"
	desc := "bring the long ladder"
	require.NoError(t, wo.Update(WorkOrderUpdate{Title: &title, Description: &desc}, t0))
	assert.Equal(t, title, wo.Title)
	assert.Equal(t, desc, wo.Description)
	assert.Equal(t, PriorityHigh, wo.Priority, "nil fields are ignored")

	require.NoError(t, wo.StartWork(t0))
	assert.ErrorIs(t, wo.Update(WorkOrderUpdate{Title: &title}, t0), ErrInvalidState)
	note := "belt shipped"
	assert.NoError(t, wo.Update(WorkOrderUpdate{Description: &note}, t0))

	require.NoError(t, wo.CompleteByTechnician(1, t0))
	assert.ErrorIs(t, wo.Update(WorkOrderUpdate{Description: &note}, t0), ErrInvalidState)
}

func TestWorkOrder_Submit(t *testing.T) {
	wo := newOrder(t, func(p *NewWorkOrderParams) {
		p.Draft = true
		p.RequiresApproval = true
	})
	require.NoError(t, wo.Submit(t0))
	assert.Equal(t, StatusPending, wo.Status)
	assert.ErrorIs(t, wo.Submit(t0), ErrInvalidState)
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{
		"":       PriorityMedium,
		"low":    PriorityLow,
		"HIGH":   PriorityHigh,
		"urgent": PriorityUrgent,
	} {
		got, err := ParsePriority(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePriority("critical")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestWorkOrder_MoneyRoundedToCents(t *testing.T) {
	wo := newOrder(t, func(p *NewWorkOrderParams) { p.EstimatedCost = decimal.RequireFromString("99.995") })
	assert.Equal(t, "100", wo.EstimatedCost.String())

	require.NoError(t, wo.StartWork(t0))
	require.NoError(t, wo.CompleteByTechnician(30, t0))
	require.NoError(t, wo.ValidateByManager("mgr",
		decimal.RequireFromString("150.555"), decimal.RequireFromString("10.004"), t0))
	assert.Equal(t, "150.56", wo.LaborCost.String())
	assert.Equal(t, "10", wo.MaterialCost.String())
	assert.Equal(t, "160.56", wo.TotalCost.String())

	part, err := NewWorkOrderPart("wop-1", wo.ID, "part-1", 3, decimal.RequireFromString("12.345"), t0)
	require.NoError(t, err)
	assert.Equal(t, "12.35", part.UnitPrice.String())
	assert.Equal(t, "37.05", part.EstimatedPrice().String())
}

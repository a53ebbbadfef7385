package services

import (
	"sync"
	"testing"

	"cmms-engine/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_ChecksStock(t *testing.T) {
	fx := newFixture(t)
	wo := fx.plannedOrder(t, PartLine{PartID: "part-2", Quantity: 8})
	parts, err := fx.parts.ListByWorkOrder(ctxBG, wo.ID)
	require.NoError(t, err)

	_, err = fx.parts.Reserve(ctxBG, stockMgr, parts[0].ID, 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, fx.onHand(t, "part-2"))

	_, err = fx.parts.Reserve(ctxBG, stockMgr, parts[0].ID, 9)
	assert.ErrorIs(t, err, domain.ErrValidation, "more than planned")

	_, err = fx.parts.Reserve(ctxBG, technician, parts[0].ID, 1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	reserved, err := fx.parts.Reserve(ctxBG, stockMgr, parts[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.PartReserved, reserved.Status)
	assert.Equal(t, 5, reserved.QuantityReserved)
	assert.Equal(t, "stock-1", *reserved.ReservedByID)
	assert.Zero(t, fx.onHand(t, "part-2"))

	released, err := fx.parts.Release(ctxBG, stockMgr, parts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PartPlanned, released.Status)
	assert.Equal(t, 5, fx.onHand(t, "part-2"))
}

func TestReserve_ConcurrentRequestsCannotOverbook(t *testing.T) {
	fx := newFixture(t)
	first := fx.plannedOrder(t, PartLine{PartID: "part-2", Quantity: 5})
	second := fx.plannedOrder(t, PartLine{PartID: "part-2", Quantity: 5})

	var ids []string
	for _, wo := range []*domain.WorkOrder{first, second} {
		parts, err := fx.parts.ListByWorkOrder(ctxBG, wo.ID)
		require.NoError(t, err)
		ids = append(ids, parts[0].ID)
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = fx.parts.Reserve(ctxBG, stockMgr, id, 5)
		}(i, id)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
			short++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Zero(t, fx.onHand(t, "part-2"))
}

func TestAddRemoveSwapPart(t *testing.T) {
	fx := newFixture(t)
	wo := fx.plannedOrder(t, PartLine{PartID: "part-1", Quantity: 2})

	added, err := fx.parts.AddPart(ctxBG, technician, wo.ID, PartLine{PartID: "part-2", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.PartPlanned, added.Status)

	current, err := fx.orders.Get(ctxBG, wo.ID)
	require.NoError(t, err)
	assert.True(t, current.EstimatedCost.Equal(dec(70)))

	_, err = fx.parts.AddPart(ctxBG, technician, wo.ID, PartLine{PartID: "part-2", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation, "duplicate part")

	_, err = fx.parts.Reserve(ctxBG, stockMgr, added.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, fx.onHand(t, "part-2"))

	require.NoError(t, fx.parts.RemovePart(ctxBG, technician, wo.ID, added.ID))
	assert.Equal(t, 5, fx.onHand(t, "part-2"))

	current, err = fx.orders.Get(ctxBG, wo.ID)
	require.NoError(t, err)
	assert.True(t, current.EstimatedCost.Equal(dec(20)))

	requests, err := fx.store.PartRequests().FindByWorkOrderID(ctxBG, wo.ID)
	require.NoError(t, err)
	statuses := map[string]domain.PartRequestStatus{}
	for _, r := range requests {
		statuses[r.PartID] = r.Status
	}
	assert.Equal(t, domain.PartRequestOpen, statuses["part-1"])
	assert.Equal(t, domain.PartRequestCancelled, statuses["part-2"])

	parts, err := fx.parts.ListByWorkOrder(ctxBG, wo.ID)
	require.NoError(t, err)
	require.Len(t, parts, 1)

	swapped, err := fx.parts.SwapPart(ctxBG, manager, wo.ID, parts[0].ID, PartLine{PartID: "part-2", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "part-2", swapped.PartID)

	parts, err = fx.parts.ListByWorkOrder(ctxBG, wo.ID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "part-2", parts[0].PartID)

	current, err = fx.orders.Get(ctxBG, wo.ID)
	require.NoError(t, err)
	assert.True(t, current.EstimatedCost.Equal(dec(25)))
}

func TestParts_ClosedWorkOrder(t *testing.T) {
	fx := newFixture(t)
	wo := fx.plannedOrder(t, PartLine{PartID: "part-1", Quantity: 1})
	parts, err := fx.parts.ListByWorkOrder(ctxBG, wo.ID)
	require.NoError(t, err)

	_, err = fx.orders.Start(ctxBG, technician, wo.ID)
	require.NoError(t, err)
	_, err = fx.orders.CompleteByTechnician(ctxBG, technician, wo.ID, CompleteInput{ActualDuration: 5})
	require.NoError(t, err)

	_, err = fx.parts.AddPart(ctxBG, manager, wo.ID, PartLine{PartID: "part-2", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	err = fx.parts.RemovePart(ctxBG, manager, wo.ID, parts[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = fx.parts.Reserve(ctxBG, stockMgr, parts[0].ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = fx.parts.Release(ctxBG, stockMgr, parts[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "consumed parts never go back")
}

func TestStockMovements_UnknownPart(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.parts.StockMovements(ctxBG, "part-x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

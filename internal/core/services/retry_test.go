package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/ports"
	"cmms-engine/internal/observability"
	"cmms-engine/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyUnitOfWork fails the first n transactions with a conflict.
type flakyUnitOfWork struct {
	ports.UnitOfWork
	failures int32
	calls    int32
}

func (f *flakyUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repositories) error) error {
	atomic.AddInt32(&f.calls, 1)
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return domain.Conflict("work order", "test")
	}
	return f.UnitOfWork.WithinTx(ctx, fn)
}

func TestRetryPolicy_Do(t *testing.T) {
	log := logger.Discard()

	t.Run("retries conflicts up to the limit", func(t *testing.T) {
		calls := 0
		err := RetryPolicy{MaxRetries: 2}.Do(ctxBG, "op", log, nil, func() error {
			calls++
			return domain.Conflict("part", "p1")
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("boom")
		err := RetryPolicy{MaxRetries: 5}.Do(ctxBG, "op", log, nil, func() error {
			calls++
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops waiting when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctxBG)
		cancel()
		calls := 0
		err := RetryPolicy{MaxRetries: 5, Backoff: time.Hour}.Do(ctx, "op", log, nil, func() error {
			calls++
			return domain.Conflict("part", "p1")
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, 1, calls)
	})
}

func TestValidateByManager_RetriesConflicts(t *testing.T) {
	fx := newFixture(t)
	wo := fx.plannedOrder(t, PartLine{PartID: "part-1", Quantity: 5})
	_, err := fx.orders.Start(ctxBG, technician, wo.ID)
	require.NoError(t, err)
	_, err = fx.orders.CompleteByTechnician(ctxBG, technician, wo.ID, CompleteInput{ActualDuration: 60})
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	opts := fx.opts
	opts.Metrics = metrics
	opts.Retry = RetryPolicy{MaxRetries: 2}

	flaky := &flakyUnitOfWork{UnitOfWork: fx.store, failures: 2}
	validated, err := NewWorkOrderService(flaky, opts).ValidateByManager(ctxBG, manager, wo.ID, ValidateInput{LaborCost: dec(150)})
	require.NoError(t, err)
	assert.True(t, validated.TotalCost.Equal(dec(200)))
	assert.Equal(t, int32(3), flaky.calls)
	expected := `
# HELP cmms_conflict_retries_total Units of work retried after a concurrency conflict.
# TYPE cmms_conflict_retries_total counter
cmms_conflict_retries_total{operation="work_order.validate"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "cmms_conflict_retries_total"))

	wo = fx.plannedOrder(t)
	exhausted := &flakyUnitOfWork{UnitOfWork: fx.store, failures: 10}
	_, err = NewWorkOrderService(exhausted, opts).Cancel(ctxBG, manager, wo.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int32(3), exhausted.calls)

	current, err := fx.orders.Get(ctxBG, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlanned, current.Status)
}

func TestStaleVersionIsConflict(t *testing.T) {
	fx := newFixture(t)
	wo := fx.plannedOrder(t)

	stale, err := fx.store.WorkOrders().FindByID(ctxBG, wo.ID)
	require.NoError(t, err)
	_, err = fx.orders.Start(ctxBG, technician, wo.ID)
	require.NoError(t, err)

	err = fx.store.WithinTx(ctxBG, func(ctx context.Context, tx ports.Repositories) error {
		return tx.WorkOrders().Update(ctx, stale)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.IsRetryable(err))
}

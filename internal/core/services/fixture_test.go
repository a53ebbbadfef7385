package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"cmms-engine/internal/adapters/persistence/memory"
	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/pkg/clock"
	"cmms-engine/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	t0         = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	manager    = domain.Actor{ID: "mgr-1", Role: domain.RoleManager}
	technician = domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}
	otherTech  = domain.Actor{ID: "tech-2", Role: domain.RoleTechnician}
	stockMgr   = domain.Actor{ID: "stock-1", Role: domain.RoleStockManager}
	requester  = domain.Actor{ID: "req-1", Role: domain.RoleRequester}
)

type fixture struct {
	store     *memory.Store
	clock     *clock.Fixed
	opts      Options
	orders    *WorkOrderService
	parts     *PartsService
	schedules *ScheduleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddAsset("asset-1")
	store.AddTechnician("tech-1")
	store.AddTechnician("tech-2")
	store.PutPart(domain.Part{ID: "part-1", SKU: "FLT-100", Name: "Oil filter", QuantityOnHand: 20, MinimumStock: 2, UnitPrice: decimal.NewFromInt(10)})
	store.PutPart(domain.Part{ID: "part-2", SKU: "BLT-200", Name: "V-belt", QuantityOnHand: 5, UnitPrice: decimal.NewFromInt(25)})

	var seq int64
	fx := &fixture{store: store, clock: clock.NewFixed(t0)}
	fx.opts = Options{
		Clock:  fx.clock,
		Logger: logger.Discard(),
		Retry:  RetryPolicy{MaxRetries: 3},
		NewID:  func() string { return fmt.Sprintf("id-%d", atomic.AddInt64(&seq, 1)) },
	}
	fx.orders = NewWorkOrderService(store, fx.opts)
	fx.parts = NewPartsService(store, fx.opts)
	fx.schedules = NewScheduleService(store, fx.opts)
	return fx
}

func (fx *fixture) onHand(t *testing.T, partID string) int {
	t.Helper()
	p, err := fx.store.Parts().FindByID(ctxBG, partID)
	require.NoError(t, err)
	return p.QuantityOnHand
}

func strPtr(s string) *string { return &s }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

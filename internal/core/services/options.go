package services

import (
	"context"
	"time"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/ports"
	"cmms-engine/internal/observability"
	"cmms-engine/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultApprovalThreshold is the estimated cost above which work created by
// a non-supervisor needs approval.
var DefaultApprovalThreshold = decimal.NewFromInt(1000)

// Options carries the collaborators shared by the workflow services. Zero
// values are replaced with defaults.
type Options struct {
	Clock             clock.Clock
	Logger            logrus.FieldLogger
	Metrics           *observability.Metrics
	Retry             RetryPolicy
	ApprovalThreshold *decimal.Decimal
	NewID             func() string
}

type base struct {
	uow               ports.UnitOfWork
	clock             clock.Clock
	log               logrus.FieldLogger
	metrics           *observability.Metrics
	retry             RetryPolicy
	approvalThreshold decimal.Decimal
	newID             func() string
}

func newBase(uow ports.UnitOfWork, opts Options) base {
	b := base{
		uow:               uow,
		clock:             opts.Clock,
		log:               opts.Logger,
		metrics:           opts.Metrics,
		retry:             opts.Retry,
		approvalThreshold: DefaultApprovalThreshold,
		newID:             opts.NewID,
	}
	if b.retry == (RetryPolicy{}) {
		b.retry = DefaultRetryPolicy
	}
	if b.clock == nil {
		b.clock = clock.System{}
	}
	if b.log == nil {
		b.log = logrus.StandardLogger()
	}
	if opts.ApprovalThreshold != nil {
		b.approvalThreshold = *opts.ApprovalThreshold
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	return b
}

// tx runs fn in one transaction, retrying the whole unit on conflict.
func (b *base) tx(ctx context.Context, operation string, fn func(ctx context.Context, tx ports.Repositories) error) error {
	return b.retry.Do(ctx, operation, b.log, b.metrics, func() error {
		return b.uow.WithinTx(ctx, fn)
	})
}

// record appends one history row for wo.
func (b *base) record(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, eventType domain.EventType,
	from domain.WorkOrderStatus, actor domain.Actor, description string, amount *decimal.Decimal) error {
	if amount != nil {
		rounded := domain.RoundMoney(*amount)
		amount = &rounded
	}
	return tx.History().Save(ctx, &domain.WorkOrderEvent{
		ID:          b.newID(),
		WorkOrderID: wo.ID,
		Type:        eventType,
		FromStatus:  from,
		ToStatus:    wo.Status,
		Amount:      amount,
		Description: description,
		PerformedBy: actor.ID,
		CreatedAt:   b.clock.Now(),
	})
}

// moveStock writes the stock movement that accompanies every on-hand change.
func (b *base) moveStock(ctx context.Context, tx ports.Repositories, part *domain.Part, movementType domain.MovementType,
	quantity int, workOrderID string, reason string, actor domain.Actor, now time.Time) error {
	if err := tx.Parts().Update(ctx, part); err != nil {
		return err
	}
	woID := workOrderID
	if err := tx.StockMovements().Save(ctx, &domain.StockMovement{
		ID:          b.newID(),
		PartID:      part.ID,
		Type:        movementType,
		Quantity:    quantity,
		WorkOrderID: &woID,
		Reason:      reason,
		PerformedBy: actor.ID,
		CreatedAt:   now,
	}); err != nil {
		return err
	}
	b.metrics.StockMovement(string(movementType))
	return nil
}

// withdraw takes quantity of partID off the shelf for a work order.
func (b *base) withdraw(ctx context.Context, tx ports.Repositories, partID string, quantity int, workOrderID, reason string, actor domain.Actor, now time.Time) error {
	part, err := tx.Parts().FindByID(ctx, partID)
	if err != nil {
		return err
	}
	if err := part.Withdraw(quantity, now); err != nil {
		return err
	}
	if part.IsBelowMinimum() {
		b.log.WithFields(logrus.Fields{"part_id": part.ID, "on_hand": part.QuantityOnHand, "minimum": part.MinimumStock}).
			Warn("part below minimum stock")
	}
	return b.moveStock(ctx, tx, part, domain.MovementOut, quantity, workOrderID, reason, actor, now)
}

// restock puts quantity of partID back on the shelf.
func (b *base) restock(ctx context.Context, tx ports.Repositories, partID string, quantity int, workOrderID, reason string, actor domain.Actor, now time.Time) error {
	part, err := tx.Parts().FindByID(ctx, partID)
	if err != nil {
		return err
	}
	if err := part.Restock(quantity, now); err != nil {
		return err
	}
	return b.moveStock(ctx, tx, part, domain.MovementIn, quantity, workOrderID, reason, actor, now)
}

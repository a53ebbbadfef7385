package services

import (
	"context"
	"fmt"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/policy"
	"cmms-engine/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PartsService orchestrates the reservation ledger of work order parts
type PartsService struct {
	base
}

// NewPartsService creates a new parts service
func NewPartsService(uow ports.UnitOfWork, opts Options) *PartsService {
	return &PartsService{base: newBase(uow, opts)}
}

// ListByWorkOrder returns the parts planned on a work order
func (s *PartsService) ListByWorkOrder(ctx context.Context, workOrderID string) ([]*domain.WorkOrderPart, error) {
	if _, err := s.uow.WorkOrders().FindByID(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.uow.WorkOrderParts().FindByWorkOrderID(ctx, workOrderID)
}

// StockMovements returns the raw stock history of a spare part
func (s *PartsService) StockMovements(ctx context.Context, partID string) ([]*domain.StockMovement, error) {
	if _, err := s.uow.Parts().FindByID(ctx, partID); err != nil {
		return nil, err
	}
	return s.uow.StockMovements().FindByPartID(ctx, partID)
}

// AddPart plans a new spare part on an open work order
func (s *PartsService) AddPart(ctx context.Context, actor domain.Actor, workOrderID string, line PartLine) (*domain.WorkOrderPart, error) {
	if err := policy.Authorize(actor, policy.ActionAddPart); err != nil {
		return nil, err
	}
	var added *domain.WorkOrderPart
	err := s.tx(ctx, "add_part", func(ctx context.Context, tx ports.Repositories) error {
		wo, err := s.openWorkOrder(ctx, tx, actor, policy.ActionAddPart, workOrderID)
		if err != nil {
			return err
		}
		added, err = s.add(ctx, tx, actor, wo, line)
		if err != nil {
			return err
		}
		return tx.WorkOrders().Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"work_order_id": workOrderID, "part_id": added.PartID, "quantity": added.QuantityPlanned}).
		Info("part added to work order")
	return added, nil
}

// RemovePart drops a part that was not consumed. Its reservation goes back
// to stock and its open request is cancelled.
func (s *PartsService) RemovePart(ctx context.Context, actor domain.Actor, workOrderID, workOrderPartID string) error {
	if err := policy.Authorize(actor, policy.ActionRemovePart); err != nil {
		return err
	}
	err := s.tx(ctx, "remove_part", func(ctx context.Context, tx ports.Repositories) error {
		wo, err := s.openWorkOrder(ctx, tx, actor, policy.ActionRemovePart, workOrderID)
		if err != nil {
			return err
		}
		if err := s.remove(ctx, tx, actor, wo, workOrderPartID); err != nil {
			return err
		}
		return tx.WorkOrders().Update(ctx, wo)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"work_order_id": workOrderID, "work_order_part_id": workOrderPartID}).
		Info("part removed from work order")
	return nil
}

// SwapPart replaces one planned part with another in a single transaction.
func (s *PartsService) SwapPart(ctx context.Context, actor domain.Actor, workOrderID, workOrderPartID string, line PartLine) (*domain.WorkOrderPart, error) {
	if err := policy.Authorize(actor, policy.ActionRemovePart); err != nil {
		return nil, err
	}
	var added *domain.WorkOrderPart
	err := s.tx(ctx, "swap_part", func(ctx context.Context, tx ports.Repositories) error {
		wo, err := s.openWorkOrder(ctx, tx, actor, policy.ActionRemovePart, workOrderID)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeInState(actor, policy.ActionAddPart, wo.Status); err != nil {
			return err
		}
		if err := s.remove(ctx, tx, actor, wo, workOrderPartID); err != nil {
			return err
		}
		if added, err = s.add(ctx, tx, actor, wo, line); err != nil {
			return err
		}
		return tx.WorkOrders().Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Reserve sets stock aside for a planned part. The on-hand check and the
// decrement happen under the part's row lock.
func (s *PartsService) Reserve(ctx context.Context, actor domain.Actor, workOrderPartID string, quantity int) (*domain.WorkOrderPart, error) {
	if err := policy.Authorize(actor, policy.ActionReservePart); err != nil {
		return nil, err
	}
	var reserved *domain.WorkOrderPart
	err := s.tx(ctx, "reserve_part", func(ctx context.Context, tx ports.Repositories) error {
		wo, p, err := s.lockPart(ctx, tx, workOrderPartID)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeInState(actor, policy.ActionReservePart, wo.Status); err != nil {
			return err
		}
		if wo.Status.IsTerminal() {
			return fmt.Errorf("%w: work order %s is %s, its parts can no longer change", domain.ErrInvalidState, wo.ID, wo.Status)
		}
		now := s.clock.Now()
		if err := p.Reserve(quantity, actor.ID, now); err != nil {
			return err
		}
		if err := s.withdraw(ctx, tx, p.PartID, quantity, wo.ID, "reserved", actor, now); err != nil {
			return fmt.Errorf("reserve %d x %s for work order %s: %w", quantity, p.PartID, wo.ID, err)
		}
		if err := tx.WorkOrderParts().Update(ctx, p); err != nil {
			return err
		}
		reserved = p
		return s.record(ctx, tx, wo, domain.EventPartReserved, wo.Status, actor,
			fmt.Sprintf("%d x %s reserved", quantity, p.PartID), nil)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"work_order_id": reserved.WorkOrderID,
		"part_id":       reserved.PartID,
		"reserved":      reserved.QuantityReserved,
		"actor_id":      actor.ID,
	}).Info("part reserved")
	return reserved, nil
}

// Release returns the whole reservation of an unconsumed part to stock
func (s *PartsService) Release(ctx context.Context, actor domain.Actor, workOrderPartID string) (*domain.WorkOrderPart, error) {
	if err := policy.Authorize(actor, policy.ActionReleasePart); err != nil {
		return nil, err
	}
	var released *domain.WorkOrderPart
	err := s.tx(ctx, "release_part", func(ctx context.Context, tx ports.Repositories) error {
		wo, p, err := s.lockPart(ctx, tx, workOrderPartID)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeInState(actor, policy.ActionReleasePart, wo.Status); err != nil {
			return err
		}
		now := s.clock.Now()
		qty, err := p.Release(now)
		if err != nil {
			return err
		}
		if qty > 0 {
			if err := s.restock(ctx, tx, p.PartID, qty, wo.ID, "reservation released", actor, now); err != nil {
				return err
			}
		}
		if err := tx.WorkOrderParts().Update(ctx, p); err != nil {
			return err
		}
		released = p
		return s.record(ctx, tx, wo, domain.EventPartReleased, wo.Status, actor,
			fmt.Sprintf("%d x %s returned to stock", qty, p.PartID), nil)
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// lockPart locks the owning work order before the part so that every use
// case takes row locks in the same order.
func (s *PartsService) lockPart(ctx context.Context, tx ports.Repositories, workOrderPartID string) (*domain.WorkOrder, *domain.WorkOrderPart, error) {
	current, err := s.uow.WorkOrderParts().FindByID(ctx, workOrderPartID)
	if err != nil {
		return nil, nil, err
	}
	wo, err := tx.WorkOrders().FindByID(ctx, current.WorkOrderID)
	if err != nil {
		return nil, nil, err
	}
	p, err := tx.WorkOrderParts().FindByID(ctx, workOrderPartID)
	if err != nil {
		return nil, nil, err
	}
	return wo, p, nil
}

// openWorkOrder loads a work order under lock and checks that its parts
// can still change.
func (s *PartsService) openWorkOrder(ctx context.Context, tx ports.Repositories, actor domain.Actor, action policy.Action, id string) (*domain.WorkOrder, error) {
	wo, err := tx.WorkOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeInState(actor, action, wo.Status); err != nil {
		return nil, err
	}
	if wo.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: work order %s is %s, its parts can no longer change", domain.ErrInvalidState, wo.ID, wo.Status)
	}
	return wo, nil
}

func (s *PartsService) add(ctx context.Context, tx ports.Repositories, actor domain.Actor, wo *domain.WorkOrder, line PartLine) (*domain.WorkOrderPart, error) {
	stock, err := tx.Parts().FindByID(ctx, line.PartID)
	if err != nil {
		return nil, err
	}
	existing, err := tx.WorkOrderParts().FindByWorkOrderID(ctx, wo.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.PartID == line.PartID {
			return nil, fmt.Errorf("%w: part %s is already planned on work order %s", domain.ErrValidation, line.PartID, wo.ID)
		}
	}

	now := s.clock.Now()
	p, err := domain.NewWorkOrderPart(s.newID(), wo.ID, stock.ID, line.Quantity, stock.UnitPrice, now)
	if err != nil {
		return nil, err
	}
	if err := tx.WorkOrderParts().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := tx.PartRequests().Save(ctx, &domain.PartRequest{
		ID:            s.newID(),
		WorkOrderID:   wo.ID,
		PartID:        p.PartID,
		Quantity:      p.QuantityPlanned,
		RequestedByID: actor.ID,
		Status:        domain.PartRequestOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return nil, err
	}

	estimate := p.EstimatedPrice()
	wo.EstimatedCost = wo.EstimatedCost.Add(estimate)
	wo.UpdatedAt = now
	return p, s.record(ctx, tx, wo, domain.EventPartAdded, wo.Status, actor,
		fmt.Sprintf("%d x %s planned", p.QuantityPlanned, p.PartID), &estimate)
}

func (s *PartsService) remove(ctx context.Context, tx ports.Repositories, actor domain.Actor, wo *domain.WorkOrder, workOrderPartID string) error {
	p, err := tx.WorkOrderParts().FindByID(ctx, workOrderPartID)
	if err != nil {
		return err
	}
	if p.WorkOrderID != wo.ID {
		return domain.NotFound("work order part", workOrderPartID)
	}

	now := s.clock.Now()
	qty, err := p.Release(now)
	if err != nil {
		return err
	}
	if qty > 0 {
		if err := s.restock(ctx, tx, p.PartID, qty, wo.ID, "part removed from work order", actor, now); err != nil {
			return err
		}
	}
	if err := tx.WorkOrderParts().Delete(ctx, p.ID); err != nil {
		return err
	}

	requests, err := tx.PartRequests().FindByWorkOrderID(ctx, wo.ID)
	if err != nil {
		return err
	}
	for _, r := range requests {
		if r.PartID != p.PartID || r.Status != domain.PartRequestOpen {
			continue
		}
		r.Status = domain.PartRequestCancelled
		r.UpdatedAt = now
		if err := tx.PartRequests().Update(ctx, r); err != nil {
			return err
		}
	}

	estimate := p.EstimatedPrice()
	wo.EstimatedCost = decimal.Max(decimal.Zero, wo.EstimatedCost.Sub(estimate))
	wo.UpdatedAt = now
	return s.record(ctx, tx, wo, domain.EventPartRemoved, wo.Status, actor,
		fmt.Sprintf("%d x %s removed", p.QuantityPlanned, p.PartID), &estimate)
}

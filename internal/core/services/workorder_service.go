package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/policy"
	"cmms-engine/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// WorkOrderService orchestrates the work order lifecycle
type WorkOrderService struct {
	base
}

// NewWorkOrderService creates a new work order service
func NewWorkOrderService(uow ports.UnitOfWork, opts Options) *WorkOrderService {
	return &WorkOrderService{base: newBase(uow, opts)}
}

// PartLine asks for a quantity of one spare part
type PartLine struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

// CreateWorkOrderInput represents create work order input
type CreateWorkOrderInput struct {
	Title             string                 `json:"title"`
	Description       string                 `json:"description,omitempty"`
	Priority          domain.Priority        `json:"priority,omitempty"`
	Type              domain.MaintenanceType `json:"type"`
	AssetID           string                 `json:"asset_id"`
	AssignedToID      *string                `json:"assigned_to_id,omitempty"`
	ScheduledAt       *time.Time             `json:"scheduled_at,omitempty"`
	EstimatedDuration int                    `json:"estimated_duration,omitempty"`
	Parts             []PartLine             `json:"parts,omitempty"`
	RequiresApproval  bool                   `json:"requires_approval,omitempty"`
	Draft             bool                   `json:"draft,omitempty"`
}

// Create creates a work order with its planned parts. Each part line also
// opens a part request for the stock manager.
func (s *WorkOrderService) Create(ctx context.Context, actor domain.Actor, input CreateWorkOrderInput) (*domain.WorkOrder, error) {
	if err := policy.Authorize(actor, policy.ActionCreate); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(input.Parts))
	for _, line := range input.Parts {
		if seen[line.PartID] {
			return nil, fmt.Errorf("%w: part %s is listed more than once", domain.ErrValidation, line.PartID)
		}
		seen[line.PartID] = true
	}

	var created *domain.WorkOrder
	err := s.tx(ctx, "create_work_order", func(ctx context.Context, tx ports.Repositories) error {
		if err := s.checkAsset(ctx, tx, input.AssetID); err != nil {
			return err
		}
		if input.AssignedToID != nil {
			if err := s.checkTechnician(ctx, tx, *input.AssignedToID); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		woID := s.newID()

		parts := make([]*domain.WorkOrderPart, 0, len(input.Parts))
		estimated := decimal.Zero
		for _, line := range input.Parts {
			stock, err := tx.Parts().FindByID(ctx, line.PartID)
			if err != nil {
				return err
			}
			p, err := domain.NewWorkOrderPart(s.newID(), woID, stock.ID, line.Quantity, stock.UnitPrice, now)
			if err != nil {
				return err
			}
			estimated = estimated.Add(p.EstimatedPrice())
			parts = append(parts, p)
		}

		requiresApproval := input.RequiresApproval ||
			(estimated.GreaterThan(s.approvalThreshold) && !actor.Role.IsSupervisor())

		wo, err := domain.NewWorkOrder(domain.NewWorkOrderParams{
			ID:                woID,
			Title:             input.Title,
			Description:       input.Description,
			Priority:          input.Priority,
			Type:              input.Type,
			AssetID:           input.AssetID,
			AssignedToID:      input.AssignedToID,
			ScheduledAt:       input.ScheduledAt,
			EstimatedDuration: input.EstimatedDuration,
			EstimatedCost:     estimated,
			RequiresApproval:  requiresApproval,
			Draft:             input.Draft,
			CreatedByID:       actor.ID,
		}, now)
		if err != nil {
			return err
		}
		if err := tx.WorkOrders().Save(ctx, wo); err != nil {
			return err
		}

		for _, p := range parts {
			if err := tx.WorkOrderParts().Save(ctx, p); err != nil {
				return err
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
				return err
			}
		}

		if err := s.record(ctx, tx, wo, domain.EventCreate, "", actor, "work order created: "+wo.Title, &estimated); err != nil {
			return err
		}
		created = wo
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(created.Status))
	s.log.WithFields(logrus.Fields{
		"work_order_id":     created.ID,
		"actor_id":          actor.ID,
		"to":                created.Status,
		"requires_approval": created.RequiresApproval,
	}).Info("work order created")
	return created, nil
}

// Get returns a work order by id
func (s *WorkOrderService) Get(ctx context.Context, id string) (*domain.WorkOrder, error) {
	return s.uow.WorkOrders().FindByID(ctx, id)
}

// ListByAsset returns the work orders of an asset, newest first
func (s *WorkOrderService) ListByAsset(ctx context.Context, assetID string) ([]*domain.WorkOrder, error) {
	return s.uow.WorkOrders().FindByAssetID(ctx, assetID)
}

// History returns the audit trail of a work order
func (s *WorkOrderService) History(ctx context.Context, id string) ([]*domain.WorkOrderEvent, error) {
	if _, err := s.uow.WorkOrders().FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.uow.History().FindByWorkOrderID(ctx, id)
}

// Submit moves a draft forward
func (s *WorkOrderService) Submit(ctx context.Context, actor domain.Actor, id string) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionSubmit, domain.EventSubmit,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			return "submitted", nil, wo.Submit(now)
		})
}

// Start begins execution. Technicians may only start their own work.
func (s *WorkOrderService) Start(ctx context.Context, actor domain.Actor, id string) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionStart, domain.EventStart,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			if err := policy.RequireAssignee(actor, wo); err != nil {
				return "", nil, err
			}
			return "work started", nil, wo.StartWork(now)
		})
}

// CompleteInput represents technician completion input. UsedQuantities maps
// work order part ids to the quantity actually used; parts left out use
// their full planned quantity.
type CompleteInput struct {
	ActualDuration int            `json:"actual_duration"`
	UsedQuantities map[string]int `json:"used_quantities,omitempty"`
}

// CompleteByTechnician finishes execution and consumes every part still
// planned or reserved.
func (s *WorkOrderService) CompleteByTechnician(ctx context.Context, actor domain.Actor, id string, input CompleteInput) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionComplete, domain.EventComplete,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			if err := policy.RequireAssignee(actor, wo); err != nil {
				return "", nil, err
			}
			if err := wo.CompleteByTechnician(input.ActualDuration, now); err != nil {
				return "", nil, err
			}

			parts, err := tx.WorkOrderParts().FindByWorkOrderID(ctx, wo.ID)
			if err != nil {
				return "", nil, err
			}
			known := make(map[string]bool, len(parts))
			for _, p := range parts {
				known[p.ID] = true
			}
			for partID := range input.UsedQuantities {
				if !known[partID] {
					return "", nil, fmt.Errorf("%w: part %s does not belong to work order %s", domain.ErrValidation, partID, wo.ID)
				}
			}

			for _, listed := range parts {
				if listed.Status == domain.PartConsumed {
					continue
				}
				p, err := tx.WorkOrderParts().FindByID(ctx, listed.ID)
				if err != nil {
					return "", nil, err
				}
				used, ok := input.UsedQuantities[p.ID]
				if !ok {
					used = p.QuantityPlanned
				}
				if err := s.settle(ctx, tx, wo, p, used, actor, now); err != nil {
					return "", nil, fmt.Errorf("work order %s: %w", wo.ID, err)
				}
			}
			return fmt.Sprintf("completed in %d minutes", input.ActualDuration), nil, nil
		})
}

// settle consumes used units of p. Units not yet reserved are drawn from
// stock and unused reserved units go back to it.
func (s *WorkOrderService) settle(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, p *domain.WorkOrderPart,
	used int, actor domain.Actor, now time.Time) error {
	if used < 0 || used > p.QuantityPlanned {
		return fmt.Errorf("%w: used quantity %d of part %s must be between 0 and %d",
			domain.ErrValidation, used, p.PartID, p.QuantityPlanned)
	}

	if used == 0 {
		released, err := p.Release(now)
		if err != nil {
			return err
		}
		if released > 0 {
			if err := s.restock(ctx, tx, p.PartID, released, wo.ID, "unused at completion", actor, now); err != nil {
				return err
			}
			if err := s.record(ctx, tx, wo, domain.EventPartReleased, wo.Status, actor,
				fmt.Sprintf("%d x %s returned to stock", released, p.PartID), nil); err != nil {
				return err
			}
		}
		return tx.WorkOrderParts().Update(ctx, p)
	}

	switch reserved := p.QuantityReserved; {
	case reserved == 0:
		if err := s.withdraw(ctx, tx, p.PartID, used, wo.ID, "consumed at completion", actor, now); err != nil {
			return err
		}
		if err := p.Consume(used, now); err != nil {
			return err
		}
	case used > reserved:
		missing := used - reserved
		if err := s.withdraw(ctx, tx, p.PartID, missing, wo.ID, "consumed at completion", actor, now); err != nil {
			return err
		}
		if err := p.Reserve(missing, actor.ID, now); err != nil {
			return err
		}
		if err := p.Consume(used, now); err != nil {
			return err
		}
	default:
		if err := p.Consume(used, now); err != nil {
			return err
		}
		if surplus := p.TrimReservation(now); surplus > 0 {
			if err := s.restock(ctx, tx, p.PartID, surplus, wo.ID, "unused reservation at completion", actor, now); err != nil {
				return err
			}
		}
	}

	if err := tx.WorkOrderParts().Update(ctx, p); err != nil {
		return err
	}
	total := p.TotalPrice
	return s.record(ctx, tx, wo, domain.EventPartConsumed, wo.Status, actor,
		fmt.Sprintf("%d x %s consumed", p.QuantityConsumed, p.PartID), &total)
}

// ValidateInput represents manager validation input. MaterialAdjustment is
// added to the value of the consumed parts.
type ValidateInput struct {
	LaborCost          decimal.Decimal `json:"labor_cost"`
	MaterialAdjustment decimal.Decimal `json:"material_adjustment,omitempty"`
}

// ValidateByManager rolls up material cost from the consumed parts and
// finalises the costs in the same transaction.
func (s *WorkOrderService) ValidateByManager(ctx context.Context, actor domain.Actor, id string, input ValidateInput) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionValidate, domain.EventValidate,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			parts, err := tx.WorkOrderParts().FindByWorkOrderID(ctx, wo.ID)
			if err != nil {
				return "", nil, err
			}
			material := decimal.Zero
			for _, p := range parts {
				if p.Status == domain.PartConsumed {
					material = material.Add(p.TotalPrice)
				}
			}
			material = material.Add(input.MaterialAdjustment)

			if err := wo.ValidateByManager(actor.ID, input.LaborCost, material, now); err != nil {
				return "", nil, err
			}
			total := wo.TotalCost
			return fmt.Sprintf("costs validated: labor %s, material %s", wo.LaborCost.StringFixed(2), wo.MaterialCost.StringFixed(2)), &total, nil
		})
}

// Approve releases a pending work order for planning
func (s *WorkOrderService) Approve(ctx context.Context, actor domain.Actor, id string) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionApprove, domain.EventApprove,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			return "approved", nil, wo.Approve(actor.ID, now)
		})
}

// Reject closes a pending work order
func (s *WorkOrderService) Reject(ctx context.Context, actor domain.Actor, id, reason string) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionReject, domain.EventReject,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			if err := wo.Reject(actor.ID, reason, now); err != nil {
				return "", nil, err
			}
			return "rejected: " + wo.RejectionReason, nil, s.releaseAll(ctx, tx, wo, actor, now)
		})
}

// Cancel cancels a work order and returns its reservations to stock
func (s *WorkOrderService) Cancel(ctx context.Context, actor domain.Actor, id, reason string) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionCancel, domain.EventCancel,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			if err := wo.Cancel(reason, now); err != nil {
				return "", nil, err
			}
			desc := "cancelled"
			if wo.CancellationReason != "" {
				desc += ": " + wo.CancellationReason
			}
			return desc, nil, s.releaseAll(ctx, tx, wo, actor, now)
		})
}

// releaseAll returns every outstanding reservation of wo to stock and
// cancels its open part requests.
func (s *WorkOrderService) releaseAll(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, actor domain.Actor, now time.Time) error {
	parts, err := tx.WorkOrderParts().FindByWorkOrderID(ctx, wo.ID)
	if err != nil {
		return err
	}
	for _, listed := range parts {
		if listed.UnconsumedReservation() == 0 {
			continue
		}
		p, err := tx.WorkOrderParts().FindByID(ctx, listed.ID)
		if err != nil {
			return err
		}
		var qty int
		if p.Status == domain.PartConsumed {
			qty = p.TrimReservation(now)
		} else if qty, err = p.Release(now); err != nil {
			return err
		}
		if qty == 0 {
			continue
		}
		if err := s.restock(ctx, tx, p.PartID, qty, wo.ID, "work order "+strings.ToLower(string(wo.Status)), actor, now); err != nil {
			return err
		}
		if err := tx.WorkOrderParts().Update(ctx, p); err != nil {
			return err
		}
		if err := s.record(ctx, tx, wo, domain.EventPartReleased, wo.Status, actor,
			fmt.Sprintf("%d x %s returned to stock", qty, p.PartID), nil); err != nil {
			return err
		}
	}

	requests, err := tx.PartRequests().FindByWorkOrderID(ctx, wo.ID)
	if err != nil {
		return err
	}
	for _, r := range requests {
		if r.Status != domain.PartRequestOpen {
			continue
		}
		r.Status = domain.PartRequestCancelled
		r.UpdatedAt = now
		if err := tx.PartRequests().Update(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Update edits the fields that are still mutable in the current status
func (s *WorkOrderService) Update(ctx context.Context, actor domain.Actor, id string, input domain.WorkOrderUpdate) (*domain.WorkOrder, error) {
	return s.transition(ctx, actor, id, policy.ActionUpdate, domain.EventUpdate,
		func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error) {
			if input.AssignedToID != nil {
				if err := s.checkTechnician(ctx, tx, *input.AssignedToID); err != nil {
					return "", nil, err
				}
			}
			return "updated", nil, wo.Update(input, now)
		})
}

type transitionFunc func(ctx context.Context, tx ports.Repositories, wo *domain.WorkOrder, now time.Time) (string, *decimal.Decimal, error)

// transition loads the work order under lock, authorizes the actor against
// its current status, applies fn and persists the result with one history row.
func (s *WorkOrderService) transition(ctx context.Context, actor domain.Actor, id string, action policy.Action,
	eventType domain.EventType, fn transitionFunc) (*domain.WorkOrder, error) {
	if err := policy.Authorize(actor, action); err != nil {
		return nil, err
	}

	var (
		result *domain.WorkOrder
		from   domain.WorkOrderStatus
	)
	err := s.tx(ctx, string(action), func(ctx context.Context, tx ports.Repositories) error {
		wo, err := tx.WorkOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeInState(actor, action, wo.Status); err != nil {
			return err
		}
		from = wo.Status
		now := s.clock.Now()

		desc, amount, err := fn(ctx, tx, wo, now)
		if err != nil {
			return err
		}
		if err := tx.WorkOrders().Update(ctx, wo); err != nil {
			return err
		}
		if err := s.record(ctx, tx, wo, eventType, from, actor, desc, amount); err != nil {
			return err
		}
		result = wo
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"work_order_id": id, "actor_id": actor.ID, "action": action}).
			WithError(err).Debug("work order transition failed")
		return nil, err
	}

	if result.Status != from {
		s.metrics.Transition(string(result.Status))
	}
	s.log.WithFields(logrus.Fields{
		"work_order_id": result.ID,
		"actor_id":      actor.ID,
		"action":        action,
		"from":          from,
		"to":            result.Status,
	}).Info("work order transition")
	return result, nil
}

func (b *base) checkAsset(ctx context.Context, tx ports.Repositories, assetID string) error {
	if strings.TrimSpace(assetID) == "" {
		return fmt.Errorf("%w: asset id is required", domain.ErrValidation)
	}
	ok, err := tx.Assets().Exists(ctx, assetID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("asset", assetID)
	}
	return nil
}

func (b *base) checkTechnician(ctx context.Context, tx ports.Repositories, technicianID string) error {
	ok, err := tx.Technicians().Exists(ctx, technicianID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("technician", technicianID)
	}
	return nil
}

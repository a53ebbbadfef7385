package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkOrderPart reserves one spare part against one work order and tracks
// what was planned, set aside and physically used.
type WorkOrderPart struct {
	ID               string
	WorkOrderID      string
	PartID           string
	QuantityPlanned  int
	QuantityReserved int
	QuantityConsumed int
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal
	Status           PartStatus
	ReservedByID     *string
	ReservedAt       *time.Time
	ConsumedAt       *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewWorkOrderPart creates a PLANNED part record. The unit price is rounded
// to cents.
func NewWorkOrderPart(id, workOrderID, partID string, quantityPlanned int, unitPrice decimal.Decimal, now time.Time) (*WorkOrderPart, error) {
	if workOrderID == "" || partID == "" {
		return nil, validationf("work order id and part id are required")
	}
	if quantityPlanned <= 0 {
		return nil, validationf("planned quantity must be positive, got %d", quantityPlanned)
	}
	if unitPrice.IsNegative() {
		return nil, validationf("unit price cannot be negative")
	}
	return &WorkOrderPart{
		ID:              id,
		WorkOrderID:     workOrderID,
		PartID:          partID,
		QuantityPlanned: quantityPlanned,
		UnitPrice:       RoundMoney(unitPrice),
		TotalPrice:      decimal.Zero,
		Status:          PartPlanned,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// EstimatedPrice is the value of the full planned quantity.
func (p *WorkOrderPart) EstimatedPrice() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.QuantityPlanned)))
}

// Reserve sets quantity aside. Stock availability is checked by the caller
// against the part ledger in the same transaction.
func (p *WorkOrderPart) Reserve(quantity int, reservedByID string, now time.Time) error {
	if p.Status == PartConsumed {
		return invalidStatef("part %s on work order %s is already consumed", p.PartID, p.WorkOrderID)
	}
	if quantity <= 0 {
		return validationf("reserved quantity must be positive, got %d", quantity)
	}
	if p.QuantityReserved+quantity > p.QuantityPlanned {
		return validationf("cannot reserve %d of part %s: %d planned, %d already reserved",
			quantity, p.PartID, p.QuantityPlanned, p.QuantityReserved)
	}
	p.QuantityReserved += quantity
	p.Status = PartReserved
	p.ReservedByID = stringPtr(reservedByID)
	p.ReservedAt = timePtr(now)
	p.UpdatedAt = now
	return nil
}

// Consume records physical use. With a reservation the ceiling is the
// reserved quantity, without one it is the planned quantity.
func (p *WorkOrderPart) Consume(quantity int, now time.Time) error {
	if quantity <= 0 {
		return validationf("consumed quantity must be positive, got %d", quantity)
	}
	limit := p.QuantityPlanned
	if p.QuantityReserved > 0 {
		limit = p.QuantityReserved
	}
	if p.QuantityConsumed+quantity > limit {
		return validationf("cannot consume %d of part %s: limit %d, %d already consumed",
			quantity, p.PartID, limit, p.QuantityConsumed)
	}
	p.QuantityConsumed += quantity
	p.TotalPrice = p.UnitPrice.Mul(decimal.NewFromInt(int64(p.QuantityConsumed)))
	p.Status = PartConsumed
	p.ConsumedAt = timePtr(now)
	p.UpdatedAt = now
	return nil
}

// UnconsumedReservation is the reserved quantity not yet used.
func (p *WorkOrderPart) UnconsumedReservation() int {
	if p.QuantityReserved <= p.QuantityConsumed {
		return 0
	}
	return p.QuantityReserved - p.QuantityConsumed
}

// Release drops the reservation of a part that was never consumed and
// returns the quantity to put back on the shelf.
func (p *WorkOrderPart) Release(now time.Time) (int, error) {
	if p.Status == PartConsumed {
		return 0, invalidStatef("part %s on work order %s is consumed and cannot be released", p.PartID, p.WorkOrderID)
	}
	released := p.QuantityReserved
	p.QuantityReserved = 0
	p.ReservedByID = nil
	p.ReservedAt = nil
	p.Status = PartPlanned
	p.UpdatedAt = now
	return released, nil
}

// TrimReservation lowers a consumed part's reservation to what was used and
// returns the surplus. The CONSUMED status is kept.
func (p *WorkOrderPart) TrimReservation(now time.Time) int {
	surplus := p.UnconsumedReservation()
	if surplus > 0 {
		p.QuantityReserved = p.QuantityConsumed
		p.UpdatedAt = now
	}
	return surplus
}

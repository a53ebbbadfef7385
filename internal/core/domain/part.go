package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Part is a spare part in the stock ledger. On-hand quantity changes only
// together with a StockMovement.
type Part struct {
	ID             string
	SKU            string
	Name           string
	QuantityOnHand int
	MinimumStock   int
	UnitPrice      decimal.Decimal
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Withdraw takes quantity off the shelf. It never lets on-hand go negative.
func (p *Part) Withdraw(quantity int, now time.Time) error {
	if quantity <= 0 {
		return validationf("withdrawn quantity must be positive, got %d", quantity)
	}
	if p.QuantityOnHand < quantity {
		return fmt.Errorf("%w: part %s has %d on hand, %d requested", ErrInsufficientStock, p.ID, p.QuantityOnHand, quantity)
	}
	p.QuantityOnHand -= quantity
	p.UpdatedAt = now
	return nil
}

// Restock puts quantity back on the shelf.
func (p *Part) Restock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return validationf("restocked quantity must be positive, got %d", quantity)
	}
	p.QuantityOnHand += quantity
	p.UpdatedAt = now
	return nil
}

// IsBelowMinimum reports whether the part needs replenishment.
func (p *Part) IsBelowMinimum() bool {
	return p.QuantityOnHand < p.MinimumStock
}

// StockMovement is one raw entry of the stock history.
type StockMovement struct {
	ID          string
	PartID      string
	Type        MovementType
	Quantity    int
	WorkOrderID *string
	Reason      string
	PerformedBy string
	CreatedAt   time.Time
}

// PartRequestStatus tracks a stock-manager fulfillment request
type PartRequestStatus string

const (
	PartRequestOpen      PartRequestStatus = "OPEN"
	PartRequestCancelled PartRequestStatus = "CANCELLED"
)

// PartRequest asks the stock manager to prepare parts for a work order.
type PartRequest struct {
	ID            string
	WorkOrderID   string
	PartID        string
	Quantity      int
	RequestedByID string
	Status        PartRequestStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

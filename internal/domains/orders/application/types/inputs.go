package types

import (
	"time"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
)

// OrderIdentifier selects a single order.
type OrderIdentifier struct {
	ID int64
}

// CreateOrderInput carries the payload for a new order.
type CreateOrderInput struct {
	OrderNumber       string
	CustomerName      string
	OrderDate         *time.Time
	RequiredDate      *time.Time
	Notes             string
	ControlSystemID   int64
	MachineModelID    int64
	SoftwareOptionIDs []int64
	Actor             domain.Actor
}

// UpdateOrderInput replaces the editable fields of an order.
// Zero reference ids keep the current reference; a nil option set keeps the current line items.
type UpdateOrderInput struct {
	ID                int64
	CustomerName      string
	RequiredDate      *time.Time
	Notes             string
	ControlSystemID   int64
	MachineModelID    int64
	SoftwareOptionIDs *[]int64
	Actor             domain.Actor
}

// RemoveLineItemInput identifies a line item to drop from an order.
type RemoveLineItemInput struct {
	OrderID int64
	ItemID  int64
	Actor   domain.Actor
}

// TransitionInput drives a workflow transition.
type TransitionInput struct {
	ID    int64
	Notes string
	Actor domain.Actor
}

// ListOrdersInput filters order listings. Empty fields do not filter.
type ListOrdersInput struct {
	Status          string
	OrderNumber     string
	CustomerName    string
	From            *time.Time
	To              *time.Time
	ControlSystemID int64
	MachineModelID  int64
}

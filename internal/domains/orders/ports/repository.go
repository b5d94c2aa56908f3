package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrStaleRevision        = errors.New("order was modified concurrently")
)

// OrderFilter narrows order queries. Zero values do not filter.
type OrderFilter struct {
	Status          domain.Status
	OrderNumber     string
	CustomerName    string
	From            *time.Time
	To              *time.Time
	ControlSystemID int64
	MachineModelID  int64
}

// Repository persists order aggregates.
type Repository interface {
	// Create inserts a new order, assigning ids and revision 1. Order numbers are unique.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// Save replaces the stored aggregate when the stored revision equals order.Revision,
	// returning the persisted state with the next revision. Otherwise ErrStaleRevision.
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Query(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
}

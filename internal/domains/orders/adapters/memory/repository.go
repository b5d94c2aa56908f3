package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter with compare-and-swap saves.
type Repository struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	byNumber   map[string]int64
	nextID     int64
	nextItemID int64
	nextNoteID int64
}

func NewRepository() *Repository {
	return &Repository{orders: map[int64]*domain.Order{}, byNumber: map[string]int64{}}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := numberKey(clone.Number)
	if _, exists := r.byNumber[key]; exists {
		return nil, ports.ErrDuplicateOrderNumber
	}
	r.nextID++
	clone.ID = r.nextID
	clone.Revision = 1
	r.assignChildIDs(clone)
	r.orders[clone.ID] = clone
	r.byNumber[key] = clone.ID
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[clone.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.Revision != clone.Revision {
		return nil, ports.ErrStaleRevision
	}
	// Order numbers are immutable after creation.
	clone.Number = current.Number
	clone.Revision = current.Revision + 1
	r.assignChildIDs(clone)
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) Query(_ context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if Matches(order, filter) {
			list = append(list, order.Clone())
		}
	}
	return list, nil
}

// Reset drops every stored order and restarts id assignment.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = map[int64]*domain.Order{}
	r.byNumber = map[string]int64{}
	r.nextID, r.nextItemID, r.nextNoteID = 0, 0, 0
}

func (r *Repository) assignChildIDs(order *domain.Order) {
	for i := range order.Items {
		if order.Items[i].ID == 0 {
			r.nextItemID++
			order.Items[i].ID = r.nextItemID
		}
	}
	for i := range order.NoteLog {
		if order.NoteLog[i].ID == 0 {
			r.nextNoteID++
			order.NoteLog[i].ID = r.nextNoteID
		}
	}
}

// Matches applies an order filter in memory.
func Matches(order *domain.Order, filter ports.OrderFilter) bool {
	if filter.Status != "" && order.Status != filter.Status {
		return false
	}
	if filter.OrderNumber != "" && !containsFold(order.Number, filter.OrderNumber) {
		return false
	}
	if filter.CustomerName != "" && !containsFold(order.CustomerName, filter.CustomerName) {
		return false
	}
	if filter.From != nil && order.OrderDate.Before(*filter.From) {
		return false
	}
	if filter.To != nil && order.OrderDate.After(*filter.To) {
		return false
	}
	if filter.ControlSystemID != 0 && order.ControlSystemID != filter.ControlSystemID {
		return false
	}
	if filter.MachineModelID != 0 && order.MachineModelID != filter.MachineModelID {
		return false
	}
	return true
}

func containsFold(value, needle string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(strings.TrimSpace(needle)))
}

func numberKey(number string) string {
	return strings.TrimSpace(number)
}

package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

const targetTypeOrder = "Order"

// Service is the order lifecycle engine. It holds no order state between calls.
type Service struct {
	repo     ports.Repository
	resolver ports.EntityResolver
	activity ports.ActivitySink
	notifier ports.NotificationSink
	clock    func() time.Time
	newID    func() string
}

// Option customises the service.
type Option func(*Service)

// WithActivitySink records audit entries for every successful mutation.
func WithActivitySink(sink ports.ActivitySink) Option {
	return func(s *Service) {
		if sink != nil {
			s.activity = sink
		}
	}
}

// WithNotificationSink surfaces success, warning and error notifications.
func WithNotificationSink(sink ports.NotificationSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.notifier = sink
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, resolver ports.EntityResolver, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		resolver: resolver,
		activity: ports.NoopActivitySink,
		notifier: ports.NoopNotificationSink,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder validates references and persists a new draft order.
func (s *Service) CreateOrder(ctx context.Context, input types.CreateOrderInput) (*types.OrderView, error) {
	const title = "Create order"
	now := s.now()
	order, err := domain.NewOrder(input.OrderNumber, input.ControlSystemID, input.MachineModelID, input.Actor, now)
	if err != nil {
		return nil, s.fail(ctx, title, 0, mapError(err))
	}
	if input.OrderDate != nil && !input.OrderDate.IsZero() {
		order.OrderDate = *input.OrderDate
	}
	order.ApplyDetails(input.CustomerName, input.RequiredDate, input.Notes)

	if err := s.ensureExists(ctx, ports.KindControlSystem, order.ControlSystemID); err != nil {
		return nil, s.fail(ctx, title, 0, err)
	}
	if err := s.ensureExists(ctx, ports.KindMachineModel, order.MachineModelID); err != nil {
		return nil, s.fail(ctx, title, 0, err)
	}
	for _, optionID := range input.SoftwareOptionIDs {
		if err := order.AddLineItem(optionID, now); err != nil {
			return nil, s.fail(ctx, title, 0, mapError(err))
		}
	}
	missing, err := s.missingOptions(ctx, order.OptionIDs())
	if err != nil {
		return nil, s.fail(ctx, title, 0, err)
	}
	if len(missing) > 0 {
		return nil, s.fail(ctx, title, 0, fmt.Errorf("%w: %s %s", ErrReferentialIntegrity, ports.KindSoftwareOption, joinIDs(missing)))
	}

	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, s.fail(ctx, title, 0, mapStorageError(err))
	}
	s.record(ctx, input.Actor, "order.created", saved.ID,
		fmt.Sprintf("Created order %s with %d line item(s)", saved.Number, len(saved.Items)))
	s.notify(ctx, ports.LevelSuccess, title, saved.ID, fmt.Sprintf("Order %s created", saved.Number))
	return s.view(ctx, saved, newNameCache())
}

// GetOrderByID loads a single order.
func (s *Service) GetOrderByID(ctx context.Context, input types.OrderIdentifier) (*types.OrderView, error) {
	order, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return s.view(ctx, order, newNameCache())
}

// GetAllOrders lists orders matching the filter, newest order date first.
func (s *Service) GetAllOrders(ctx context.Context, input types.ListOrdersInput) ([]*types.OrderView, error) {
	filter := ports.OrderFilter{
		OrderNumber:     strings.TrimSpace(input.OrderNumber),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		From:            input.From,
		To:              input.To,
		ControlSystemID: input.ControlSystemID,
		MachineModelID:  input.MachineModelID,
	}
	if strings.TrimSpace(input.Status) != "" {
		status, err := domain.ParseStatus(input.Status)
		if err != nil {
			return nil, mapError(err)
		}
		filter.Status = status
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, fmt.Errorf("%w: date range start %s is after end %s", ErrValidationFailed,
			filter.From.Format(time.RFC3339), filter.To.Format(time.RFC3339))
	}
	orders, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, mapStorageError(err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
	names := newNameCache()
	result := make([]*types.OrderView, 0, len(orders))
	for _, order := range orders {
		view, err := s.view(ctx, order, names)
		if err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, nil
}

// UpdateOrder replaces editable fields and reconciles line items. Options that do not
// resolve are skipped and reported instead of aborting the update.
func (s *Service) UpdateOrder(ctx context.Context, input types.UpdateOrderInput) (*types.UpdateOrderResult, error) {
	const title = "Update order"
	order, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, s.fail(ctx, title, input.ID, mapStorageError(err))
	}
	if err := order.EnsureEditable(); err != nil {
		return nil, s.fail(ctx, title, order.ID, mapError(err))
	}

	controlSystemID, machineModelID := order.ControlSystemID, order.MachineModelID
	if input.ControlSystemID != 0 && input.ControlSystemID != controlSystemID {
		if err := s.ensureExists(ctx, ports.KindControlSystem, input.ControlSystemID); err != nil {
			return nil, s.fail(ctx, title, order.ID, err)
		}
		controlSystemID = input.ControlSystemID
	}
	if input.MachineModelID != 0 && input.MachineModelID != machineModelID {
		if err := s.ensureExists(ctx, ports.KindMachineModel, input.MachineModelID); err != nil {
			return nil, s.fail(ctx, title, order.ID, err)
		}
		machineModelID = input.MachineModelID
	}

	now := s.now()
	var unresolved []int64
	if input.SoftwareOptionIDs != nil {
		added := order.ReconcileItems(*input.SoftwareOptionIDs)
		missing, err := s.missingOptions(ctx, added)
		if err != nil {
			return nil, s.fail(ctx, title, order.ID, err)
		}
		for _, optionID := range added {
			if slices.Contains(missing, optionID) {
				unresolved = append(unresolved, optionID)
				continue
			}
			if err := order.AddLineItem(optionID, now); err != nil {
				unresolved = append(unresolved, optionID)
			}
		}
	}
	if err := order.ChangeReferences(controlSystemID, machineModelID); err != nil {
		return nil, s.fail(ctx, title, order.ID, mapError(err))
	}
	order.ApplyDetails(input.CustomerName, input.RequiredDate, input.Notes)
	order.Touch(input.Actor, now)

	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return nil, s.fail(ctx, title, order.ID, mapStorageError(err))
	}
	s.record(ctx, input.Actor, "order.updated", saved.ID, fmt.Sprintf("Updated order %s", saved.Number))
	if len(unresolved) > 0 {
		s.notify(ctx, ports.LevelWarning, title, saved.ID,
			fmt.Sprintf("Order %s updated; software options %s could not be added", saved.Number, joinIDs(unresolved)))
	} else {
		s.notify(ctx, ports.LevelSuccess, title, saved.ID, fmt.Sprintf("Order %s updated", saved.Number))
	}
	view, err := s.view(ctx, saved, newNameCache())
	if err != nil {
		return nil, err
	}
	return &types.UpdateOrderResult{Order: view, UnresolvedOptionIDs: unresolved}, nil
}

// RemoveLineItem drops a line item while the order content is still editable.
func (s *Service) RemoveLineItem(ctx context.Context, input types.RemoveLineItemInput) error {
	const title = "Remove line item"
	order, err := s.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return s.fail(ctx, title, input.OrderID, mapStorageError(err))
	}
	removed, err := order.RemoveLineItem(input.ItemID)
	if err != nil {
		return s.fail(ctx, title, order.ID, mapError(err))
	}
	order.Touch(input.Actor, s.now())
	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return s.fail(ctx, title, order.ID, mapStorageError(err))
	}
	s.record(ctx, input.Actor, "order.line_item_removed", saved.ID,
		fmt.Sprintf("Removed software option %d from order %s", removed.SoftwareOptionID, saved.Number))
	s.notify(ctx, ports.LevelSuccess, title, saved.ID, fmt.Sprintf("Line item removed from order %s", saved.Number))
	return nil
}

func (s *Service) ensureExists(ctx context.Context, kind ports.EntityKind, id int64) error {
	ok, err := s.resolver.Exists(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ports.ErrEntityNotFound) {
			return mapError(err)
		}
		return fmt.Errorf("resolve %s %d: %w", kind, id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %d", ErrReferentialIntegrity, kind, id)
	}
	return nil
}

// missingOptions returns the software option ids the resolver does not know, in input order.
func (s *Service) missingOptions(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if batch, ok := s.resolver.(ports.OptionBatchResolver); ok {
		missing, err := batch.MissingOptionIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve software options: %w", err)
		}
		return missing, nil
	}
	var missing []int64
	for _, id := range ids {
		ok, err := s.resolver.Exists(ctx, ports.KindSoftwareOption, id)
		if err != nil && !errors.Is(err, ports.ErrEntityNotFound) {
			return nil, fmt.Errorf("resolve %s %d: %w", ports.KindSoftwareOption, id, err)
		}
		if err != nil || !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *Service) record(ctx context.Context, actor domain.Actor, action string, orderID int64, description string) {
	entry := ports.ActivityEntry{
		ID:          s.newID(),
		ActorID:     actor.ID,
		ActorName:   actor.Label(),
		ActionType:  action,
		Description: description,
		TargetType:  targetTypeOrder,
		TargetID:    orderID,
		RecordedAt:  s.now(),
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.notify(ctx, ports.LevelWarning, "Activity log", orderID, fmt.Sprintf("activity entry not recorded: %v", err))
	}
}

func (s *Service) notify(ctx context.Context, level ports.NotificationLevel, title string, orderID int64, message string) {
	_ = s.notifier.Notify(ctx, ports.Notification{
		Level:   level,
		Title:   title,
		Message: message,
		OrderID: orderID,
		At:      s.now(),
	})
}

// fail reports a refused or failed operation and returns the error unchanged.
func (s *Service) fail(ctx context.Context, title string, orderID int64, err error) error {
	level := ports.LevelError
	if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrValidationFailed) {
		level = ports.LevelWarning
	}
	s.notify(ctx, level, title, orderID, err.Error())
	return err
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ", ")
}

var _ ports.Service = (*Service)(nil)

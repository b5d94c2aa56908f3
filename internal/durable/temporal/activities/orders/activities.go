package orders

import (
	"context"
	"errors"
	"strings"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/machine-orders/internal/domains/orders/application"
	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

// CreateOrderActivityName persists a new draft order.
const CreateOrderActivityName = "orders.activities.CreateOrder"

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// CreateOrder runs the create use case. Business failures are returned as
// non-retryable application errors typed with their error kind; persistence
// and unclassified failures stay retryable. A retry first looks for the order
// an earlier attempt may already have committed and returns it unchanged.
func (a *Activities) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderView, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order create activity not initialized", "orderNumber", input.OrderNumber)
		return nil, errors.New("order create activity not initialized")
	}
	attempt := activity.GetInfo(ctx).Attempt
	logger.Info("CreateOrder activity started", "orderNumber", input.OrderNumber, "attempt", attempt)
	if attempt > 1 {
		existing, err := a.committedOrder(ctx, input)
		if err != nil {
			logger.Error("CreateOrder activity lookup failed", "orderNumber", input.OrderNumber, "error", err)
			return nil, toActivityError(err)
		}
		if existing != nil {
			logger.Info("CreateOrder activity found order from earlier attempt", "orderId", existing.Order.ID)
			return existing, nil
		}
	}
	view, err := a.service.CreateOrder(ctx, input)
	if err != nil {
		logger.Error("CreateOrder activity failed", "orderNumber", input.OrderNumber, "error", err)
		return nil, toActivityError(err)
	}
	logger.Info("CreateOrder activity completed", "orderId", view.Order.ID)
	return view, nil
}

// committedOrder returns the order with input's number created by input's actor, if any.
func (a *Activities) committedOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderView, error) {
	number := strings.TrimSpace(input.OrderNumber)
	if number == "" {
		return nil, nil
	}
	views, err := a.service.GetAllOrders(ctx, ordertypes.ListOrdersInput{OrderNumber: number})
	if err != nil {
		return nil, err
	}
	for _, view := range views {
		if view.Order.Number == number && view.Order.CreatedByUserID == input.Actor.ID {
			return view, nil
		}
	}
	return nil, nil
}

func toActivityError(err error) error {
	kind := application.ErrorKind(err)
	if kind == "" {
		return err
	}
	if errors.Is(err, application.ErrPersistenceFailure) {
		return temporal.NewApplicationErrorWithCause(err.Error(), kind, err)
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), kind, err)
}

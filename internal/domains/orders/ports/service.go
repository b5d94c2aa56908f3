package ports

import (
	"context"

	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
)

// Service defines the order lifecycle use cases exposed to adapters (inbound/driving port).
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderView, error)
	GetOrderByID(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderView, error)
	GetAllOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*ordertypes.OrderView, error)
	UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.UpdateOrderResult, error)
	RemoveLineItem(ctx context.Context, input ordertypes.RemoveLineItemInput) error
	SubmitForProduction(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error)
	StartProduction(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error)
	CompleteProduction(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error)
	StartSoftwareReview(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error)
	PutOnHold(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error)
	RejectOrder(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error)
	CancelOrder(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error)
}

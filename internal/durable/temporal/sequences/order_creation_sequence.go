package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/machine-orders/internal/durable/temporal/activities/orders"
)

// RunOrderCreationSequence executes the activities needed to persist a new order.
func RunOrderCreationSequence(ctx workflow.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderView, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order creation sequence started", "orderNumber", input.OrderNumber)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var view ordertypes.OrderView
	err := workflow.ExecuteActivity(ctx, orderactivities.CreateOrderActivityName, input).Get(ctx, &view)
	if err != nil {
		logger.Error("order creation sequence failed", "orderNumber", input.OrderNumber, "error", err)
		return nil, err
	}
	if view.Order != nil {
		logger.Info("order creation sequence completed", "orderId", view.Order.ID)
	}
	return &view, nil
}

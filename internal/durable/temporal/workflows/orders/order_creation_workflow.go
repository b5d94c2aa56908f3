package orders

import (
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/durable/temporal/sequences"
)

const (
	// OrderCreationWorkflowName is the public identifier for registering the workflow.
	OrderCreationWorkflowName = "orders.workflows.Creation"
	// OrderCreationTaskQueue is the queue consumed by the worker processing order workflows.
	OrderCreationTaskQueue = "ORDER_CREATION"
)

// OrderCreationWorkflowInput captures the payload required to create an order.
type OrderCreationWorkflowInput struct {
	Command ordertypes.CreateOrderInput
	TraceID string
}

// OrderCreationWorkflow orchestrates the activities needed to persist a new order.
func OrderCreationWorkflow(ctx workflow.Context, input OrderCreationWorkflowInput) (*ordertypes.OrderView, error) {
	logger := workflow.GetLogger(ctx)
	number := input.Command.OrderNumber
	logger.Info("OrderCreationWorkflow started", withTraceID(input.TraceID, "orderNumber", number)...)
	view, err := sequences.RunOrderCreationSequence(ctx, input.Command)
	if err != nil {
		logger.Error("OrderCreationWorkflow failed", withTraceID(input.TraceID, "orderNumber", number, "error", err)...)
		return nil, err
	}
	if view != nil && view.Order != nil {
		logger.Info("OrderCreationWorkflow completed", withTraceID(input.TraceID, "orderId", view.Order.ID)...)
	} else {
		logger.Info("OrderCreationWorkflow completed", withTraceID(input.TraceID)...)
	}
	return view, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

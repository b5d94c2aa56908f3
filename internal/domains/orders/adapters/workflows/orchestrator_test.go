package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/machine-orders/internal/domains/orders/adapters/memory"
	"github.com/Apurer/machine-orders/internal/domains/orders/application"
	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
)

func TestFromWorkflowError_RestoresKind(t *testing.T) {
	cause := temporal.NewNonRetryableApplicationError("conflict: order number already exists", "Conflict", nil)
	wrapped := temporal.NewApplicationErrorWithCause("workflow failed", "", cause)

	err := fromWorkflowError(wrapped)
	assert.ErrorIs(t, err, application.ErrConflict)

	unknown := temporal.NewApplicationError("boom", "SomethingElse")
	assert.Same(t, unknown, fromWorkflowError(unknown))

	plain := errors.New("dial tcp: connection refused")
	assert.Same(t, plain, fromWorkflowError(plain))
}

func TestBuildOrderCreationWorkflowID_StableForTrace(t *testing.T) {
	traceID, err := oteltrace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := oteltrace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := oteltrace.ContextWithSpanContext(context.Background(),
		oteltrace.NewSpanContext(oteltrace.SpanContextConfig{TraceID: traceID, SpanID: spanID}))

	input := ordertypes.CreateOrderInput{OrderNumber: " ORD-1 "}
	first := buildOrderCreationWorkflowID(input, workflowTraceComponent(ctx))
	second := buildOrderCreationWorkflowID(ordertypes.CreateOrderInput{OrderNumber: "ORD-1"}, workflowTraceComponent(ctx))
	assert.Equal(t, first, second)
	assert.Contains(t, first, traceID.String())

	assert.Contains(t, workflowTraceComponent(context.Background()), "fallback-")
}

func TestInlineOrderWorkflows_DelegatesToService(t *testing.T) {
	catalog := memory.NewCatalog().AddControlSystem(1, "CS").AddMachineModel(1, "MM")
	inline := NewInlineOrderWorkflows(application.NewService(memory.NewRepository(), catalog))

	view, err := inline.CreateOrder(context.Background(), ordertypes.CreateOrderInput{OrderNumber: "IN-1", ControlSystemID: 1, MachineModelID: 1})
	require.NoError(t, err)
	assert.Equal(t, "IN-1", view.Order.Number)

	var empty *InlineOrderWorkflows
	_, err = empty.CreateOrder(context.Background(), ordertypes.CreateOrderInput{})
	assert.Error(t, err)
}

package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/machine-orders/internal/domains/orders/application"
	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/machine-orders/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.CreateOrder",
		attribute.String("order.number", input.OrderNumber),
		attribute.Int("order.options.requested", len(input.SoftwareOptionIDs)))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.String("order.number", input.OrderNumber), slog.Int64("actor.id", input.Actor.ID))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.String("order.number", input.OrderNumber))
	}
	span.SetAttributes(attribute.Int64("order.id", result.Order.ID))
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "order created", slog.Int64("order.id", result.Order.ID), slog.String("order.number", result.Order.Number))
	return result, nil
}

func (s *Service) GetOrderByID(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.GetOrderByID", attribute.Int64("order.id", input.ID))
	defer span.End()

	result, err := s.inner.GetOrderByID(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", input.ID))
	}
	span.SetAttributes(attribute.String("order.status", string(result.Order.Status)))
	return result, nil
}

func (s *Service) GetAllOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.GetAllOrders", attribute.String("filter.status", input.Status))
	defer span.End()

	result, err := s.inner.GetAllOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) UpdateOrder(ctx context.Context, input ordertypes.UpdateOrderInput) (*ordertypes.UpdateOrderResult, error) {
	ctx, span := s.startSpan(ctx, "OrderService.UpdateOrder", attribute.Int64("order.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "updating order", slog.Int64("order.id", input.ID), slog.Int64("actor.id", input.Actor.ID))
	result, err := s.inner.UpdateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order", slog.Int64("order.id", input.ID))
	}
	s.metrics.recordUpdated(ctx)
	if len(result.UnresolvedOptionIDs) > 0 {
		span.SetAttributes(attribute.Int64Slice("order.options.unresolved", result.UnresolvedOptionIDs))
		s.logger.LogAttrs(ctx, slog.LevelWarn, "order updated with unresolved software options",
			slog.Int64("order.id", input.ID), slog.Any("option.ids", result.UnresolvedOptionIDs))
	}
	return result, nil
}

func (s *Service) RemoveLineItem(ctx context.Context, input ordertypes.RemoveLineItemInput) error {
	ctx, span := s.startSpan(ctx, "OrderService.RemoveLineItem",
		attribute.Int64("order.id", input.OrderID), attribute.Int64("order.item.id", input.ItemID))
	defer span.End()

	if err := s.inner.RemoveLineItem(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to remove line item",
			slog.Int64("order.id", input.OrderID), slog.Int64("order.item.id", input.ItemID))
	}
	s.metrics.recordUpdated(ctx)
	s.logInfo(ctx, "line item removed", slog.Int64("order.id", input.OrderID), slog.Int64("order.item.id", input.ItemID))
	return nil
}

func (s *Service) SubmitForProduction(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error) {
	return s.transition(ctx, domain.ActionSubmitForProduction, input, s.inner.SubmitForProduction)
}

func (s *Service) StartProduction(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error) {
	return s.transition(ctx, domain.ActionStartProduction, input, s.inner.StartProduction)
}

func (s *Service) CompleteProduction(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error) {
	return s.transition(ctx, domain.ActionCompleteProduction, input, s.inner.CompleteProduction)
}

func (s *Service) StartSoftwareReview(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error) {
	return s.transition(ctx, domain.ActionStartSoftwareReview, input, s.inner.StartSoftwareReview)
}

func (s *Service) PutOnHold(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error) {
	return s.transition(ctx, domain.ActionPutOnHold, input, s.inner.PutOnHold)
}

func (s *Service) RejectOrder(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error) {
	return s.transition(ctx, domain.ActionReject, input, s.inner.RejectOrder)
}

func (s *Service) CancelOrder(ctx context.Context, input ordertypes.TransitionInput) (*ordertypes.OrderView, error) {
	return s.transition(ctx, domain.ActionCancel, input, s.inner.CancelOrder)
}

type transitionFunc func(context.Context, ordertypes.TransitionInput) (*ordertypes.OrderView, error)

func (s *Service) transition(ctx context.Context, action domain.Action, input ordertypes.TransitionInput, next transitionFunc) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.Transition",
		attribute.String("order.action", string(action)),
		attribute.Int64("order.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "transitioning order", slog.Int64("order.id", input.ID), slog.String("order.action", string(action)))
	result, err := next(ctx, input)
	if err != nil {
		if errors.Is(err, application.ErrInvalidTransition) {
			s.metrics.recordRejected(ctx, action)
		}
		return nil, s.handleError(ctx, span, err, "failed to transition order",
			slog.Int64("order.id", input.ID), slog.String("order.action", string(action)))
	}
	span.SetAttributes(attribute.String("order.status", string(result.Order.Status)))
	s.metrics.recordTransitioned(ctx, action, result.Order.Status)
	s.logInfo(ctx, "order transitioned", slog.Int64("order.id", input.ID), slog.String("order.status", string(result.Order.Status)))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	created             metric.Int64Counter
	transitioned        metric.Int64Counter
	updated             metric.Int64Counter
	rejectedTransitions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	transitioned, _ := m.Int64Counter("orders.service.transitioned", metric.WithDescription("Number of successful workflow transitions"))
	updated, _ := m.Int64Counter("orders.service.updated", metric.WithDescription("Number of order edits"))
	rejected, _ := m.Int64Counter("orders.service.rejected_transitions", metric.WithDescription("Number of transitions refused by the status guard"))
	return serviceMetrics{created: created, transitioned: transitioned, updated: updated, rejectedTransitions: rejected}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	addCounter(ctx, m.created, 1)
}

func (m serviceMetrics) recordUpdated(ctx context.Context) {
	addCounter(ctx, m.updated, 1)
}

func (m serviceMetrics) recordTransitioned(ctx context.Context, action domain.Action, status domain.Status) {
	addCounter(ctx, m.transitioned, 1, attribute.String("action", string(action)), attribute.String("status", string(status)))
}

func (m serviceMetrics) recordRejected(ctx context.Context, action domain.Action) {
	addCounter(ctx, m.rejectedTransitions, 1, attribute.String("action", string(action)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)

package orderserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/machine-orders/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
	apierrors "github.com/Apurer/machine-orders/internal/shared/errors"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
)

// OrderAPI wires HTTP transport with the orders service and workflows.
type OrderAPI struct {
	service   ports.Service
	workflows ports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. When workflows is nil orders are created through the service directly.
func NewOrderAPI(service ports.Service, workflows ports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /api/v1/orders
// Create a draft order
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var payload orderhttpmapper.CreateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	view, err := api.createOrder(c.Request.Context(), orderhttpmapper.ToCreateInput(payload, actor))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromView(view))
}

func (api *OrderAPI) createOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderView, error) {
	if api.workflows != nil {
		return api.workflows.CreateOrder(ctx, input)
	}
	return api.service.CreateOrder(ctx, input)
}

// Get /api/v1/orders
// List orders matching the query filters
func (api *OrderAPI) ListOrders(c *gin.Context) {
	input, err := parseListQuery(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	views, err := api.service.GetAllOrders(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromViewList(views))
}

// Get /api/v1/orders/:orderId
// Find order by ID
func (api *OrderAPI) GetOrderById(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	view, err := api.service.GetOrderByID(c.Request.Context(), ordertypes.OrderIdentifier{ID: id})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromView(view))
}

// Put /api/v1/orders/:orderId
// Replace the editable fields of an order
func (api *OrderAPI) UpdateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.UpdateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := api.service.UpdateOrder(c.Request.Context(), orderhttpmapper.ToUpdateInput(id, payload, actor))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromUpdateResult(result))
}

// Delete /api/v1/orders/:orderId/items/:itemId
// Remove a software option line item
func (api *OrderAPI) RemoveLineItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	input := ordertypes.RemoveLineItemInput{OrderID: orderID, ItemID: itemID, Actor: actor}
	if err := api.service.RemoveLineItem(c.Request.Context(), input); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /api/v1/orders/:orderId/submit
func (api *OrderAPI) SubmitForProduction(c *gin.Context) {
	api.transition(c, api.service.SubmitForProduction)
}

// Post /api/v1/orders/:orderId/start-production
func (api *OrderAPI) StartProduction(c *gin.Context) {
	api.transition(c, api.service.StartProduction)
}

// Post /api/v1/orders/:orderId/complete-production
func (api *OrderAPI) CompleteProduction(c *gin.Context) {
	api.transition(c, api.service.CompleteProduction)
}

// Post /api/v1/orders/:orderId/start-software-review
func (api *OrderAPI) StartSoftwareReview(c *gin.Context) {
	api.transition(c, api.service.StartSoftwareReview)
}

// Post /api/v1/orders/:orderId/hold
func (api *OrderAPI) PutOnHold(c *gin.Context) {
	api.transition(c, api.service.PutOnHold)
}

// Post /api/v1/orders/:orderId/reject
// Notes are required.
func (api *OrderAPI) RejectOrder(c *gin.Context) {
	api.transition(c, api.service.RejectOrder)
}

// Post /api/v1/orders/:orderId/cancel
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	api.transition(c, api.service.CancelOrder)
}

func (api *OrderAPI) transition(c *gin.Context, run func(context.Context, ordertypes.TransitionInput) (*ordertypes.OrderView, error)) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.Transition
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondBadRequest(c, err)
			return
		}
	}
	view, err := run(c.Request.Context(), ordertypes.TransitionInput{ID: id, Notes: payload.Notes, Actor: actor})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromView(view))
}

// requireActor reads the authenticated user forwarded by the gateway.
func requireActor(c *gin.Context) (domain.Actor, bool) {
	raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil || id <= 0 {
		responder.Respond(c, apierrors.ErrUnauthorized.WithDetail(HeaderUserID+" header must carry a positive user id"))
		return domain.Actor{}, false
	}
	return domain.Actor{ID: id, Name: strings.TrimSpace(c.GetHeader(HeaderUserName))}, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondBadRequest(c, fmt.Errorf("%s must be an integer", name))
		return 0, false
	}
	return id, true
}

func parseListQuery(c *gin.Context) (ordertypes.ListOrdersInput, error) {
	input := ordertypes.ListOrdersInput{
		Status:       c.Query("status"),
		OrderNumber:  c.Query("orderNumber"),
		CustomerName: c.Query("customerName"),
	}
	var err error
	if input.From, err = parseDateQuery(c, "from", false); err != nil {
		return input, err
	}
	if input.To, err = parseDateQuery(c, "to", true); err != nil {
		return input, err
	}
	if input.ControlSystemID, err = parseIntQuery(c, "controlSystemId"); err != nil {
		return input, err
	}
	if input.MachineModelID, err = parseIntQuery(c, "machineModelId"); err != nil {
		return input, err
	}
	return input, nil
}

// parseDateQuery accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func parseDateQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, errors.New(key + " must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseIntQuery(c *gin.Context, key string) (int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

package orderserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderhttpmapper "github.com/Apurer/machine-orders/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/machine-orders/internal/domains/orders/adapters/memory"
	"github.com/Apurer/machine-orders/internal/domains/orders/application"
	apierrors "github.com/Apurer/machine-orders/internal/shared/errors"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog := memory.NewCatalog().
		AddControlSystem(1, "Heidenhain TNC 640").
		AddMachineModel(1, "DMU 50").
		AddSoftwareOption(1, "Dynamic Collision Monitoring", "2.0").
		AddSoftwareOption(2, "Adaptive Feed Control", "1.3")
	svc := application.NewService(memory.NewRepository(), catalog)
	return NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{OrderAPI: NewOrderAPI(svc, nil)})
}

func do(t *testing.T, router *gin.Engine, method, path string, body any, withActor bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withActor {
		req.Header.Set(HeaderUserID, "12")
		req.Header.Set(HeaderUserName, "Dana Reviewer")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) orderhttpmapper.Order {
	t.Helper()
	var order orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	return order
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func createOrder(t *testing.T, router *gin.Engine, number string) orderhttpmapper.Order {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/v1/orders", orderhttpmapper.CreateOrder{
		OrderNumber:       number,
		CustomerName:      "Acme Tooling",
		ControlSystemID:   1,
		MachineModelID:    1,
		SoftwareOptionIDs: []int64{1, 2},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeOrder(t, rec)
}

func orderPath(id int64, suffix string) string {
	return "/api/v1/orders/" + strconv.FormatInt(id, 10) + suffix
}

func TestCreateOrder_ReturnsDraftWithResolvedNames(t *testing.T) {
	router := newTestRouter(t)

	order := createOrder(t, router, "HTTP-1")

	assert.Equal(t, "HTTP-1", order.OrderNumber)
	assert.Equal(t, "draft", order.Status)
	assert.Equal(t, "Heidenhain TNC 640", order.ControlSystem.Name)
	assert.Equal(t, "DMU 50", order.MachineModel.Name)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, int64(12), order.CreatedByUserID)
	assert.Equal(t, int64(1), order.Revision)
}

func TestCreateOrder_MapsErrorsToProblems(t *testing.T) {
	router := newTestRouter(t)
	createOrder(t, router, "HTTP-1")

	cases := []struct {
		name    string
		payload orderhttpmapper.CreateOrder
		status  int
	}{
		{"blank number", orderhttpmapper.CreateOrder{ControlSystemID: 1, MachineModelID: 1}, http.StatusBadRequest},
		{"duplicate number", orderhttpmapper.CreateOrder{OrderNumber: "HTTP-1", ControlSystemID: 1, MachineModelID: 1}, http.StatusConflict},
		{"unknown machine model", orderhttpmapper.CreateOrder{OrderNumber: "HTTP-2", ControlSystemID: 1, MachineModelID: 9}, http.StatusUnprocessableEntity},
		{"unknown option", orderhttpmapper.CreateOrder{OrderNumber: "HTTP-3", ControlSystemID: 1, MachineModelID: 1, SoftwareOptionIDs: []int64{42}}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/v1/orders", tc.payload, true)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec)
			assert.Equal(t, tc.status, problem.Status)
			assert.Equal(t, "/api/v1/orders", problem.Instance)
		})
	}
}

func TestMutations_RequireActorHeader(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/orders", orderhttpmapper.CreateOrder{OrderNumber: "X"}, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeProblem(t, rec).Status)

	rec = do(t, router, http.MethodPost, orderPath(1, "/submit"), nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetOrderById(t *testing.T) {
	router := newTestRouter(t)
	created := createOrder(t, router, "HTTP-1")

	rec := do(t, router, http.MethodGet, orderPath(created.ID, ""), nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeOrder(t, rec).ID)

	rec = do(t, router, http.MethodGet, orderPath(999, ""), nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/orders/abc", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_FiltersByQuery(t *testing.T) {
	router := newTestRouter(t)
	first := createOrder(t, router, "HTTP-1")
	createOrder(t, router, "HTTP-2")
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, orderPath(first.ID, "/submit"), nil, true).Code)

	rec := do(t, router, http.MethodGet, "/api/v1/orders?status=ready_for_production", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []orderhttpmapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "HTTP-1", orders[0].OrderNumber)

	rec = do(t, router, http.MethodGet, "/api/v1/orders?orderNumber=http", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 2)

	rec = do(t, router, http.MethodGet, "/api/v1/orders?from=yesterday", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/orders?controlSystemId=one", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrder_ReportsUnresolvedOptions(t *testing.T) {
	router := newTestRouter(t)
	created := createOrder(t, router, "HTTP-1")

	options := []int64{2, 77}
	rec := do(t, router, http.MethodPut, orderPath(created.ID, ""), orderhttpmapper.UpdateOrder{
		CustomerName:      "Acme Tooling GmbH",
		SoftwareOptionIDs: &options,
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result orderhttpmapper.UpdateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []int64{77}, result.UnresolvedSoftwareOptionIDs)
	assert.Equal(t, "Acme Tooling GmbH", result.Order.CustomerName)
	require.Len(t, result.Order.Items, 1)
	assert.Equal(t, int64(2), result.Order.Items[0].SoftwareOptionID)
}

func TestRemoveLineItem(t *testing.T) {
	router := newTestRouter(t)
	created := createOrder(t, router, "HTTP-1")
	itemID := created.Items[0].ID

	rec := do(t, router, http.MethodDelete, orderPath(created.ID, "/items/"+strconv.FormatInt(itemID, 10)), nil, true)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodDelete, orderPath(created.ID, "/items/"+strconv.FormatInt(itemID, 10)), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransitions_WalkTheWorkflow(t *testing.T) {
	router := newTestRouter(t)
	created := createOrder(t, router, "HTTP-1")

	steps := []struct {
		suffix string
		status string
	}{
		{"/submit", "ready_for_production"},
		{"/start-production", "production_in_progress"},
		{"/complete-production", "ready_for_software_review"},
		{"/start-software-review", "software_review_in_progress"},
		{"/hold", "on_hold"},
	}
	for _, step := range steps {
		rec := do(t, router, http.MethodPost, orderPath(created.ID, step.suffix), orderhttpmapper.Transition{Notes: "ok " + step.suffix}, true)
		require.Equal(t, http.StatusOK, rec.Code, step.suffix+": "+rec.Body.String())
		assert.Equal(t, step.status, decodeOrder(t, rec).Status)
	}

	rec := do(t, router, http.MethodPost, orderPath(created.ID, "/cancel"), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decodeOrder(t, rec)
	assert.Equal(t, "cancelled", order.Status)
	assert.Contains(t, order.History.Production, "Dana Reviewer")
}

func TestTransitions_MapGuardFailures(t *testing.T) {
	router := newTestRouter(t)
	created := createOrder(t, router, "HTTP-1")

	rec := do(t, router, http.MethodPost, orderPath(created.ID, "/start-production"), nil, true)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.ErrInvalidTransition.Type, decodeProblem(t, rec).Type)

	rec = do(t, router, http.MethodPost, orderPath(created.ID, "/reject"), orderhttpmapper.Transition{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, orderPath(created.ID, "/submit"), "not an object", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

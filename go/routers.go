package orderserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the API handlers served by the router.
type ApiHandleFunctions struct {
	OrderAPI OrderAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	api := handleFunctions.OrderAPI
	return []Route{
		{"CreateOrder", http.MethodPost, "/api/v1/orders", api.CreateOrder},
		{"ListOrders", http.MethodGet, "/api/v1/orders", api.ListOrders},
		{"GetOrderById", http.MethodGet, "/api/v1/orders/:orderId", api.GetOrderById},
		{"UpdateOrder", http.MethodPut, "/api/v1/orders/:orderId", api.UpdateOrder},
		{"RemoveLineItem", http.MethodDelete, "/api/v1/orders/:orderId/items/:itemId", api.RemoveLineItem},
		{"SubmitForProduction", http.MethodPost, "/api/v1/orders/:orderId/submit", api.SubmitForProduction},
		{"StartProduction", http.MethodPost, "/api/v1/orders/:orderId/start-production", api.StartProduction},
		{"CompleteProduction", http.MethodPost, "/api/v1/orders/:orderId/complete-production", api.CompleteProduction},
		{"StartSoftwareReview", http.MethodPost, "/api/v1/orders/:orderId/start-software-review", api.StartSoftwareReview},
		{"PutOnHold", http.MethodPost, "/api/v1/orders/:orderId/hold", api.PutOnHold},
		{"RejectOrder", http.MethodPost, "/api/v1/orders/:orderId/reject", api.RejectOrder},
		{"CancelOrder", http.MethodPost, "/api/v1/orders/:orderId/cancel", api.CancelOrder},
	}
}

package mapper

import (
	"time"

	ordertypes "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
)

// CreateOrder is the inbound payload for POST /orders.
type CreateOrder struct {
	OrderNumber       string     `json:"orderNumber"`
	CustomerName      string     `json:"customerName,omitempty"`
	OrderDate         *time.Time `json:"orderDate,omitempty"`
	RequiredDate      *time.Time `json:"requiredDate,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	ControlSystemID   int64      `json:"controlSystemId"`
	MachineModelID    int64      `json:"machineModelId"`
	SoftwareOptionIDs []int64    `json:"softwareOptionIds,omitempty"`
}

// UpdateOrder is the inbound payload for PUT /orders/:orderId. Zero reference ids
// keep the current value; an absent softwareOptionIds leaves the line items alone.
type UpdateOrder struct {
	CustomerName      string     `json:"customerName"`
	RequiredDate      *time.Time `json:"requiredDate"`
	Notes             string     `json:"notes"`
	ControlSystemID   int64      `json:"controlSystemId,omitempty"`
	MachineModelID    int64      `json:"machineModelId,omitempty"`
	SoftwareOptionIDs *[]int64   `json:"softwareOptionIds,omitempty"`
}

// Transition carries the optional notes of a workflow action.
type Transition struct {
	Notes string `json:"notes"`
}

type Reference struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type LineItem struct {
	ID               int64     `json:"id"`
	SoftwareOptionID int64     `json:"softwareOptionId"`
	Name             string    `json:"name,omitempty"`
	Version          string    `json:"version,omitempty"`
	AddedAt          time.Time `json:"addedAt"`
}

// History holds the rendered note log, one block per workflow stage.
type History struct {
	General        string `json:"general,omitempty"`
	OrderReview    string `json:"orderReview,omitempty"`
	Production     string `json:"production,omitempty"`
	SoftwareReview string `json:"softwareReview,omitempty"`
}

// Order is the HTTP representation of an order view.
type Order struct {
	ID                     int64      `json:"id"`
	OrderNumber            string     `json:"orderNumber"`
	CustomerName           string     `json:"customerName,omitempty"`
	OrderDate              time.Time  `json:"orderDate"`
	RequiredDate           *time.Time `json:"requiredDate,omitempty"`
	Status                 string     `json:"status"`
	Notes                  string     `json:"notes,omitempty"`
	ControlSystem          Reference  `json:"controlSystem"`
	MachineModel           Reference  `json:"machineModel"`
	Items                  []LineItem `json:"items"`
	CreatedByUserID        int64      `json:"createdByUserId"`
	CreatedAt              time.Time  `json:"createdAt"`
	OrderReviewerUserID    *int64     `json:"orderReviewerUserId,omitempty"`
	OrderReviewedAt        *time.Time `json:"orderReviewedAt,omitempty"`
	ProductionTechUserID   *int64     `json:"productionTechUserId,omitempty"`
	ProductionCompletedAt  *time.Time `json:"productionCompletedAt,omitempty"`
	SoftwareReviewerUserID *int64     `json:"softwareReviewerUserId,omitempty"`
	SoftwareReviewedAt     *time.Time `json:"softwareReviewedAt,omitempty"`
	LastModifiedByUserID   int64      `json:"lastModifiedByUserId"`
	LastModifiedAt         time.Time  `json:"lastModifiedAt"`
	Revision               int64      `json:"revision"`
	History                History    `json:"history"`
}

// UpdateResult is returned by PUT /orders/:orderId.
type UpdateResult struct {
	Order                       Order   `json:"order"`
	UnresolvedSoftwareOptionIDs []int64 `json:"unresolvedSoftwareOptionIds,omitempty"`
}

func ToCreateInput(payload CreateOrder, actor domain.Actor) ordertypes.CreateOrderInput {
	return ordertypes.CreateOrderInput{
		OrderNumber:       payload.OrderNumber,
		CustomerName:      payload.CustomerName,
		OrderDate:         payload.OrderDate,
		RequiredDate:      payload.RequiredDate,
		Notes:             payload.Notes,
		ControlSystemID:   payload.ControlSystemID,
		MachineModelID:    payload.MachineModelID,
		SoftwareOptionIDs: payload.SoftwareOptionIDs,
		Actor:             actor,
	}
}

func ToUpdateInput(id int64, payload UpdateOrder, actor domain.Actor) ordertypes.UpdateOrderInput {
	return ordertypes.UpdateOrderInput{
		ID:                id,
		CustomerName:      payload.CustomerName,
		RequiredDate:      payload.RequiredDate,
		Notes:             payload.Notes,
		ControlSystemID:   payload.ControlSystemID,
		MachineModelID:    payload.MachineModelID,
		SoftwareOptionIDs: payload.SoftwareOptionIDs,
		Actor:             actor,
	}
}

// FromView maps an application view to its HTTP representation.
func FromView(view *ordertypes.OrderView) Order {
	if view == nil || view.Order == nil {
		return Order{}
	}
	o := view.Order
	items := make([]LineItem, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, LineItem{
			ID:               item.ID,
			SoftwareOptionID: item.SoftwareOptionID,
			Name:             item.OptionName,
			Version:          item.OptionVersion,
			AddedAt:          item.AddedAt,
		})
	}
	return Order{
		ID:                     o.ID,
		OrderNumber:            o.Number,
		CustomerName:           o.CustomerName,
		OrderDate:              o.OrderDate,
		RequiredDate:           o.RequiredDate,
		Status:                 o.Status.String(),
		Notes:                  o.Notes,
		ControlSystem:          Reference{ID: o.ControlSystemID, Name: view.ControlSystemName},
		MachineModel:           Reference{ID: o.MachineModelID, Name: view.MachineModelName},
		Items:                  items,
		CreatedByUserID:        o.CreatedByUserID,
		CreatedAt:              o.CreatedAt,
		OrderReviewerUserID:    o.OrderReviewerUserID,
		OrderReviewedAt:        o.OrderReviewedAt,
		ProductionTechUserID:   o.ProductionTechUserID,
		ProductionCompletedAt:  o.ProductionCompletedAt,
		SoftwareReviewerUserID: o.SoftwareReviewerUserID,
		SoftwareReviewedAt:     o.SoftwareReviewedAt,
		LastModifiedByUserID:   o.LastModifiedByUserID,
		LastModifiedAt:         o.LastModifiedAt,
		Revision:               o.Revision,
		History: History{
			General:        view.HistoryNotes,
			OrderReview:    view.OrderReviewNotes,
			Production:     view.ProductionNotes,
			SoftwareReview: view.SoftwareReviewNotes,
		},
	}
}

func FromViewList(views []*ordertypes.OrderView) []Order {
	result := make([]Order, 0, len(views))
	for _, view := range views {
		result = append(result, FromView(view))
	}
	return result
}

func FromUpdateResult(result *ordertypes.UpdateOrderResult) UpdateResult {
	if result == nil {
		return UpdateResult{}
	}
	return UpdateResult{Order: FromView(result.Order), UnresolvedSoftwareOptionIDs: result.UnresolvedOptionIDs}
}

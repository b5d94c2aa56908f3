package types

import (
	"time"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
)

// LineItemView is a line item joined with its software option display data.
type LineItemView struct {
	ID               int64
	SoftwareOptionID int64
	OptionName       string
	OptionVersion    string
	AddedAt          time.Time
}

// OrderView transports an order aggregate together with resolved display data.
type OrderView struct {
	Order               *domain.Order
	ControlSystemName   string
	MachineModelName    string
	Items               []LineItemView
	HistoryNotes        string
	OrderReviewNotes    string
	ProductionNotes     string
	SoftwareReviewNotes string
}

// UpdateOrderResult reports the updated order and the option ids that could not be added.
type UpdateOrderResult struct {
	Order               *OrderView
	UnresolvedOptionIDs []int64
}

package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrEmptyOrderNumber     = errors.New("order number is required")
	ErrInvalidControlSystem = errors.New("control system id must be greater than zero")
	ErrInvalidMachineModel  = errors.New("machine model id must be greater than zero")
	ErrInvalidOption        = errors.New("software option id must be greater than zero")
	ErrDuplicateOption      = errors.New("software option already present on order")
	ErrLineItemNotFound     = errors.New("order line item not found")
	ErrContentLocked        = errors.New("order content can no longer be changed")
	ErrOrderClosed          = errors.New("order is closed for changes")
)

// Actor identifies the already-authenticated user performing an operation.
type Actor struct {
	ID   int64
	Name string
}

// Label returns the display name used in notes and audit entries.
func (a Actor) Label() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return fmt.Sprintf("user %d", a.ID)
}

// LineItem references one software option to be installed for the order.
type LineItem struct {
	ID               int64
	SoftwareOptionID int64
	AddedAt          time.Time
}

// Order is the aggregate tracked through review, production and software verification.
type Order struct {
	ID           int64
	Number       string
	CustomerName string
	OrderDate    time.Time
	RequiredDate *time.Time
	Status       Status
	Notes        string

	ControlSystemID int64
	MachineModelID  int64

	CreatedByUserID int64
	CreatedAt       time.Time

	OrderReviewerUserID *int64
	OrderReviewedAt     *time.Time

	ProductionTechUserID  *int64
	ProductionCompletedAt *time.Time

	SoftwareReviewerUserID *int64
	SoftwareReviewedAt     *time.Time

	LastModifiedByUserID int64
	LastModifiedAt       time.Time

	Items   []LineItem
	NoteLog []NoteEntry

	// Revision is the optimistic concurrency token compared on every save.
	Revision int64
}

// NewOrder validates the invariants and builds a draft order.
func NewOrder(number string, controlSystemID, machineModelID int64, creator Actor, at time.Time) (*Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrEmptyOrderNumber
	}
	o := &Order{
		Number:          number,
		OrderDate:       at,
		Status:          StatusDraft,
		CreatedByUserID: creator.ID,
		CreatedAt:       at,
	}
	if err := o.ChangeReferences(controlSystemID, machineModelID); err != nil {
		return nil, err
	}
	o.Touch(creator, at)
	return o, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.Number) == "" {
		return ErrEmptyOrderNumber
	}
	if o.ControlSystemID <= 0 {
		return ErrInvalidControlSystem
	}
	if o.MachineModelID <= 0 {
		return ErrInvalidMachineModel
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	seen := make(map[int64]struct{}, len(o.Items))
	for _, item := range o.Items {
		if _, dup := seen[item.SoftwareOptionID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateOption, item.SoftwareOptionID)
		}
		seen[item.SoftwareOptionID] = struct{}{}
	}
	return nil
}

// EnsureEditable rejects edits once the order is completed or cancelled.
func (o *Order) EnsureEditable() error {
	if o.Status.Closed() {
		return fmt.Errorf("%w: status %s", ErrOrderClosed, o.Status)
	}
	return nil
}

// ChangeReferences sets the control system and machine model references.
func (o *Order) ChangeReferences(controlSystemID, machineModelID int64) error {
	if controlSystemID <= 0 {
		return ErrInvalidControlSystem
	}
	if machineModelID <= 0 {
		return ErrInvalidMachineModel
	}
	o.ControlSystemID = controlSystemID
	o.MachineModelID = machineModelID
	return nil
}

// ApplyDetails replaces the free-form fields of the order.
func (o *Order) ApplyDetails(customerName string, requiredDate *time.Time, notes string) {
	o.CustomerName = strings.TrimSpace(customerName)
	if requiredDate != nil {
		d := *requiredDate
		o.RequiredDate = &d
	} else {
		o.RequiredDate = nil
	}
	o.Notes = notes
}

// HasOption reports whether a software option is already on the order.
func (o *Order) HasOption(optionID int64) bool {
	return slices.ContainsFunc(o.Items, func(item LineItem) bool {
		return item.SoftwareOptionID == optionID
	})
}

// OptionIDs returns the software option ids in display order.
func (o *Order) OptionIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.SoftwareOptionID)
	}
	return ids
}

// AddLineItem appends a software option; duplicates are rejected.
func (o *Order) AddLineItem(optionID int64, at time.Time) error {
	if optionID <= 0 {
		return ErrInvalidOption
	}
	if o.HasOption(optionID) {
		return fmt.Errorf("%w: %d", ErrDuplicateOption, optionID)
	}
	o.Items = append(o.Items, LineItem{SoftwareOptionID: optionID, AddedAt: at})
	return nil
}

// RemoveLineItem drops a line item by its id.
func (o *Order) RemoveLineItem(itemID int64) (LineItem, error) {
	if o.Status.ContentLocked() {
		return LineItem{}, fmt.Errorf("%w: status %s", ErrContentLocked, o.Status)
	}
	idx := slices.IndexFunc(o.Items, func(item LineItem) bool { return item.ID == itemID })
	if idx < 0 {
		return LineItem{}, fmt.Errorf("%w: %d", ErrLineItemNotFound, itemID)
	}
	removed := o.Items[idx]
	o.Items = slices.Delete(o.Items, idx, idx+1)
	return removed, nil
}

// ReconcileItems drops items whose option is not requested and returns the
// requested option ids that still need to be added, deduplicated and in request order.
func (o *Order) ReconcileItems(requested []int64) []int64 {
	wanted := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		wanted[id] = struct{}{}
	}
	o.Items = slices.DeleteFunc(o.Items, func(item LineItem) bool {
		_, keep := wanted[item.SoftwareOptionID]
		return !keep
	})
	var missing []int64
	for _, id := range requested {
		if o.HasOption(id) || slices.Contains(missing, id) {
			continue
		}
		missing = append(missing, id)
	}
	return missing
}

// Touch stamps modification metadata; the timestamp never moves backwards.
func (o *Order) Touch(actor Actor, at time.Time) {
	o.LastModifiedByUserID = actor.ID
	if at.After(o.LastModifiedAt) {
		o.LastModifiedAt = at
	}
}

// Clone returns a deep copy of the aggregate.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.RequiredDate = clonePtr(o.RequiredDate)
	c.OrderReviewerUserID = clonePtr(o.OrderReviewerUserID)
	c.OrderReviewedAt = clonePtr(o.OrderReviewedAt)
	c.ProductionTechUserID = clonePtr(o.ProductionTechUserID)
	c.ProductionCompletedAt = clonePtr(o.ProductionCompletedAt)
	c.SoftwareReviewerUserID = clonePtr(o.SoftwareReviewerUserID)
	c.SoftwareReviewedAt = clonePtr(o.SoftwareReviewedAt)
	c.Items = slices.Clone(o.Items)
	c.NoteLog = slices.Clone(o.NoteLog)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package postgres

import (
	"time"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
)

// orderRecord maps the order aggregate root to a relational table.
type orderRecord struct {
	ID           int64      `gorm:"primaryKey;column:id"`
	Number       string     `gorm:"column:order_number;size:64;uniqueIndex"`
	CustomerName string     `gorm:"column:customer_name"`
	OrderDate    time.Time  `gorm:"column:order_date;index"`
	RequiredDate *time.Time `gorm:"column:required_date"`
	Status       string     `gorm:"column:status;type:varchar(40);index"`
	Notes        string     `gorm:"column:notes;type:text"`

	ControlSystemID int64 `gorm:"column:control_system_id;index"`
	MachineModelID  int64 `gorm:"column:machine_model_id;index"`

	CreatedByUserID int64     `gorm:"column:created_by_user_id"`
	CreatedAt       time.Time `gorm:"column:created_at"`

	OrderReviewerUserID    *int64     `gorm:"column:order_reviewer_user_id"`
	OrderReviewedAt        *time.Time `gorm:"column:order_reviewed_at"`
	ProductionTechUserID   *int64     `gorm:"column:production_tech_user_id"`
	ProductionCompletedAt  *time.Time `gorm:"column:production_completed_at"`
	SoftwareReviewerUserID *int64     `gorm:"column:software_reviewer_user_id"`
	SoftwareReviewedAt     *time.Time `gorm:"column:software_reviewed_at"`

	LastModifiedByUserID int64     `gorm:"column:last_modified_by_user_id"`
	LastModifiedAt       time.Time `gorm:"column:last_modified_at"`
	Revision             int64     `gorm:"column:revision;not null;default:1"`
}

func (orderRecord) TableName() string { return "orders" }

type itemRecord struct {
	ID               int64     `gorm:"primaryKey;column:id"`
	OrderID          int64     `gorm:"column:order_id;uniqueIndex:idx_order_items_option"`
	SoftwareOptionID int64     `gorm:"column:software_option_id;uniqueIndex:idx_order_items_option"`
	AddedAt          time.Time `gorm:"column:added_at"`
}

func (itemRecord) TableName() string { return "order_items" }

type noteRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	OrderID   int64     `gorm:"column:order_id;index"`
	Field     string    `gorm:"column:field;type:varchar(32)"`
	Action    string    `gorm:"column:action"`
	ActorID   int64     `gorm:"column:actor_id"`
	ActorName string    `gorm:"column:actor_name"`
	At        time.Time `gorm:"column:recorded_at"`
	Text      string    `gorm:"column:body;type:text"`
}

func (noteRecord) TableName() string { return "order_notes" }

// Models lists the order tables for schema migrations.
func Models() []any {
	return []any{&orderRecord{}, &itemRecord{}, &noteRecord{}, &controlSystemRecord{}, &machineModelRecord{}, &softwareOptionRecord{}, &activityRecord{}}
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:                     order.ID,
		Number:                 order.Number,
		CustomerName:           order.CustomerName,
		OrderDate:              order.OrderDate,
		RequiredDate:           order.RequiredDate,
		Status:                 string(order.Status),
		Notes:                  order.Notes,
		ControlSystemID:        order.ControlSystemID,
		MachineModelID:         order.MachineModelID,
		CreatedByUserID:        order.CreatedByUserID,
		CreatedAt:              order.CreatedAt,
		OrderReviewerUserID:    order.OrderReviewerUserID,
		OrderReviewedAt:        order.OrderReviewedAt,
		ProductionTechUserID:   order.ProductionTechUserID,
		ProductionCompletedAt:  order.ProductionCompletedAt,
		SoftwareReviewerUserID: order.SoftwareReviewerUserID,
		SoftwareReviewedAt:     order.SoftwareReviewedAt,
		LastModifiedByUserID:   order.LastModifiedByUserID,
		LastModifiedAt:         order.LastModifiedAt,
		Revision:               order.Revision,
	}
}

// columns lists the mutable columns written by Save. The order number never changes.
func (r orderRecord) columns() map[string]any {
	return map[string]any{
		"customer_name":             r.CustomerName,
		"order_date":                r.OrderDate,
		"required_date":             r.RequiredDate,
		"status":                    r.Status,
		"notes":                     r.Notes,
		"control_system_id":         r.ControlSystemID,
		"machine_model_id":          r.MachineModelID,
		"order_reviewer_user_id":    r.OrderReviewerUserID,
		"order_reviewed_at":         r.OrderReviewedAt,
		"production_tech_user_id":   r.ProductionTechUserID,
		"production_completed_at":   r.ProductionCompletedAt,
		"software_reviewer_user_id": r.SoftwareReviewerUserID,
		"software_reviewed_at":      r.SoftwareReviewedAt,
		"last_modified_by_user_id":  r.LastModifiedByUserID,
		"last_modified_at":          r.LastModifiedAt,
	}
}

func (r orderRecord) toDomain(items []itemRecord, notes []noteRecord) *domain.Order {
	order := &domain.Order{
		ID:                     r.ID,
		Number:                 r.Number,
		CustomerName:           r.CustomerName,
		OrderDate:              r.OrderDate.UTC(),
		RequiredDate:           utcPtr(r.RequiredDate),
		Status:                 domain.Status(r.Status),
		Notes:                  r.Notes,
		ControlSystemID:        r.ControlSystemID,
		MachineModelID:         r.MachineModelID,
		CreatedByUserID:        r.CreatedByUserID,
		CreatedAt:              r.CreatedAt.UTC(),
		OrderReviewerUserID:    r.OrderReviewerUserID,
		OrderReviewedAt:        utcPtr(r.OrderReviewedAt),
		ProductionTechUserID:   r.ProductionTechUserID,
		ProductionCompletedAt:  utcPtr(r.ProductionCompletedAt),
		SoftwareReviewerUserID: r.SoftwareReviewerUserID,
		SoftwareReviewedAt:     utcPtr(r.SoftwareReviewedAt),
		LastModifiedByUserID:   r.LastModifiedByUserID,
		LastModifiedAt:         r.LastModifiedAt.UTC(),
		Revision:               r.Revision,
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.LineItem{
			ID:               item.ID,
			SoftwareOptionID: item.SoftwareOptionID,
			AddedAt:          item.AddedAt.UTC(),
		})
	}
	for _, note := range notes {
		order.NoteLog = append(order.NoteLog, domain.NoteEntry{
			ID:        note.ID,
			Field:     domain.NoteField(note.Field),
			Action:    note.Action,
			ActorID:   note.ActorID,
			ActorName: note.ActorName,
			At:        note.At.UTC(),
			Text:      note.Text,
		})
	}
	return order
}

func newItemRecord(orderID int64, item domain.LineItem) itemRecord {
	return itemRecord{OrderID: orderID, SoftwareOptionID: item.SoftwareOptionID, AddedAt: item.AddedAt}
}

func newNoteRecord(orderID int64, note domain.NoteEntry) noteRecord {
	return noteRecord{
		OrderID:   orderID,
		Field:     string(note.Field),
		Action:    note.Action,
		ActorID:   note.ActorID,
		ActorName: note.ActorName,
		At:        note.At,
		Text:      note.Text,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders, their line items and note log in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the order with its children in one transaction.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	var created *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&orderRecord{}).Where("order_number = ?", order.Number).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ports.ErrDuplicateOrderNumber
		}
		record := toRecord(order)
		record.ID = 0
		record.Revision = 1
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ports.ErrDuplicateOrderNumber
			}
			return err
		}
		if err := insertChildren(tx, record.ID, order); err != nil {
			return err
		}
		loaded, err := load(tx, record.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID fetches an order with its line items and notes.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return load(r.db.WithContext(ctx), id)
}

// Save writes the order when the stored revision still matches and bumps the revision.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	var saved *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := toRecord(order).columns()
		columns["revision"] = gorm.Expr("revision + 1")
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND revision = ?", order.ID, order.Revision).
			Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&orderRecord{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ports.ErrNotFound
			}
			return ports.ErrStaleRevision
		}

		kept := make([]int64, 0, len(order.Items))
		for _, item := range order.Items {
			if item.ID != 0 {
				kept = append(kept, item.ID)
			}
		}
		stale := tx.Where("order_id = ?", order.ID)
		if len(kept) > 0 {
			stale = stale.Where("id NOT IN ?", kept)
		}
		if err := stale.Delete(&itemRecord{}).Error; err != nil {
			return err
		}
		if err := insertChildren(tx, order.ID, order); err != nil {
			return err
		}
		loaded, err := load(tx, order.ID)
		if err != nil {
			return err
		}
		saved = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Query returns the orders matching the filter.
func (r *Repository) Query(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	q := db.Model(&orderRecord{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.OrderNumber != "" {
		q = q.Where(`LOWER(order_number) LIKE ? ESCAPE '\'`, likePattern(filter.OrderNumber))
	}
	if filter.CustomerName != "" {
		q = q.Where(`LOWER(customer_name) LIKE ? ESCAPE '\'`, likePattern(filter.CustomerName))
	}
	if filter.From != nil {
		q = q.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("order_date <= ?", *filter.To)
	}
	if filter.ControlSystemID != 0 {
		q = q.Where("control_system_id = ?", filter.ControlSystemID)
	}
	if filter.MachineModelID != 0 {
		q = q.Where("machine_model_id = ?", filter.MachineModelID)
	}
	var records []orderRecord
	if err := q.Order("order_date DESC, id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*domain.Order{}, nil
	}

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	var items []itemRecord
	if err := db.Where("order_id IN ?", ids).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	var notes []noteRecord
	if err := db.Where("order_id IN ?", ids).Order("id").Find(&notes).Error; err != nil {
		return nil, err
	}
	itemsByOrder := make(map[int64][]itemRecord, len(records))
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	notesByOrder := make(map[int64][]noteRecord, len(records))
	for _, note := range notes {
		notesByOrder[note.OrderID] = append(notesByOrder[note.OrderID], note)
	}
	orders := make([]*domain.Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, rec.toDomain(itemsByOrder[rec.ID], notesByOrder[rec.ID]))
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func load(db *gorm.DB, id int64) (*domain.Order, error) {
	var record orderRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var items []itemRecord
	if err := db.Where("order_id = ?", id).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	var notes []noteRecord
	if err := db.Where("order_id = ?", id).Order("id").Find(&notes).Error; err != nil {
		return nil, err
	}
	return record.toDomain(items, notes), nil
}

// insertChildren writes line items and note entries that do not have an id yet.
// Note entries are append-only and never rewritten.
func insertChildren(tx *gorm.DB, orderID int64, order *domain.Order) error {
	var items []itemRecord
	for _, item := range order.Items {
		if item.ID == 0 {
			items = append(items, newItemRecord(orderID, item))
		}
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
	}
	var notes []noteRecord
	for _, note := range order.NoteLog {
		if note.ID == 0 {
			notes = append(notes, newNoteRecord(orderID, note))
		}
	}
	if len(notes) > 0 {
		if err := tx.Create(&notes).Error; err != nil {
			return fmt.Errorf("insert order notes: %w", err)
		}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern builds a case-insensitive substring pattern; wildcard characters
// in value match literally.
func likePattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(value))) + "%"
}

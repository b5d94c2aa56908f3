package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var (
	_ ports.EntityResolver      = (*Catalog)(nil)
	_ ports.OptionBatchResolver = (*Catalog)(nil)
)

type controlSystemRecord struct {
	ID   int64  `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name"`
}

func (controlSystemRecord) TableName() string { return "control_systems" }

type machineModelRecord struct {
	ID   int64  `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name"`
}

func (machineModelRecord) TableName() string { return "machine_models" }

type softwareOptionRecord struct {
	ID      int64  `gorm:"primaryKey;column:id"`
	Name    string `gorm:"column:name"`
	Version string `gorm:"column:version"`
}

func (softwareOptionRecord) TableName() string { return "software_options" }

// Catalog resolves order references against the reference tables.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) Exists(ctx context.Context, kind ports.EntityKind, id int64) (bool, error) {
	if err := c.ensureDB(); err != nil {
		return false, err
	}
	model, err := modelFor(kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := c.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *Catalog) ResolveOption(ctx context.Context, id int64) (*ports.OptionSummary, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var record softwareOptionRecord
	if err := c.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %d", ports.ErrEntityNotFound, ports.KindSoftwareOption, id)
		}
		return nil, err
	}
	return &ports.OptionSummary{ID: record.ID, Name: record.Name, Version: record.Version}, nil
}

func (c *Catalog) DisplayName(ctx context.Context, kind ports.EntityKind, id int64) (string, error) {
	if err := c.ensureDB(); err != nil {
		return "", err
	}
	model, err := modelFor(kind)
	if err != nil {
		return "", err
	}
	var names []string
	if err := c.db.WithContext(ctx).Model(model).Where("id = ?", id).Limit(1).Pluck("name", &names).Error; err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s %d", ports.ErrEntityNotFound, kind, id)
	}
	return names[0], nil
}

// MissingOptionIDs checks all ids with a single ANY($1) lookup.
func (c *Catalog) MissingOptionIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int64
	if err := c.db.WithContext(ctx).Model(&softwareOptionRecord{}).
		Where("id = ANY(?)", pq.Array(ids)).
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	known := make(map[int64]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// UpsertControlSystem seeds or renames a control system.
func (c *Catalog) UpsertControlSystem(ctx context.Context, id int64, name string) error {
	if err := c.ensureDB(); err != nil {
		return err
	}
	return c.db.WithContext(ctx).Save(&controlSystemRecord{ID: id, Name: name}).Error
}

func (c *Catalog) UpsertMachineModel(ctx context.Context, id int64, name string) error {
	if err := c.ensureDB(); err != nil {
		return err
	}
	return c.db.WithContext(ctx).Save(&machineModelRecord{ID: id, Name: name}).Error
}

func (c *Catalog) UpsertSoftwareOption(ctx context.Context, id int64, name, version string) error {
	if err := c.ensureDB(); err != nil {
		return err
	}
	return c.db.WithContext(ctx).Save(&softwareOptionRecord{ID: id, Name: name, Version: version}).Error
}

func (c *Catalog) ensureDB() error {
	if c == nil || c.db == nil {
		return errors.New("postgres catalog not configured")
	}
	return nil
}

func modelFor(kind ports.EntityKind) (any, error) {
	switch kind {
	case ports.KindControlSystem:
		return &controlSystemRecord{}, nil
	case ports.KindMachineModel:
		return &machineModelRecord{}, nil
	case ports.KindSoftwareOption:
		return &softwareOptionRecord{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

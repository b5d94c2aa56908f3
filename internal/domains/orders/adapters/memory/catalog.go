package memory

import (
	"context"
	"sync"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var _ ports.EntityResolver = (*Catalog)(nil)

// Catalog is an in-memory reference catalog of control systems, machine models and software options.
type Catalog struct {
	mu       sync.RWMutex
	names    map[ports.EntityKind]map[int64]string
	versions map[int64]string
}

func NewCatalog() *Catalog {
	return &Catalog{
		names: map[ports.EntityKind]map[int64]string{
			ports.KindControlSystem:  {},
			ports.KindMachineModel:   {},
			ports.KindSoftwareOption: {},
		},
		versions: map[int64]string{},
	}
}

// AddControlSystem registers a control system.
func (c *Catalog) AddControlSystem(id int64, name string) *Catalog {
	return c.put(ports.KindControlSystem, id, name)
}

// AddMachineModel registers a machine model.
func (c *Catalog) AddMachineModel(id int64, name string) *Catalog {
	return c.put(ports.KindMachineModel, id, name)
}

// AddSoftwareOption registers a software option.
func (c *Catalog) AddSoftwareOption(id int64, name, version string) *Catalog {
	c.put(ports.KindSoftwareOption, id, name)
	c.mu.Lock()
	c.versions[id] = version
	c.mu.Unlock()
	return c
}

// Remove forgets an entity, e.g. to simulate a retired software option.
func (c *Catalog) Remove(kind ports.EntityKind, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.names[kind], id)
	if kind == ports.KindSoftwareOption {
		delete(c.versions, id)
	}
}

func (c *Catalog) Exists(_ context.Context, kind ports.EntityKind, id int64) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.names[kind][id]
	return ok, nil
}

func (c *Catalog) ResolveOption(_ context.Context, id int64) (*ports.OptionSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[ports.KindSoftwareOption][id]
	if !ok {
		return nil, ports.ErrEntityNotFound
	}
	return &ports.OptionSummary{ID: id, Name: name, Version: c.versions[id]}, nil
}

func (c *Catalog) DisplayName(_ context.Context, kind ports.EntityKind, id int64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[kind][id]
	if !ok {
		return "", ports.ErrEntityNotFound
	}
	return name, nil
}

func (c *Catalog) put(kind ports.EntityKind, id int64, name string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names[kind] == nil {
		c.names[kind] = map[int64]string{}
	}
	c.names[kind][id] = name
	return c
}

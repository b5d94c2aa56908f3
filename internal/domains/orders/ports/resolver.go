package ports

import (
	"context"
	"errors"
)

// ErrEntityNotFound is returned by resolvers for unknown references.
var ErrEntityNotFound = errors.New("referenced entity not found")

// EntityKind names the reference types an order points at.
type EntityKind string

const (
	KindControlSystem  EntityKind = "control_system"
	KindMachineModel   EntityKind = "machine_model"
	KindSoftwareOption EntityKind = "software_option"
)

// OptionSummary carries the display attributes of a software option.
type OptionSummary struct {
	ID      int64
	Name    string
	Version string
}

// EntityResolver confirms referenced entities exist and resolves their display data.
type EntityResolver interface {
	Exists(ctx context.Context, kind EntityKind, id int64) (bool, error)
	ResolveOption(ctx context.Context, id int64) (*OptionSummary, error)
	DisplayName(ctx context.Context, kind EntityKind, id int64) (string, error)
}

// OptionBatchResolver is implemented by resolvers that can check many software options in one call.
type OptionBatchResolver interface {
	// MissingOptionIDs returns the ids that do not resolve, preserving input order.
	MissingOptionIDs(ctx context.Context, ids []int64) ([]int64, error)
}

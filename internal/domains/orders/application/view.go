package application

import (
	"context"
	"errors"
	"fmt"

	types "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

type nameKey struct {
	kind ports.EntityKind
	id   int64
}

// nameCache memoises display lookups for the duration of one call.
type nameCache struct {
	names   map[nameKey]string
	options map[int64]*ports.OptionSummary
}

func newNameCache() *nameCache {
	return &nameCache{names: map[nameKey]string{}, options: map[int64]*ports.OptionSummary{}}
}

func (s *Service) view(ctx context.Context, order *domain.Order, cache *nameCache) (*types.OrderView, error) {
	if order == nil {
		return nil, nil
	}
	controlSystem, err := s.displayName(ctx, cache, ports.KindControlSystem, order.ControlSystemID)
	if err != nil {
		return nil, err
	}
	machineModel, err := s.displayName(ctx, cache, ports.KindMachineModel, order.MachineModelID)
	if err != nil {
		return nil, err
	}
	items := make([]types.LineItemView, 0, len(order.Items))
	for _, item := range order.Items {
		option, err := s.option(ctx, cache, item.SoftwareOptionID)
		if err != nil {
			return nil, err
		}
		items = append(items, types.LineItemView{
			ID:               item.ID,
			SoftwareOptionID: item.SoftwareOptionID,
			OptionName:       option.Name,
			OptionVersion:    option.Version,
			AddedAt:          item.AddedAt,
		})
	}
	return &types.OrderView{
		Order:               order,
		ControlSystemName:   controlSystem,
		MachineModelName:    machineModel,
		Items:               items,
		HistoryNotes:        order.RenderNotes(domain.NoteFieldGeneral),
		OrderReviewNotes:    order.RenderNotes(domain.NoteFieldOrderReview),
		ProductionNotes:     order.RenderNotes(domain.NoteFieldProduction),
		SoftwareReviewNotes: order.RenderNotes(domain.NoteFieldSoftwareReview),
	}, nil
}

func (s *Service) displayName(ctx context.Context, cache *nameCache, kind ports.EntityKind, id int64) (string, error) {
	key := nameKey{kind: kind, id: id}
	if name, ok := cache.names[key]; ok {
		return name, nil
	}
	name, err := s.resolver.DisplayName(ctx, kind, id)
	if err != nil && !errors.Is(err, ports.ErrEntityNotFound) {
		return "", fmt.Errorf("resolve %s %d: %w", kind, id, err)
	}
	cache.names[key] = name
	return name, nil
}

func (s *Service) option(ctx context.Context, cache *nameCache, id int64) (ports.OptionSummary, error) {
	if summary, ok := cache.options[id]; ok {
		return *summary, nil
	}
	summary, err := s.resolver.ResolveOption(ctx, id)
	if err != nil {
		if !errors.Is(err, ports.ErrEntityNotFound) {
			return ports.OptionSummary{}, fmt.Errorf("resolve %s %d: %w", ports.KindSoftwareOption, id, err)
		}
		summary = &ports.OptionSummary{ID: id}
	}
	cache.options[id] = summary
	return *summary, nil
}

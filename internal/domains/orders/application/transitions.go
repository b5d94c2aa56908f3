package application

import (
	"context"
	"fmt"
	"strings"

	types "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

// SubmitForProduction moves a draft order to ready for production.
func (s *Service) SubmitForProduction(ctx context.Context, input types.TransitionInput) (*types.OrderView, error) {
	return s.transition(ctx, domain.ActionSubmitForProduction, input)
}

// StartProduction marks production as in progress.
func (s *Service) StartProduction(ctx context.Context, input types.TransitionInput) (*types.OrderView, error) {
	return s.transition(ctx, domain.ActionStartProduction, input)
}

// CompleteProduction hands the order over to software review.
func (s *Service) CompleteProduction(ctx context.Context, input types.TransitionInput) (*types.OrderView, error) {
	return s.transition(ctx, domain.ActionCompleteProduction, input)
}

// StartSoftwareReview marks software verification as in progress.
func (s *Service) StartSoftwareReview(ctx context.Context, input types.TransitionInput) (*types.OrderView, error) {
	return s.transition(ctx, domain.ActionStartSoftwareReview, input)
}

// PutOnHold parks the order. Repeating the call on a held order is a no-op.
func (s *Service) PutOnHold(ctx context.Context, input types.TransitionInput) (*types.OrderView, error) {
	return s.transition(ctx, domain.ActionPutOnHold, input)
}

// RejectOrder rejects an order in review or production; notes are mandatory.
func (s *Service) RejectOrder(ctx context.Context, input types.TransitionInput) (*types.OrderView, error) {
	return s.transition(ctx, domain.ActionReject, input)
}

// CancelOrder cancels the order. Repeating the call on a cancelled order is a no-op.
func (s *Service) CancelOrder(ctx context.Context, input types.TransitionInput) (*types.OrderView, error) {
	return s.transition(ctx, domain.ActionCancel, input)
}

func (s *Service) transition(ctx context.Context, action domain.Action, input types.TransitionInput) (*types.OrderView, error) {
	rule, err := domain.Rule(action)
	if err != nil {
		return nil, mapError(err)
	}
	title := rule.Label
	if rule.NotesRequired && strings.TrimSpace(input.Notes) == "" {
		return nil, s.fail(ctx, title, input.ID, mapError(domain.ErrRejectionNotesRequired))
	}

	order, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, s.fail(ctx, title, input.ID, mapStorageError(err))
	}
	from := order.Status
	changed, err := order.Transition(action, input.Actor, s.now(), input.Notes)
	if err != nil {
		return nil, s.fail(ctx, title, order.ID, mapError(err))
	}
	if !changed {
		s.notify(ctx, ports.LevelInformation, title, order.ID,
			fmt.Sprintf("Order %s is already %s", order.Number, order.Status))
		return s.view(ctx, order, newNameCache())
	}

	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return nil, s.fail(ctx, title, order.ID, mapStorageError(err))
	}
	s.record(ctx, input.Actor, "order."+string(action), saved.ID,
		fmt.Sprintf("%s: order %s moved from %s to %s", rule.Label, saved.Number, from, saved.Status))
	s.notify(ctx, ports.LevelSuccess, title, saved.ID, fmt.Sprintf("Order %s is now %s", saved.Number, saved.Status))
	return s.view(ctx, saved, newNameCache())
}

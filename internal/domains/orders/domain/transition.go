package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Action names a workflow transition that can be requested on an order.
type Action string

const (
	ActionSubmitForProduction Action = "submit_for_production"
	ActionStartProduction     Action = "start_production"
	ActionCompleteProduction  Action = "complete_production"
	ActionStartSoftwareReview Action = "start_software_review"
	ActionPutOnHold           Action = "put_on_hold"
	ActionReject              Action = "reject"
	ActionCancel              Action = "cancel"
)

var (
	ErrUnknownAction          = errors.New("order action is unknown")
	ErrInvalidTransition      = errors.New("order transition is not allowed")
	ErrRejectionNotesRequired = errors.New("rejection notes are required")
)

// TransitionRule describes the guard and effect of a single action.
type TransitionRule struct {
	Action        Action
	Label         string
	From          []Status
	To            Status
	Field         NoteField
	NotesRequired bool
	// Idempotent rules treat a call on an order already in To as a successful no-op.
	Idempotent bool
}

var activeStatuses = []Status{
	StatusDraft,
	StatusReadyForProduction,
	StatusProductionInProgress,
	StatusReadyForSoftwareReview,
	StatusSoftwareReviewInProgress,
}

var transitionRules = map[Action]TransitionRule{
	ActionSubmitForProduction: {
		Label: "Submitted for production",
		From:  []Status{StatusDraft},
		To:    StatusReadyForProduction,
		Field: NoteFieldOrderReview,
	},
	ActionStartProduction: {
		Label: "Production started",
		From:  []Status{StatusReadyForProduction},
		To:    StatusProductionInProgress,
		Field: NoteFieldProduction,
	},
	ActionCompleteProduction: {
		Label: "Production completed",
		From:  []Status{StatusProductionInProgress},
		To:    StatusReadyForSoftwareReview,
		Field: NoteFieldProduction,
	},
	ActionStartSoftwareReview: {
		Label: "Software review started",
		From:  []Status{StatusReadyForSoftwareReview},
		To:    StatusSoftwareReviewInProgress,
		Field: NoteFieldSoftwareReview,
	},
	ActionReject: {
		Label: "Rejected",
		From: []Status{
			StatusReadyForProduction,
			StatusProductionInProgress,
			StatusReadyForSoftwareReview,
			StatusSoftwareReviewInProgress,
		},
		To:            StatusRejected,
		Field:         NoteFieldGeneral,
		NotesRequired: true,
	},
	ActionPutOnHold: {
		Label:      "Put on hold",
		From:       append(slices.Clone(activeStatuses), StatusRejected),
		To:         StatusOnHold,
		Field:      NoteFieldGeneral,
		Idempotent: true,
	},
	ActionCancel: {
		Label:      "Cancelled",
		From:       append(slices.Clone(activeStatuses), StatusOnHold, StatusRejected),
		To:         StatusCancelled,
		Field:      NoteFieldGeneral,
		Idempotent: true,
	},
}

// Rule returns the transition rule for an action.
func Rule(action Action) (TransitionRule, error) {
	rule, ok := transitionRules[action]
	if !ok {
		return TransitionRule{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	rule.Action = action
	rule.From = slices.Clone(rule.From)
	return rule, nil
}

// Actions lists every supported action.
func Actions() []Action {
	return []Action{
		ActionSubmitForProduction,
		ActionStartProduction,
		ActionCompleteProduction,
		ActionStartSoftwareReview,
		ActionPutOnHold,
		ActionReject,
		ActionCancel,
	}
}

// Allows reports whether the rule may fire from the given status.
func (r TransitionRule) Allows(from Status) bool {
	return slices.Contains(r.From, from)
}

// Transition applies an action to the order. It returns false without touching the
// order when the action is an idempotent repeat of the current status.
func (o *Order) Transition(action Action, actor Actor, at time.Time, notes string) (bool, error) {
	rule, err := Rule(action)
	if err != nil {
		return false, err
	}
	notes = strings.TrimSpace(notes)
	if rule.NotesRequired && notes == "" {
		return false, ErrRejectionNotesRequired
	}
	if rule.Idempotent && o.Status == rule.To {
		return false, nil
	}
	if !rule.Allows(o.Status) {
		return false, fmt.Errorf("%w: cannot %s an order in status %s", ErrInvalidTransition, strings.ReplaceAll(string(action), "_", " "), o.Status)
	}

	switch action {
	case ActionSubmitForProduction:
		o.OrderReviewerUserID = ptr(actor.ID)
		o.OrderReviewedAt = ptr(at)
	case ActionStartProduction:
		o.ProductionTechUserID = ptr(actor.ID)
	case ActionCompleteProduction:
		o.ProductionTechUserID = ptr(actor.ID)
		o.ProductionCompletedAt = ptr(at)
	case ActionStartSoftwareReview:
		o.SoftwareReviewerUserID = ptr(actor.ID)
		o.SoftwareReviewedAt = ptr(at)
	}
	if notes != "" {
		o.NoteLog = append(o.NoteLog, NoteEntry{
			Field:     rule.Field,
			Action:    rule.Label,
			ActorID:   actor.ID,
			ActorName: actor.Label(),
			At:        at,
			Text:      notes,
		})
	}
	o.Status = rule.To
	o.Touch(actor, at)
	return true, nil
}

func ptr[T any](v T) *T {
	return &v
}

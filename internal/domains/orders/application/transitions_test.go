package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/Apurer/machine-orders/internal/domains/orders/application/types"
	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

func (f *fixture) dispatch(action domain.Action) func(context.Context, types.TransitionInput) (*types.OrderView, error) {
	switch action {
	case domain.ActionSubmitForProduction:
		return f.svc.SubmitForProduction
	case domain.ActionStartProduction:
		return f.svc.StartProduction
	case domain.ActionCompleteProduction:
		return f.svc.CompleteProduction
	case domain.ActionStartSoftwareReview:
		return f.svc.StartSoftwareReview
	case domain.ActionPutOnHold:
		return f.svc.PutOnHold
	case domain.ActionReject:
		return f.svc.RejectOrder
	case domain.ActionCancel:
		return f.svc.CancelOrder
	}
	return nil
}

func TestSubmitForProduction_RecordsReviewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t)

	view, err := f.svc.SubmitForProduction(ctx, types.TransitionInput{ID: created.Order.ID, Actor: reviewer, Notes: "looks complete"})
	require.NoError(t, err)

	order := view.Order
	assert.Equal(t, domain.StatusReadyForProduction, order.Status)
	require.NotNil(t, order.OrderReviewerUserID)
	assert.Equal(t, reviewer.ID, *order.OrderReviewerUserID)
	require.NotNil(t, order.OrderReviewedAt)
	assert.Equal(t, *order.OrderReviewedAt, order.LastModifiedAt)
	assert.Equal(t, reviewer.ID, order.LastModifiedByUserID)
	assert.Contains(t, view.OrderReviewNotes, "Submitted for production by Sam Reviewer on ")
	assert.Contains(t, view.OrderReviewNotes, ": looks complete")
	assert.Empty(t, view.HistoryNotes)

	entries := f.activity.ForTarget(order.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, "order.submit_for_production", entries[1].ActionType)
}

func TestFullWorkflow_RoutesNotesPerStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t).Order.ID
	tech := domain.Actor{ID: 21, Name: "Lee Tech"}
	verifier := domain.Actor{ID: 22, Name: "Kim Verifier"}

	_, err := f.svc.SubmitForProduction(ctx, types.TransitionInput{ID: id, Actor: reviewer, Notes: "approved"})
	require.NoError(t, err)
	_, err = f.svc.StartProduction(ctx, types.TransitionInput{ID: id, Actor: tech, Notes: "machine on bench 3"})
	require.NoError(t, err)
	_, err = f.svc.CompleteProduction(ctx, types.TransitionInput{ID: id, Actor: tech, Notes: "options loaded"})
	require.NoError(t, err)
	view, err := f.svc.StartSoftwareReview(ctx, types.TransitionInput{ID: id, Actor: verifier})
	require.NoError(t, err)

	order := view.Order
	assert.Equal(t, domain.StatusSoftwareReviewInProgress, order.Status)
	require.NotNil(t, order.ProductionTechUserID)
	assert.Equal(t, tech.ID, *order.ProductionTechUserID)
	require.NotNil(t, order.ProductionCompletedAt)
	require.NotNil(t, order.SoftwareReviewerUserID)
	assert.Equal(t, verifier.ID, *order.SoftwareReviewerUserID)
	require.NotNil(t, order.SoftwareReviewedAt)

	assert.Len(t, order.NotesFor(domain.NoteFieldProduction), 2)
	assert.Contains(t, view.ProductionNotes, "Production started by Lee Tech")
	assert.Contains(t, view.ProductionNotes, "Production completed by Lee Tech")
	assert.Empty(t, view.SoftwareReviewNotes)
	assert.Len(t, f.activity.ForTarget(id), 5)
}

func TestStartProduction_TwiceIsInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.orderIn(t, domain.StatusReadyForProduction)

	_, err := f.svc.StartProduction(ctx, types.TransitionInput{ID: id, Actor: reviewer})
	require.NoError(t, err)
	audits := len(f.activity.ForTarget(id))

	_, err = f.svc.StartProduction(ctx, types.TransitionInput{ID: id, Actor: reviewer})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, f.activity.ForTarget(id), audits)
	last, _ := f.notes.Last()
	assert.Equal(t, ports.LevelWarning, last.Level)
}

func TestRejectOrder_RequiresNotes(t *testing.T) {
	for _, status := range domain.AllStatuses() {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id := f.orderIn(t, status)
			before, err := f.repo.GetByID(ctx, id)
			require.NoError(t, err)

			_, err = f.svc.RejectOrder(ctx, types.TransitionInput{ID: id, Actor: reviewer, Notes: "  "})
			require.ErrorIs(t, err, ErrValidationFailed)

			after, err := f.repo.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestRejectOrder_AppendsGeneralNote(t *testing.T) {
	f := newFixture(t)
	id := f.orderIn(t, domain.StatusProductionInProgress)

	view, err := f.svc.RejectOrder(context.Background(), types.TransitionInput{ID: id, Actor: reviewer, Notes: "wrong control firmware"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, view.Order.Status)
	assert.Contains(t, view.HistoryNotes, "Rejected by Sam Reviewer on ")
	assert.Contains(t, view.HistoryNotes, "wrong control firmware")
}

func TestIdempotentActions(t *testing.T) {
	cases := []struct {
		action domain.Action
		status domain.Status
	}{
		{domain.ActionPutOnHold, domain.StatusOnHold},
		{domain.ActionCancel, domain.StatusCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id := f.orderIn(t, tc.status)
			before, err := f.repo.GetByID(ctx, id)
			require.NoError(t, err)
			audits := len(f.activity.ForTarget(id))

			view, err := f.dispatch(tc.action)(ctx, types.TransitionInput{ID: id, Actor: reviewer, Notes: "again"})
			require.NoError(t, err)
			assert.Equal(t, tc.status, view.Order.Status)

			after, err := f.repo.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Len(t, f.activity.ForTarget(id), audits)
			last, _ := f.notes.Last()
			assert.Equal(t, ports.LevelInformation, last.Level)
		})
	}
}

// Every action refused by the guard must leave the stored order and the audit trail untouched.
func TestTransitions_GuardRefusalsLeaveOrderUnchanged(t *testing.T) {
	for _, action := range domain.Actions() {
		rule, err := domain.Rule(action)
		require.NoError(t, err)
		for _, status := range domain.AllStatuses() {
			if rule.Allows(status) || (rule.Idempotent && status == rule.To) {
				continue
			}
			t.Run(string(action)+"/"+string(status), func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				id := f.orderIn(t, status)
				before, err := f.repo.GetByID(ctx, id)
				require.NoError(t, err)
				audits := len(f.activity.Entries())

				_, err = f.dispatch(action)(ctx, types.TransitionInput{ID: id, Actor: reviewer, Notes: "attempt"})
				require.ErrorIs(t, err, ErrInvalidTransition)

				after, err := f.repo.GetByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, before, after)
				assert.Len(t, f.activity.Entries(), audits)
			})
		}
	}
}

func TestTransitions_AllowedMovesReachTarget(t *testing.T) {
	for _, action := range domain.Actions() {
		rule, err := domain.Rule(action)
		require.NoError(t, err)
		for _, status := range rule.From {
			t.Run(string(action)+"/"+string(status), func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				id := f.orderIn(t, status)
				before, err := f.repo.GetByID(ctx, id)
				require.NoError(t, err)

				view, err := f.dispatch(action)(ctx, types.TransitionInput{ID: id, Actor: reviewer, Notes: "go"})
				require.NoError(t, err)
				assert.Equal(t, rule.To, view.Order.Status)
				assert.Equal(t, before.Revision+1, view.Order.Revision)
				assert.False(t, view.Order.LastModifiedAt.Before(before.LastModifiedAt))
				assert.Len(t, view.Order.NoteLog, len(before.NoteLog)+1)
			})
		}
	}
}

func TestTransitions_AuditCountMatchesSuccessfulMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t).Order.ID
	in := types.TransitionInput{ID: id, Actor: reviewer}

	calls := []struct {
		run     func(context.Context, types.TransitionInput) (*types.OrderView, error)
		mutates bool
	}{
		{f.svc.StartProduction, false},
		{f.svc.SubmitForProduction, true},
		{f.svc.PutOnHold, true},
		{f.svc.PutOnHold, false},
		{f.svc.SubmitForProduction, false},
		{f.svc.CancelOrder, true},
		{f.svc.CancelOrder, false},
		{f.svc.StartSoftwareReview, false},
	}
	want := 1
	for _, call := range calls {
		_, _ = call.run(ctx, in)
		if call.mutates {
			want++
		}
		assert.Len(t, f.activity.ForTarget(id), want)
	}
}

func TestTransition_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CancelOrder(context.Background(), types.TransitionInput{ID: 12345, Actor: reviewer})
	require.ErrorIs(t, err, ErrNotFound)
}

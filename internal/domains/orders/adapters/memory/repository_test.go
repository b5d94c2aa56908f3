package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var createdAt = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func newDraft(t *testing.T, number string, options ...int64) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(number, 1, 1, domain.Actor{ID: 1}, createdAt)
	require.NoError(t, err)
	for _, id := range options {
		require.NoError(t, order.AddLineItem(id, createdAt))
	}
	return order
}

func TestRepository_CreateAssignsIDs(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newDraft(t, "MEM-1", 4, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, int64(1), created.Revision)
	assert.NotZero(t, created.Items[0].ID)
	assert.NotEqual(t, created.Items[0].ID, created.Items[1].ID)

	_, err = repo.Create(ctx, newDraft(t, " MEM-1 "))
	assert.ErrorIs(t, err, ports.ErrDuplicateOrderNumber)

	created.CustomerName = "mutated outside"
	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CustomerName)

	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_SaveComparesRevision(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, newDraft(t, "MEM-1"))
	require.NoError(t, err)

	first := created.Clone()
	second := created.Clone()

	first.Notes = "first writer"
	saved, err := repo.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Revision)

	second.Notes = "second writer"
	_, err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, ports.ErrStaleRevision)

	saved.Number = "RENAMED"
	saved, err = repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "MEM-1", saved.Number)

	missing := saved.Clone()
	missing.ID = 77
	_, err = repo.Save(ctx, missing)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ConcurrentSavesHaveOneWinner(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	created, err := repo.Create(ctx, newDraft(t, "MEM-1"))
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Save(ctx, created.Clone())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ports.ErrStaleRevision)
	}
	assert.Equal(t, 1, wins)
}

func TestRepository_QueryAndReset(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	a := newDraft(t, "MEM-A")
	a.CustomerName = "Northwind Machining"
	_, err := repo.Create(ctx, a)
	require.NoError(t, err)
	b := newDraft(t, "MEM-B")
	b.OrderDate = createdAt.Add(72 * time.Hour)
	b.ControlSystemID = 2
	_, err = repo.Create(ctx, b)
	require.NoError(t, err)

	list, err := repo.Query(ctx, ports.OrderFilter{CustomerName: "northwind"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "MEM-A", list[0].Number)

	from := createdAt.Add(24 * time.Hour)
	list, err = repo.Query(ctx, ports.OrderFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "MEM-B", list[0].Number)

	list, err = repo.Query(ctx, ports.OrderFilter{ControlSystemID: 2, Status: domain.StatusDraft})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	repo.Reset()
	list, err = repo.Query(ctx, ports.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	created, err := repo.Create(ctx, newDraft(t, "MEM-A"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog().AddControlSystem(1, "Okuma OSP-P300").AddSoftwareOption(9, "Collision Avoidance", "5.2")
	ctx := context.Background()

	ok, err := catalog.Exists(ctx, ports.KindControlSystem, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = catalog.Exists(ctx, ports.KindMachineModel, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	option, err := catalog.ResolveOption(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "5.2", option.Version)

	catalog.Remove(ports.KindSoftwareOption, 9)
	_, err = catalog.ResolveOption(ctx, 9)
	assert.ErrorIs(t, err, ports.ErrEntityNotFound)
	_, err = catalog.DisplayName(ctx, ports.KindSoftwareOption, 9)
	assert.ErrorIs(t, err, ports.ErrEntityNotFound)
}

//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("machine_orders_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(Models()...)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestRepository_Postgres_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newDraft(t, "ORD-PG-1", 10, 11))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Revision)

	_, err = repo.Create(ctx, newDraft(t, "ORD-PG-1"))
	assert.ErrorIs(t, err, ports.ErrDuplicateOrderNumber)

	order := created.Clone()
	_, err = order.Transition(domain.ActionSubmitForProduction, planner, baseTime.Add(time.Hour), "approved")
	require.NoError(t, err)
	saved, err := repo.Save(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Revision)
	assert.Len(t, saved.NoteLog, 1)

	_, err = repo.Save(ctx, created)
	assert.ErrorIs(t, err, ports.ErrStaleRevision)

	list, err := repo.Query(ctx, ports.OrderFilter{Status: domain.StatusReadyForProduction, OrderNumber: "pg"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []int64{10, 11}, list[0].OptionIDs())
}

func TestCatalog_Postgres_MissingOptionIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	catalog := NewCatalog(db)
	ctx := context.Background()
	require.NoError(t, catalog.UpsertSoftwareOption(ctx, 1, "Probing", "2.0"))
	require.NoError(t, catalog.UpsertSoftwareOption(ctx, 3, "Spindle Monitor", "1.1"))

	missing, err := catalog.MissingOptionIDs(ctx, []int64{4, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 2}, missing)

	missing, err = catalog.MissingOptionIDs(ctx, []int64{1, 3})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

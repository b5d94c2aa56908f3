//go:build integration

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})

	cleanup := func() {
		_ = rdb.Close()
		container.Terminate(ctx)
	}
	return rdb, cleanup
}

func TestRedisPublisher_PublishesAndKeepsRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	rdb, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	publisher := NewRedisPublisher(rdb, "")
	sub := rdb.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, publisher.Notify(ctx, ports.Notification{
		Level: ports.LevelSuccess, Title: "Create order", Message: "Order ORD-1 created", OrderID: 1, At: at,
	}))

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, `"orderId":1`)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
	}

	recent, err := publisher.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "success", recent[0].Level)
	assert.True(t, at.Equal(recent[0].At))
}

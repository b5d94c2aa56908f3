package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/machine-orders/internal/domains/orders/adapters/memory"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

type failingSink struct{ err error }

func (f failingSink) Notify(context.Context, ports.Notification) error { return f.err }

func TestLogger_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Notify(context.Background(), ports.Notification{
		Level:   ports.LevelWarning,
		Title:   "Put on hold",
		Message: "Order ORD-9 is already on_hold",
		OrderID: 9,
	})
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "Put on hold", record["msg"])
	assert.Equal(t, float64(9), record["order.id"])
	assert.Equal(t, "warning", record["notification.level"])
}

func TestFanout_DeliversToAllSinksAndJoinsErrors(t *testing.T) {
	first, second := memory.NewNotifications(), memory.NewNotifications()
	boom := errors.New("redis down")
	fan := Fanout{first, failingSink{err: boom}, nil, second}

	n := ports.Notification{Level: ports.LevelSuccess, Title: "Create order", At: time.Now()}
	err := fan.Notify(context.Background(), n)
	require.ErrorIs(t, err, boom)
	assert.Len(t, first.All(), 1)
	assert.Len(t, second.All(), 1)
}

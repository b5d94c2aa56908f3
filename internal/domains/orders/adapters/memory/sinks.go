package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var (
	_ ports.ActivitySink     = (*ActivityLog)(nil)
	_ ports.NotificationSink = (*Notifications)(nil)
)

// ActivityLog keeps audit entries in memory.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []ports.ActivityEntry
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

func (l *ActivityLog) Record(_ context.Context, entry ports.ActivityEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of every recorded entry.
func (l *ActivityLog) Entries() []ports.ActivityEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// ForTarget returns the entries referencing one target id.
func (l *ActivityLog) ForTarget(targetID int64) []ports.ActivityEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var result []ports.ActivityEntry
	for _, entry := range l.entries {
		if entry.TargetID == targetID {
			result = append(result, entry)
		}
	}
	return result
}

// Notifications keeps emitted notifications in memory.
type Notifications struct {
	mu    sync.RWMutex
	items []ports.Notification
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (n *Notifications) Notify(_ context.Context, notification ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notification)
	return nil
}

// All returns a copy of every notification.
func (n *Notifications) All() []ports.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.items)
}

// Last returns the most recent notification.
func (n *Notifications) Last() (ports.Notification, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.items) == 0 {
		return ports.Notification{}, false
	}
	return n.items[len(n.items)-1], true
}

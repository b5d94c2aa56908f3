package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var _ ports.ActivitySink = (*ActivityLog)(nil)

type activityRecord struct {
	ID          string    `gorm:"primaryKey;column:id;size:36"`
	ActorID     int64     `gorm:"column:actor_id;index"`
	ActorName   string    `gorm:"column:actor_name"`
	ActionType  string    `gorm:"column:action_type;size:64"`
	Description string    `gorm:"column:description;type:text"`
	TargetType  string    `gorm:"column:target_type;size:32;index:idx_activity_target"`
	TargetID    int64     `gorm:"column:target_id;index:idx_activity_target"`
	RecordedAt  time.Time `gorm:"column:recorded_at;index"`
}

func (activityRecord) TableName() string { return "activity_log" }

// ActivityLog appends audit entries to the activity_log table.
type ActivityLog struct {
	db *gorm.DB
}

func NewActivityLog(db *gorm.DB) *ActivityLog {
	return &ActivityLog{db: db}
}

func (l *ActivityLog) Record(ctx context.Context, entry ports.ActivityEntry) error {
	if l == nil || l.db == nil {
		return errors.New("postgres activity log not configured")
	}
	record := activityRecord{
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		ActorName:   entry.ActorName,
		ActionType:  entry.ActionType,
		Description: entry.Description,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		RecordedAt:  entry.RecordedAt,
	}
	if err := l.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ports.ErrDuplicateActivity, entry.ID)
		}
		return err
	}
	return nil
}

// ForTarget lists the entries recorded for one target, oldest first.
func (l *ActivityLog) ForTarget(ctx context.Context, targetType string, targetID int64) ([]ports.ActivityEntry, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("postgres activity log not configured")
	}
	var records []activityRecord
	if err := l.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("recorded_at, id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	entries := make([]ports.ActivityEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, ports.ActivityEntry{
			ID:          rec.ID,
			ActorID:     rec.ActorID,
			ActorName:   rec.ActorName,
			ActionType:  rec.ActionType,
			Description: rec.Description,
			TargetType:  rec.TargetType,
			TargetID:    rec.TargetID,
			RecordedAt:  rec.RecordedAt.UTC(),
		})
	}
	return entries, nil
}

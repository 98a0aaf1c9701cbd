package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// HistoryEventType represents the type of history event.
type HistoryEventType string

const (
	// HistoryEventTopicCreated indicates a topic draft was created.
	HistoryEventTopicCreated HistoryEventType = "topic_created"
	// HistoryEventTopicGenerated indicates lesson and quiz were generated for a topic.
	HistoryEventTopicGenerated HistoryEventType = "topic_generated"
	// HistoryEventTopicGenerationFailed indicates the generator returned an error.
	HistoryEventTopicGenerationFailed HistoryEventType = "topic_generation_failed"
	// HistoryEventTopicApproved indicates a topic was released to learners.
	HistoryEventTopicApproved HistoryEventType = "topic_approved"
	// HistoryEventTopicRejected indicates a topic was rejected and removed.
	HistoryEventTopicRejected HistoryEventType = "topic_rejected"
	// HistoryEventTopicDeleted indicates a topic was deleted by an admin.
	HistoryEventTopicDeleted HistoryEventType = "topic_deleted"
	// HistoryEventUserCreated indicates a user was registered.
	HistoryEventUserCreated HistoryEventType = "user_created"
	// HistoryEventUserDeleted indicates a user was deleted.
	HistoryEventUserDeleted HistoryEventType = "user_deleted"
	// HistoryEventSessionSaved indicates a learner completed a session.
	HistoryEventSessionSaved HistoryEventType = "session_saved"
	// HistoryEventSessionDeleted indicates a session was deleted.
	HistoryEventSessionDeleted HistoryEventType = "session_deleted"
	// HistoryEventMaintenance is written by the maintenance job.
	HistoryEventMaintenance HistoryEventType = "maintenance"
)

// HistoryEvent is an audit record of a workflow action.
type HistoryEvent struct {
	ID        uint             `gorm:"primaryKey"`
	EventType HistoryEventType `gorm:"not null;index"`
	// Subject names what the event is about, e.g. a topic or user name.
	Subject string
	// User who triggered the event (optional, can be null for system events)
	UserID   *uint `gorm:"index"`
	UserName string
	Detail   string
	// Timestamp when the event occurred
	CreatedAt time.Time `gorm:"not null;index"`
}

// HistoryDB defines the interface for history-related database operations.
type HistoryDB interface {
	CreateHistoryEvent(ctx context.Context, event HistoryEvent) error
	ListHistoryEvents(ctx context.Context, limit int) ([]HistoryEvent, error)
	PruneHistoryEvents(ctx context.Context, before time.Time) (int64, error)
	CountHistoryEvents(ctx context.Context) (int64, error)
}

// CreateHistoryEvent creates a new history event.
func (c *Client) CreateHistoryEvent(ctx context.Context, event HistoryEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	result := c.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		log.Error("failed to create history event", "error", result.Error)
		return result.Error
	}
	return nil
}

// ListHistoryEvents returns the newest events first. A limit <= 0 returns all events.
func (c *Client) ListHistoryEvents(ctx context.Context, limit int) ([]HistoryEvent, error) {
	var events []HistoryEvent
	query := c.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		log.Error("failed to list history events", "error", err)
		return nil, err
	}
	return events, nil
}

// PruneHistoryEvents deletes events created before the given time.
func (c *Client) PruneHistoryEvents(ctx context.Context, before time.Time) (int64, error) {
	result := c.db.WithContext(ctx).Where("created_at < ?", before).Delete(&HistoryEvent{})
	if result.Error != nil {
		log.Error("failed to prune history events", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (c *Client) CountHistoryEvents(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&HistoryEvent{}).Count(&count).Error; err != nil {
		log.Error("failed to count history events", "error", err)
		return 0, err
	}
	return count, nil
}

package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// TopicStatus is the position of a topic in the review workflow.
type TopicStatus string

const (
	// TopicStatusDraft is a topic without generated content.
	TopicStatusDraft TopicStatus = "draft"
	// TopicStatusPendingReview is a generated topic waiting for an admin decision.
	TopicStatusPendingReview TopicStatus = "pending_review"
	// TopicStatusApproved is a topic visible to learners.
	TopicStatusApproved TopicStatus = "approved"
)

// Topic holds a lesson and its quiz.
type Topic struct {
	ID           uint   `gorm:"primaryKey"`
	TopicName    string `gorm:"uniqueIndex;not null"`
	AgeLevel     string
	LessonLength string
	LessonText   string
	QuizText     string `gorm:"column:quiz_questions"`
	Approved     bool   `gorm:"not null;default:false;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Status derives the workflow state from the stored columns.
func (t *Topic) Status() TopicStatus {
	switch {
	case t.Approved:
		return TopicStatusApproved
	case strings.TrimSpace(t.LessonText) != "":
		return TopicStatusPendingReview
	default:
		return TopicStatusDraft
	}
}

// TopicDB defines the interface for topic-related database operations.
type TopicDB interface {
	CreateTopic(ctx context.Context, topic *Topic) error
	GetTopicByID(ctx context.Context, id uint) (*Topic, error)
	ListTopics(ctx context.Context, approvedOnly bool) ([]Topic, error)
	UpdateTopicContent(ctx context.Context, id uint, lesson, quiz string) error
	ApproveTopic(ctx context.Context, id uint) error
	DeleteTopic(ctx context.Context, id uint) error
	CountTopicsByStatus(ctx context.Context) (map[TopicStatus]int64, error)
}

func (c *Client) CreateTopic(ctx context.Context, topic *Topic) error {
	if err := c.db.WithContext(ctx).Create(topic).Error; err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrDuplicate) {
			log.Error("failed to create topic", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) GetTopicByID(ctx context.Context, id uint) (*Topic, error) {
	var topic Topic
	if err := c.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrNotFound) {
			log.Error("failed to get topic by ID", "error", err)
		}
		return nil, err
	}
	return &topic, nil
}

// ListTopics returns topics ordered by name, optionally only approved ones.
func (c *Client) ListTopics(ctx context.Context, approvedOnly bool) ([]Topic, error) {
	var topics []Topic
	query := c.db.WithContext(ctx).Order("topic_name ASC")
	if approvedOnly {
		query = query.Where("approved = ?", true)
	}
	if err := query.Find(&topics).Error; err != nil {
		log.Error("failed to list topics", "error", err)
		return nil, err
	}
	return topics, nil
}

// UpdateTopicContent stores generated content on a topic that is not approved yet.
func (c *Client) UpdateTopicContent(ctx context.Context, id uint, lesson, quiz string) error {
	result := c.db.WithContext(ctx).
		Model(&Topic{}).
		Where("id = ? AND approved = ?", id, false).
		Updates(map[string]any{
			"lesson_text":    lesson,
			"quiz_questions": quiz,
		})
	if result.Error != nil {
		log.Error("failed to update topic content", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) ApproveTopic(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Model(&Topic{}).Where("id = ?", id).Update("approved", true)
	if result.Error != nil {
		log.Error("failed to approve topic", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTopic removes the topic row. Sessions keep their copy of the lesson.
func (c *Client) DeleteTopic(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&Topic{}, id)
	if result.Error != nil {
		log.Error("failed to delete topic", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) CountTopicsByStatus(ctx context.Context) (map[TopicStatus]int64, error) {
	topics, err := c.ListTopics(ctx, false)
	if err != nil {
		return nil, err
	}
	counts := map[TopicStatus]int64{
		TopicStatusDraft:         0,
		TopicStatusPendingReview: 0,
		TopicStatusApproved:      0,
	}
	for i := range topics {
		counts[topics[i].Status()]++
	}
	return counts, nil
}

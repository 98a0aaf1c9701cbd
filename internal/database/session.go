package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// DateLayout is the format of Session.Date.
const DateLayout = "2006-01-02"

// Session is one completed pass of a learner through a topic.
// Rows are written once and never updated.
type Session struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index"`
	// Date is the calendar day of completion, formatted with DateLayout.
	Date string `gorm:"not null;index"`
	// Topic is the topic name at the time the session was taken.
	Topic string `gorm:"not null"`
	// Lesson is a copy of the lesson text that was shown.
	Lesson    string
	UserInput string
	Score     int
	// Durations in seconds.
	TimeSpent   float64
	QuizTime    float64
	ReadingTime float64
	WritingTime float64
	CreatedAt   time.Time
	Questions   []QuizQuestion `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// QuizQuestion is a single answered question of a session.
type QuizQuestion struct {
	ID            uint     `gorm:"primaryKey"`
	SessionID     uint     `gorm:"not null;index"`
	Question      string   `gorm:"not null"`
	Options       []string `gorm:"serializer:json"`
	CorrectAnswer string
	UserAnswer    string
}

// SessionSummary is a session listing row joined with its user.
// UserName is empty when the user has been deleted.
type SessionSummary struct {
	ID            uint
	UserID        uint
	UserName      string
	Date          string
	Topic         string
	Score         int
	QuestionCount int
	TimeSpent     float64
	QuizTime      float64
	ReadingTime   float64
	WritingTime   float64
	CreatedAt     time.Time
}

// SessionDB defines the interface for session-related database operations.
type SessionDB interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id uint) (*Session, error)
	ListSessions(ctx context.Context, userID *uint) ([]SessionSummary, error)
	DeleteSession(ctx context.Context, id uint) error
	CountSessions(ctx context.Context) (int64, error)
	CountQuizQuestions(ctx context.Context) (int64, error)
	CountOrphanedSessions(ctx context.Context) (int64, error)
}

// CreateSession inserts the session and all of its questions in one transaction.
func (c *Client) CreateSession(ctx context.Context, session *Session) error {
	questions := session.Questions
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(session).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].SessionID = session.ID
		}
		return tx.Create(&questions).Error
	})
	if err != nil {
		log.Error("failed to create session", "error", err)
		session.ID = 0
		return err
	}
	session.Questions = questions
	return nil
}

// GetSession returns the session with its questions in insertion order.
func (c *Client) GetSession(ctx context.Context, id uint) (*Session, error) {
	var session Session
	err := c.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.id ASC")
		}).
		First(&session, id).Error
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrNotFound) {
			log.Error("failed to get session", "error", err)
		}
		return nil, err
	}
	return &session, nil
}

// ListSessions returns session summaries, most recent first.
// If userID is nil, the sessions of all users are returned.
func (c *Client) ListSessions(ctx context.Context, userID *uint) ([]SessionSummary, error) {
	var summaries []SessionSummary
	query := c.db.WithContext(ctx).
		Table("sessions").
		Select(`sessions.id, sessions.user_id, COALESCE(users.name, '') AS user_name,
			sessions.date, sessions.topic, sessions.score,
			(SELECT COUNT(*) FROM quiz_questions WHERE quiz_questions.session_id = sessions.id) AS question_count,
			sessions.time_spent, sessions.quiz_time, sessions.reading_time, sessions.writing_time,
			sessions.created_at`).
		Joins("LEFT JOIN users ON users.id = sessions.user_id").
		Order("sessions.date DESC, sessions.created_at DESC, sessions.id DESC")
	if userID != nil {
		query = query.Where("sessions.user_id = ?", *userID)
	}
	if err := query.Scan(&summaries).Error; err != nil {
		log.Error("failed to list sessions", "error", err)
		return nil, err
	}
	return summaries, nil
}

// DeleteSession removes the questions and then the session in one transaction.
func (c *Client) DeleteSession(ctx context.Context, id uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&QuizQuestion{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Session{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Error("failed to delete session", "error", err)
	}
	return err
}

func (c *Client) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Session{}).Count(&count).Error; err != nil {
		log.Error("failed to count sessions", "error", err)
		return 0, err
	}
	return count, nil
}

func (c *Client) CountQuizQuestions(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&QuizQuestion{}).Count(&count).Error; err != nil {
		log.Error("failed to count quiz questions", "error", err)
		return 0, err
	}
	return count, nil
}

// CountOrphanedSessions counts sessions whose user no longer exists.
func (c *Client) CountOrphanedSessions(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&Session{}).
		Joins("LEFT JOIN users ON users.id = sessions.user_id").
		Where("users.id IS NULL").
		Count(&count).Error
	if err != nil {
		log.Error("failed to count orphaned sessions", "error", err)
		return 0, err
	}
	return count, nil
}

// Package content owns topics and their review workflow:
// Draft -> PendingReview -> Approved, or rejected and deleted.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/llm"
)

var (
	// ErrDuplicateTopic is returned when a topic name is already taken.
	ErrDuplicateTopic = errors.New("topic already exists")
	// ErrGenerationFailure wraps any error of the generator.
	ErrGenerationFailure = errors.New("lesson generation failed")
	// ErrInvalidState is returned when an action does not fit the topic's state.
	ErrInvalidState = errors.New("action not allowed in current topic state")
	// ErrEmptyInput is returned when a topic name or age level is blank.
	ErrEmptyInput = errors.New("topic name and age level must not be empty")
	// ErrInvalidLength is returned for lesson lengths other than short, medium and long.
	ErrInvalidLength = errors.New("lesson length must be short, medium or long")
)

// LessonLength is the requested size of a generated lesson.
type LessonLength string

const (
	LengthShort  LessonLength = "short"
	LengthMedium LessonLength = "medium"
	LengthLong   LessonLength = "long"
)

// ParseLessonLength validates a lesson length, ignoring case.
func ParseLessonLength(s string) (LessonLength, error) {
	switch l := LessonLength(strings.ToLower(strings.TrimSpace(s))); l {
	case LengthShort, LengthMedium, LengthLong:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLength, s)
	}
}

// Repository manages topics.
type Repository struct {
	db  database.TopicDB
	gen llm.Generator
}

// NewRepository returns a Repository storing topics in db and generating
// content with gen.
func NewRepository(db database.TopicDB, gen llm.Generator) *Repository {
	return &Repository{db: db, gen: gen}
}

// CreateDraft inserts an unapproved topic without content.
func (r *Repository) CreateDraft(ctx context.Context, name, ageLevel, length string) (*database.Topic, error) {
	name = strings.TrimSpace(name)
	ageLevel = strings.TrimSpace(ageLevel)
	if name == "" || ageLevel == "" {
		return nil, ErrEmptyInput
	}
	l, err := ParseLessonLength(length)
	if err != nil {
		return nil, err
	}

	topic := &database.Topic{
		TopicName:    name,
		AgeLevel:     ageLevel,
		LessonLength: string(l),
	}
	if err := r.db.CreateTopic(ctx, topic); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateTopic
		}
		return nil, err
	}
	return topic, nil
}

// Populate generates lesson and quiz for a topic that is not approved yet
// and moves it to PendingReview. On generator failure the topic is left as is.
func (r *Repository) Populate(ctx context.Context, topicID uint) (*database.Topic, error) {
	topic, err := r.db.GetTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.Status() == database.TopicStatusApproved {
		return nil, fmt.Errorf("%w: topic %q is already approved", ErrInvalidState, topic.TopicName)
	}

	prompt := BuildPrompt(topic.TopicName, topic.AgeLevel, LessonLength(topic.LessonLength))
	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		log.Warn("failed to generate lesson", "topic", topic.TopicName, "error", err)
		return topic, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}

	lesson, quizText := SplitGenerated(text)
	if lesson == "" {
		return topic, fmt.Errorf("%w: response contained no lesson", ErrGenerationFailure)
	}
	if err := r.db.UpdateTopicContent(ctx, topic.ID, lesson, quizText); err != nil {
		return nil, err
	}
	topic.LessonText = lesson
	topic.QuizText = quizText
	return topic, nil
}

// CreateAndPopulate creates a draft and generates its content. If generation
// fails the draft is kept and returned together with the error.
func (r *Repository) CreateAndPopulate(ctx context.Context, name, ageLevel, length string) (*database.Topic, error) {
	topic, err := r.CreateDraft(ctx, name, ageLevel, length)
	if err != nil {
		return nil, err
	}
	populated, err := r.Populate(ctx, topic.ID)
	if err != nil {
		return topic, err
	}
	return populated, nil
}

// Approve releases a topic in PendingReview to learners.
func (r *Repository) Approve(ctx context.Context, topicID uint) (*database.Topic, error) {
	topic, err := r.db.GetTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if status := topic.Status(); status != database.TopicStatusPendingReview {
		return nil, fmt.Errorf("%w: cannot approve a topic in state %s", ErrInvalidState, status)
	}
	if err := r.db.ApproveTopic(ctx, topic.ID); err != nil {
		return nil, err
	}
	topic.Approved = true
	return topic, nil
}

// Reject deletes a topic that has not been approved.
func (r *Repository) Reject(ctx context.Context, topicID uint) (*database.Topic, error) {
	topic, err := r.db.GetTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.Status() == database.TopicStatusApproved {
		return nil, fmt.Errorf("%w: cannot reject an approved topic, delete it instead", ErrInvalidState)
	}
	if err := r.db.DeleteTopic(ctx, topic.ID); err != nil {
		return nil, err
	}
	return topic, nil
}

// Delete removes a topic in any state and returns what was removed.
func (r *Repository) Delete(ctx context.Context, topicID uint) (*database.Topic, error) {
	topic, err := r.db.GetTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if err := r.db.DeleteTopic(ctx, topic.ID); err != nil {
		return nil, err
	}
	return topic, nil
}

// ListApproved returns the topics visible to learners.
func (r *Repository) ListApproved(ctx context.Context) ([]database.Topic, error) {
	return r.db.ListTopics(ctx, true)
}

// ListAll returns every topic regardless of state.
func (r *Repository) ListAll(ctx context.Context) ([]database.Topic, error) {
	return r.db.ListTopics(ctx, false)
}

// Get returns any topic.
func (r *Repository) Get(ctx context.Context, topicID uint) (*database.Topic, error) {
	return r.db.GetTopicByID(ctx, topicID)
}

// GetApproved returns the topic only if learners may see it.
func (r *Repository) GetApproved(ctx context.Context, topicID uint) (*database.Topic, error) {
	topic, err := r.db.GetTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if !topic.Approved {
		return nil, database.ErrNotFound
	}
	return topic, nil
}

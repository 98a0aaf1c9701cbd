package engine

import (
	"context"
	"fmt"

	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/notify"
)

// CreateTopic adds a draft and generates its lesson and quiz. On generation
// failure the draft is kept and returned together with the error.
func (e *Engine) CreateTopic(ctx context.Context, actor *database.User, name, ageLevel, length string) (*database.Topic, error) {
	topic, err := e.topics.CreateAndPopulate(ctx, name, ageLevel, length)
	if topic == nil {
		return nil, err
	}
	e.recordTopicEvent(ctx, database.HistoryEventTopicCreated, topic, actor, "")
	return e.generated(ctx, actor, topic, err)
}

// GenerateTopic (re)generates the content of a topic that is not approved.
func (e *Engine) GenerateTopic(ctx context.Context, actor *database.User, topicID uint) (*database.Topic, error) {
	topic, err := e.topics.Populate(ctx, topicID)
	if topic == nil {
		return nil, err
	}
	return e.generated(ctx, actor, topic, err)
}

// generated records the outcome of a generation and announces topics that
// are ready for review.
func (e *Engine) generated(ctx context.Context, actor *database.User, topic *database.Topic, err error) (*database.Topic, error) {
	if err != nil {
		e.recordTopicEvent(ctx, database.HistoryEventTopicGenerationFailed, topic, actor, err.Error())
		return topic, err
	}
	e.recordTopicEvent(ctx, database.HistoryEventTopicGenerated, topic, actor, "")

	notify.Send(ctx, e.notifier, notify.Message{
		Title:    "Topic ready for review",
		Body:     fmt.Sprintf("%q for age %s is waiting for approval.", topic.TopicName, topic.AgeLevel),
		Priority: notify.PriorityDefault,
		Tags:     []string{"books", "review"},
		Link:     e.adminLink("topics"),
	})
	return topic, nil
}

// ApproveTopic releases a topic in review to learners.
func (e *Engine) ApproveTopic(ctx context.Context, actor *database.User, topicID uint) (*database.Topic, error) {
	topic, err := e.topics.Approve(ctx, topicID)
	if err != nil {
		return nil, err
	}
	e.recordTopicEvent(ctx, database.HistoryEventTopicApproved, topic, actor, "")
	return topic, nil
}

// RejectTopic removes a topic that was not approved.
func (e *Engine) RejectTopic(ctx context.Context, actor *database.User, topicID uint) (*database.Topic, error) {
	topic, err := e.topics.Reject(ctx, topicID)
	if err != nil {
		return nil, err
	}
	e.recordTopicEvent(ctx, database.HistoryEventTopicRejected, topic, actor, "")
	return topic, nil
}

// DeleteTopic removes a topic in any state.
func (e *Engine) DeleteTopic(ctx context.Context, actor *database.User, topicID uint) (*database.Topic, error) {
	topic, err := e.topics.Delete(ctx, topicID)
	if err != nil {
		return nil, err
	}
	e.recordTopicEvent(ctx, database.HistoryEventTopicDeleted, topic, actor, string(topic.Status()))
	return topic, nil
}

// ApprovedTopics returns the topics learners can pick.
func (e *Engine) ApprovedTopics(ctx context.Context) ([]database.Topic, error) {
	return e.topics.ListApproved(ctx)
}

// Topics returns every topic for admins.
func (e *Engine) Topics(ctx context.Context) ([]database.Topic, error) {
	return e.topics.ListAll(ctx)
}

// Topic returns any topic for admins.
func (e *Engine) Topic(ctx context.Context, topicID uint) (*database.Topic, error) {
	return e.topics.Get(ctx, topicID)
}

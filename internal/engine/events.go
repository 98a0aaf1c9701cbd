package engine

import (
	"context"
	"fmt"

	"github.com/jon4hz/eduquest/internal/database"
	"github.com/samber/lo"
)

// recordEvent writes a history event. Failures are logged only.
func (e *Engine) recordEvent(ctx context.Context, typ database.HistoryEventType, subject string, actor *database.User, detail string) {
	event := database.HistoryEvent{
		EventType: typ,
		Subject:   subject,
		Detail:    detail,
	}
	if actor != nil {
		event.UserID = lo.ToPtr(actor.ID)
		event.UserName = actor.Name
	}
	if err := e.db.CreateHistoryEvent(ctx, event); err != nil {
		e.log.Error("failed to create history event", "type", typ, "subject", subject, "error", err)
	}
}

func (e *Engine) recordTopicEvent(ctx context.Context, typ database.HistoryEventType, topic *database.Topic, actor *database.User, detail string) {
	if detail == "" {
		detail = fmt.Sprintf("age %s, %s lesson", topic.AgeLevel, topic.LessonLength)
	}
	e.recordEvent(ctx, typ, topic.TopicName, actor, detail)
}

// History returns the most recent events, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]database.HistoryEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return e.db.ListHistoryEvents(ctx, limit)
}

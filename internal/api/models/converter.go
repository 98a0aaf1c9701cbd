package models

import (
	"strings"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/eduquest/internal/credential"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/engine"
	"github.com/jon4hz/eduquest/internal/learner"
	"github.com/jon4hz/eduquest/internal/quiz"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
)

// HumanDuration renders a duration like "3 minutes".
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0 seconds"
	}
	var zero time.Time
	return strings.TrimSpace(humanize.RelTime(zero, zero.Add(d), "", ""))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func toInt(n int64) int {
	v, err := safecast.Convert[int](n)
	if err != nil {
		log.Warn("count out of range", "value", n, "error", err)
	}
	return v
}

// ToUser converts a database.User.
func ToUser(u database.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Role:      string(credential.RoleOf(&u)),
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		Joined:    timediff.TimeDiff(u.CreatedAt),
	}
}

// ToUsers converts a slice of users.
func ToUsers(users []database.User) []User {
	return lo.Map(users, func(u database.User, _ int) User { return ToUser(u) })
}

// ToTopicSummaries converts approved topics for the learner's picker.
func ToTopicSummaries(topics []database.Topic) []TopicSummary {
	return lo.Map(topics, func(t database.Topic, _ int) TopicSummary {
		return TopicSummary{ID: t.ID, Name: t.TopicName, AgeLevel: t.AgeLevel}
	})
}

// ToAdminTopic converts a topic including its content.
func ToAdminTopic(t database.Topic) AdminTopic {
	return AdminTopic{
		ID:           t.ID,
		Name:         t.TopicName,
		AgeLevel:     t.AgeLevel,
		LessonLength: t.LessonLength,
		Status:       string(t.Status()),
		Lesson:       t.LessonText,
		Quiz:         t.QuizText,
		QuestionsOK:  len(quiz.Parse(t.QuizText).Questions),
		CreatedAt:    t.CreatedAt,
		Updated:      timediff.TimeDiff(t.UpdatedAt),
	}
}

// ToAdminTopics converts topics for the admin listing, without their content.
func ToAdminTopics(topics []database.Topic) []AdminTopic {
	return lo.Map(topics, func(t database.Topic, _ int) AdminTopic {
		item := ToAdminTopic(t)
		item.Lesson, item.Quiz = "", ""
		return item
	})
}

// ToLearnerState converts the learner context. The lesson and questions are
// only included while they are needed.
func ToLearnerState(sc *learner.SessionContext, now time.Time) LearnerState {
	state := LearnerState{
		State:         sc.State.String(),
		AttemptID:     sc.AttemptID,
		TopicID:       sc.TopicID,
		TopicName:     sc.TopicName,
		Reflection:    sc.Reflection,
		Score:         sc.Score,
		Total:         len(sc.Questions),
		LastSessionID: sc.LastSessionID,
		SignedInFor:   HumanDuration(now.Sub(sc.SignedInAt)),
	}
	switch sc.State {
	case learner.Reading:
		state.Lesson = sc.Lesson
	case learner.QuizInProgress:
		state.Questions = ToQuestions(sc.Questions)
	}
	return state
}

// ToSessionSummaries converts a session listing.
func ToSessionSummaries(rows []database.SessionSummary) []SessionSummary {
	return lo.Map(rows, func(s database.SessionSummary, _ int) SessionSummary {
		name := s.UserName
		if name == "" {
			name = DeletedUserName
		}
		return SessionSummary{
			ID:            s.ID,
			UserID:        s.UserID,
			UserName:      name,
			Date:          s.Date,
			Topic:         s.Topic,
			Score:         s.Score,
			Total:         s.QuestionCount,
			TimeSpent:     s.TimeSpent,
			TimeSpentText: HumanDuration(seconds(s.TimeSpent)),
		}
	})
}

// ToSessionDetail converts a saved session with its questions.
func ToSessionDetail(s *database.Session) SessionDetail {
	return SessionDetail{
		ID:          s.ID,
		UserID:      s.UserID,
		Date:        s.Date,
		Topic:       s.Topic,
		Lesson:      s.Lesson,
		Reflection:  s.UserInput,
		Score:       s.Score,
		TimeSpent:   HumanDuration(seconds(s.TimeSpent)),
		ReadingTime: HumanDuration(seconds(s.ReadingTime)),
		WritingTime: HumanDuration(seconds(s.WritingTime)),
		QuizTime:    HumanDuration(seconds(s.QuizTime)),
		Questions: lo.Map(s.Questions, func(q database.QuizQuestion, _ int) SessionQuestion {
			return SessionQuestion{
				Question:      q.Question,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				UserAnswer:    q.UserAnswer,
				Correct:       quiz.SelectedLetter(q.UserAnswer) == q.CorrectAnswer,
			}
		}),
	}
}

// ToHistoryEvents converts audit log entries.
func ToHistoryEvents(events []database.HistoryEvent) []HistoryEvent {
	return lo.Map(events, func(e database.HistoryEvent, _ int) HistoryEvent {
		return HistoryEvent{
			ID:        e.ID,
			Type:      string(e.EventType),
			Subject:   e.Subject,
			UserName:  e.UserName,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
			When:      timediff.TimeDiff(e.CreatedAt),
		}
	})
}

// ToStats converts engine stats.
func ToStats(s *engine.Stats) Stats {
	return Stats{
		Users: toInt(s.Users),
		Topics: lo.MapEntries(s.Topics, func(k database.TopicStatus, v int64) (string, int) {
			return string(k), toInt(v)
		}),
		Sessions:       toInt(s.Sessions),
		QuizQuestions:  toInt(s.QuizQuestions),
		OrphanSessions: toInt(s.OrphanSessions),
		HistoryEvents:  toInt(s.HistoryEvents),
	}
}

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/learner"
	"github.com/jon4hz/eduquest/internal/notify"
	"github.com/jon4hz/eduquest/internal/quiz"
)

// QuizOutcome is the result of a submitted and saved quiz.
type QuizOutcome struct {
	Score     int
	Total     int
	SessionID uint
}

// withContext loads the learner context, applies fn and stores the context
// again, also when fn fails, since some failures move the state.
func (e *Engine) withContext(ctx context.Context, userID uint, fn func(sc *learner.SessionContext) error) (*learner.SessionContext, error) {
	sc, err := e.contexts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := sc.State
	fnErr := fn(sc)
	if fnErr == nil || sc.State != before {
		if err := e.contexts.Set(ctx, sc); err != nil {
			return nil, fmt.Errorf("failed to store learner context: %w", err)
		}
	}
	return sc, fnErr
}

// LearnerState returns the current learner context.
func (e *Engine) LearnerState(ctx context.Context, userID uint) (*learner.SessionContext, error) {
	return e.contexts.Get(ctx, userID)
}

// SelectTopic starts a session on an approved topic.
func (e *Engine) SelectTopic(ctx context.Context, userID, topicID uint) (*learner.SessionContext, error) {
	return e.withContext(ctx, userID, func(sc *learner.SessionContext) error {
		return e.machine.SelectTopic(ctx, sc, topicID)
	})
}

// PresentLesson returns the lesson of the selected topic.
func (e *Engine) PresentLesson(ctx context.Context, userID uint) (*learner.SessionContext, error) {
	return e.withContext(ctx, userID, func(sc *learner.SessionContext) error {
		_, err := e.machine.PresentLesson(sc)
		return err
	})
}

// SubmitReflection stores what the learner wrote after reading.
func (e *Engine) SubmitReflection(ctx context.Context, userID uint, text string) (*learner.SessionContext, error) {
	return e.withContext(ctx, userID, func(sc *learner.SessionContext) error {
		return e.machine.SubmitReflection(sc, text)
	})
}

// StartQuiz starts the quiz and returns its questions.
func (e *Engine) StartQuiz(ctx context.Context, userID uint) ([]quiz.Question, error) {
	var (
		questions []quiz.Question
		attempt   string
	)
	sc, err := e.withContext(ctx, userID, func(sc *learner.SessionContext) error {
		attempt = sc.AttemptID
		var err error
		questions, err = e.machine.StartQuiz(sc)
		return err
	})
	if errors.Is(err, learner.ErrNoQuizAvailable) && sc != nil {
		e.log.Warn("session aborted, topic has no quiz", "user", sc.UserName, "attempt", attempt)
	}
	return questions, err
}

// SubmitAnswers scores the quiz and saves the session.
func (e *Engine) SubmitAnswers(ctx context.Context, userID uint, answers []string) (*QuizOutcome, error) {
	sc, err := e.withContext(ctx, userID, func(sc *learner.SessionContext) error {
		_, err := e.machine.SubmitAnswers(sc, answers)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e.save(ctx, sc)
}

// RetrySave saves a scored session whose earlier save failed.
func (e *Engine) RetrySave(ctx context.Context, userID uint) (*QuizOutcome, error) {
	sc, err := e.contexts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.save(ctx, sc)
}

func (e *Engine) save(ctx context.Context, sc *learner.SessionContext) (*QuizOutcome, error) {
	outcome := &QuizOutcome{Score: sc.Score, Total: len(sc.Questions)}
	topicName, userName, attempt := sc.TopicName, sc.UserName, sc.AttemptID

	_, err := e.withContext(ctx, sc.UserID, func(cur *learner.SessionContext) error {
		id, err := e.machine.Save(ctx, cur)
		outcome.SessionID = id
		return err
	})
	if err != nil {
		if errors.Is(err, learner.ErrInvalidTransition) {
			return nil, err
		}
		e.log.Error("failed to save session", "user", userName, "topic", topicName, "attempt", attempt, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	e.recordEvent(ctx, database.HistoryEventSessionSaved, topicName,
		&database.User{ID: sc.UserID, Name: userName},
		fmt.Sprintf("score %d/%d, attempt %s", outcome.Score, outcome.Total, attempt))
	e.log.Info("session saved", "user", userName, "topic", topicName, "attempt", attempt, "session", outcome.SessionID)

	notify.Send(ctx, e.notifier, notify.Message{
		Title:    "Session completed",
		Body:     fmt.Sprintf("%s finished %q with %d of %d correct.", userName, topicName, outcome.Score, outcome.Total),
		Priority: notify.PriorityLow,
		Tags:     []string{"tada", "session"},
		Link:     e.adminLink(fmt.Sprintf("sessions/%d", outcome.SessionID)),
	})
	return outcome, nil
}

// Abandon drops the in-flight session without saving.
func (e *Engine) Abandon(ctx context.Context, userID uint) (*learner.SessionContext, error) {
	return e.withContext(ctx, userID, func(sc *learner.SessionContext) error {
		if sc.AttemptID != "" {
			e.log.Info("session abandoned", "user", sc.UserName, "topic", sc.TopicName, "attempt", sc.AttemptID, "state", sc.State)
		}
		e.machine.Abandon(sc)
		return nil
	})
}

// Package learner drives a learner through one session:
// Idle -> TopicSelected -> Reading -> AwaitingReflection -> QuizInProgress -> Scored -> Saved -> Idle.
package learner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/quiz"
	"github.com/samber/lo"
)

var (
	// ErrInvalidTransition is returned when a step is attempted from the wrong state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrEmptyInput is returned for a blank reflection.
	ErrEmptyInput = errors.New("reflection must not be empty")
	// ErrNoQuizAvailable is returned when the topic has no readable questions.
	ErrNoQuizAvailable = errors.New("no quiz available for this topic")
	// ErrAnswerCountMismatch is returned when not every question was answered once.
	ErrAnswerCountMismatch = errors.New("one answer per question is required")
	// ErrInvalidOption is returned when an answer is not one of the offered options.
	ErrInvalidOption = errors.New("answer is not one of the options")
)

// TopicSource returns approved topics.
type TopicSource interface {
	GetApproved(ctx context.Context, topicID uint) (*database.Topic, error)
}

// SessionSaver persists completed sessions.
type SessionSaver interface {
	Save(ctx context.Context, session *database.Session) (uint, error)
}

// Machine implements the transitions. It holds no per-learner state.
type Machine struct {
	topics TopicSource
	saver  SessionSaver
	now    func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// NewMachine returns a Machine reading topics from topics and saving to saver.
func NewMachine(topics TopicSource, saver SessionSaver, opts ...Option) *Machine {
	m := &Machine{
		topics: topics,
		saver:  saver,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func expect(sc *SessionContext, step string, want State) error {
	if sc.State != want {
		return fmt.Errorf("%w: %s requires state %s, current state is %s", ErrInvalidTransition, step, want, sc.State)
	}
	return nil
}

// SelectTopic snapshots an approved topic and starts the reading timer.
func (m *Machine) SelectTopic(ctx context.Context, sc *SessionContext, topicID uint) error {
	if err := expect(sc, "select topic", Idle); err != nil {
		return err
	}
	topic, err := m.topics.GetApproved(ctx, topicID)
	if err != nil {
		return err
	}

	sc.AttemptID = uuid.NewString()
	sc.TopicID = topic.ID
	sc.TopicName = topic.TopicName
	sc.Lesson = topic.LessonText
	sc.Questions = quiz.Parse(topic.QuizText).Questions
	sc.ReadingStart = m.now()
	sc.State = TopicSelected
	return nil
}

// PresentLesson returns the lesson text. Calling it again while reading
// returns the lesson without a transition.
func (m *Machine) PresentLesson(sc *SessionContext) (string, error) {
	if sc.State == Reading {
		return sc.Lesson, nil
	}
	if err := expect(sc, "present lesson", TopicSelected); err != nil {
		return "", err
	}
	sc.State = Reading
	return sc.Lesson, nil
}

// SubmitReflection stores the learner's reflection and records the reading time.
// A blank reflection is rejected and the state is left unchanged.
func (m *Machine) SubmitReflection(sc *SessionContext, text string) error {
	if err := expect(sc, "submit reflection", Reading); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	now := m.now()
	sc.ReadingTime = now.Sub(sc.ReadingStart)
	// reflection is captured in one step, the writing timer starts and stops here
	writingStart := now
	sc.Reflection = text
	sc.WritingTime = m.now().Sub(writingStart)
	sc.State = AwaitingReflection
	return nil
}

// StartQuiz starts the quiz timer and returns the questions. Without
// questions the session is aborted and the context returns to Idle.
func (m *Machine) StartQuiz(sc *SessionContext) ([]quiz.Question, error) {
	if err := expect(sc, "start quiz", AwaitingReflection); err != nil {
		return nil, err
	}
	if len(sc.Questions) == 0 {
		sc.reset()
		return nil, ErrNoQuizAvailable
	}
	sc.QuizStart = m.now()
	sc.State = QuizInProgress
	return sc.Questions, nil
}

// SubmitAnswers scores one selected option per question.
func (m *Machine) SubmitAnswers(sc *SessionContext, selected []string) (int, error) {
	if err := expect(sc, "submit answers", QuizInProgress); err != nil {
		return 0, err
	}
	if len(selected) != len(sc.Questions) {
		return 0, fmt.Errorf("%w: got %d answers for %d questions", ErrAnswerCountMismatch, len(selected), len(sc.Questions))
	}
	for i, q := range sc.Questions {
		if !lo.Contains(q.Options, selected[i]) {
			return 0, fmt.Errorf("%w: question %d", ErrInvalidOption, i+1)
		}
	}

	sc.Selected = append([]string(nil), selected...)
	sc.Score = quiz.Score(sc.Questions, sc.Selected)
	sc.QuizTime = m.now().Sub(sc.QuizStart)
	sc.State = Scored
	return sc.Score, nil
}

// Save persists the scored session and returns the context to Idle.
// If saving fails the context stays Scored so the save can be retried.
func (m *Machine) Save(ctx context.Context, sc *SessionContext) (uint, error) {
	if err := expect(sc, "save", Scored); err != nil {
		return 0, err
	}

	now := m.now()
	session := &database.Session{
		UserID:      sc.UserID,
		Date:        now.Format(database.DateLayout),
		Topic:       sc.TopicName,
		Lesson:      sc.Lesson,
		UserInput:   sc.Reflection,
		Score:       sc.Score,
		TimeSpent:   now.Sub(sc.SignedInAt).Seconds(),
		QuizTime:    sc.QuizTime.Seconds(),
		ReadingTime: sc.ReadingTime.Seconds(),
		WritingTime: sc.WritingTime.Seconds(),
		Questions: lo.Map(sc.Questions, func(q quiz.Question, i int) database.QuizQuestion {
			return database.QuizQuestion{
				Question:      q.Text,
				Options:       q.Options,
				CorrectAnswer: q.Answer,
				UserAnswer:    sc.Selected[i],
			}
		}),
	}

	id, err := m.saver.Save(ctx, session)
	if err != nil {
		return 0, err
	}

	sc.State = Saved
	sc.LastSessionID = id
	sc.reset()
	return id, nil
}

// Abandon drops any in-flight session without saving it.
func (m *Machine) Abandon(sc *SessionContext) {
	sc.reset()
}

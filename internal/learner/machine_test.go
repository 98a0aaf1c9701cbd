package learner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jon4hz/eduquest/internal/database"
	"github.com/stretchr/testify/suite"
)

type fakeTopics struct {
	topics map[uint]*database.Topic
}

func (f *fakeTopics) GetApproved(_ context.Context, id uint) (*database.Topic, error) {
	t, ok := f.topics[id]
	if !ok || !t.Approved {
		return nil, database.ErrNotFound
	}
	return t, nil
}

type fakeSaver struct {
	err   error
	saved []*database.Session
}

func (f *fakeSaver) Save(_ context.Context, s *database.Session) (uint, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, s)
	return uint(len(f.saved)), nil
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func volcanoQuiz() string {
	var b strings.Builder
	b.WriteString("Quiz:\n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "Question %d: Volcano fact %d?\nA) one\nB) two\nC) three\nD) four\nAnswer: B\n\n", i, i)
	}
	return b.String()
}

type MachineTestSuite struct {
	suite.Suite
	topics *fakeTopics
	saver  *fakeSaver
	clock  *clock
	m      *Machine
	sc     *SessionContext
	ctx    context.Context
}

func (s *MachineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &clock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	s.topics = &fakeTopics{topics: map[uint]*database.Topic{
		1: {ID: 1, TopicName: "Volcanoes", LessonText: "Volcanoes are openings in the crust.", QuizText: volcanoQuiz(), Approved: true},
		2: {ID: 2, TopicName: "Empty", LessonText: "No quiz here.", QuizText: "", Approved: true},
		3: {ID: 3, TopicName: "Draft", LessonText: "Pending", QuizText: volcanoQuiz(), Approved: false},
	}}
	s.saver = &fakeSaver{}
	s.m = NewMachine(s.topics, s.saver, WithClock(s.clock.now))
	s.sc = NewContext(7, "Kid", s.clock.now())
}

func (s *MachineTestSuite) readToQuiz(topicID uint) {
	s.Require().NoError(s.m.SelectTopic(s.ctx, s.sc, topicID))
	_, err := s.m.PresentLesson(s.sc)
	s.Require().NoError(err)
	s.Require().NoError(s.m.SubmitReflection(s.sc, "Lava is hot"))
}

func (s *MachineTestSuite) TestFullScenario() {
	s.clock.advance(30 * time.Second)
	s.Require().NoError(s.m.SelectTopic(s.ctx, s.sc, 1))
	s.Equal(TopicSelected, s.sc.State)
	s.NotEmpty(s.sc.AttemptID)
	s.Len(s.sc.Questions, 5)

	lesson, err := s.m.PresentLesson(s.sc)
	s.Require().NoError(err)
	s.Equal("Volcanoes are openings in the crust.", lesson)
	s.Equal(Reading, s.sc.State)

	s.clock.advance(2 * time.Minute)
	s.Require().NoError(s.m.SubmitReflection(s.sc, "  Lava is hot  "))
	s.Equal(AwaitingReflection, s.sc.State)
	s.Equal("Lava is hot", s.sc.Reflection)
	s.Equal(2*time.Minute, s.sc.ReadingTime)

	questions, err := s.m.StartQuiz(s.sc)
	s.Require().NoError(err)
	s.Len(questions, 5)
	s.Equal(QuizInProgress, s.sc.State)

	s.clock.advance(45 * time.Second)
	score, err := s.m.SubmitAnswers(s.sc, []string{"B) two", "B) two", "A) one", "B) two", "C) three"})
	s.Require().NoError(err)
	s.Equal(3, score)
	s.Equal(Scored, s.sc.State)
	s.Equal(45*time.Second, s.sc.QuizTime)

	id, err := s.m.Save(s.ctx, s.sc)
	s.Require().NoError(err)
	s.Equal(uint(1), id)
	s.Equal(Idle, s.sc.State)
	s.Equal(uint(1), s.sc.LastSessionID)
	s.Empty(s.sc.Lesson)
	s.Equal("Kid", s.sc.UserName)

	s.Require().Len(s.saver.saved, 1)
	saved := s.saver.saved[0]
	s.Equal(uint(7), saved.UserID)
	s.Equal("2026-03-14", saved.Date)
	s.Equal("Volcanoes", saved.Topic)
	s.Equal("Lava is hot", saved.UserInput)
	s.Equal(3, saved.Score)
	s.InDelta(195.0, saved.TimeSpent, 0.001)
	s.InDelta(120.0, saved.ReadingTime, 0.001)
	s.InDelta(45.0, saved.QuizTime, 0.001)
	s.Require().Len(saved.Questions, 5)
	s.Equal("A) one", saved.Questions[2].UserAnswer)
	s.Equal("B", saved.Questions[2].CorrectAnswer)
}

func (s *MachineTestSuite) TestWrongState() {
	_, err := s.m.PresentLesson(s.sc)
	s.ErrorIs(err, ErrInvalidTransition)

	s.ErrorIs(s.m.SubmitReflection(s.sc, "text"), ErrInvalidTransition)

	_, err = s.m.StartQuiz(s.sc)
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.m.SubmitAnswers(s.sc, nil)
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.m.Save(s.ctx, s.sc)
	s.ErrorIs(err, ErrInvalidTransition)

	s.Require().NoError(s.m.SelectTopic(s.ctx, s.sc, 1))
	s.ErrorIs(s.m.SelectTopic(s.ctx, s.sc, 1), ErrInvalidTransition)
	s.Equal(TopicSelected, s.sc.State)
}

func (s *MachineTestSuite) TestSelectUnapprovedTopic() {
	s.ErrorIs(s.m.SelectTopic(s.ctx, s.sc, 3), database.ErrNotFound)
	s.ErrorIs(s.m.SelectTopic(s.ctx, s.sc, 99), database.ErrNotFound)
	s.Equal(Idle, s.sc.State)
}

func (s *MachineTestSuite) TestPresentLessonTwice() {
	s.Require().NoError(s.m.SelectTopic(s.ctx, s.sc, 1))
	_, err := s.m.PresentLesson(s.sc)
	s.Require().NoError(err)
	lesson, err := s.m.PresentLesson(s.sc)
	s.Require().NoError(err)
	s.NotEmpty(lesson)
	s.Equal(Reading, s.sc.State)
}

func (s *MachineTestSuite) TestBlankReflection() {
	s.Require().NoError(s.m.SelectTopic(s.ctx, s.sc, 1))
	_, err := s.m.PresentLesson(s.sc)
	s.Require().NoError(err)

	s.ErrorIs(s.m.SubmitReflection(s.sc, "   \n\t"), ErrEmptyInput)
	s.Equal(Reading, s.sc.State)
	s.Empty(s.sc.Reflection)
}

func (s *MachineTestSuite) TestNoQuizAbortsToIdle() {
	s.readToQuiz(2)
	_, err := s.m.StartQuiz(s.sc)
	s.ErrorIs(err, ErrNoQuizAvailable)
	s.Equal(Idle, s.sc.State)
	s.Empty(s.sc.TopicName)
	s.Empty(s.saver.saved)
}

func (s *MachineTestSuite) TestAnswerValidation() {
	s.readToQuiz(1)
	_, err := s.m.StartQuiz(s.sc)
	s.Require().NoError(err)

	_, err = s.m.SubmitAnswers(s.sc, []string{"A) one"})
	s.ErrorIs(err, ErrAnswerCountMismatch)
	s.Equal(QuizInProgress, s.sc.State)

	_, err = s.m.SubmitAnswers(s.sc, []string{"A) one", "A) one", "A) one", "A) one", "E) five"})
	s.ErrorIs(err, ErrInvalidOption)
	s.Equal(QuizInProgress, s.sc.State)

	score, err := s.m.SubmitAnswers(s.sc, []string{"B) two", "B) two", "B) two", "B) two", "B) two"})
	s.Require().NoError(err)
	s.Equal(5, score)
}

func (s *MachineTestSuite) TestSaveFailureKeepsScored() {
	s.readToQuiz(1)
	_, err := s.m.StartQuiz(s.sc)
	s.Require().NoError(err)
	_, err = s.m.SubmitAnswers(s.sc, []string{"A) one", "A) one", "A) one", "A) one", "A) one"})
	s.Require().NoError(err)

	s.saver.err = errors.New("disk full")
	_, err = s.m.Save(s.ctx, s.sc)
	s.Error(err)
	s.Equal(Scored, s.sc.State)
	s.Equal(0, s.sc.Score)

	s.saver.err = nil
	id, err := s.m.Save(s.ctx, s.sc)
	s.Require().NoError(err)
	s.Equal(uint(1), id)
	s.Equal(Idle, s.sc.State)
}

func (s *MachineTestSuite) TestAbandon() {
	s.readToQuiz(1)
	s.m.Abandon(s.sc)
	s.Equal(Idle, s.sc.State)
	s.Empty(s.sc.Reflection)
	s.Equal(uint(7), s.sc.UserID)
}

func (s *MachineTestSuite) TestContextRoundTripsAsJSON() {
	s.readToQuiz(1)
	data, err := json.Marshal(s.sc)
	s.Require().NoError(err)
	s.Contains(string(data), `"state":"awaiting_reflection"`)

	var back SessionContext
	s.Require().NoError(json.Unmarshal(data, &back))
	s.Equal(AwaitingReflection, back.State)
	s.Len(back.Questions, 5)

	_, err = s.m.StartQuiz(&back)
	s.NoError(err)
}

func TestMachineTestSuite(t *testing.T) {
	suite.Run(t, new(MachineTestSuite))
}

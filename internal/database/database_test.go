package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DatabaseTestSuite struct {
	suite.Suite
	db  *Client
	ctx context.Context
}

func (s *DatabaseTestSuite) SetupTest() {
	db, err := New(filepath.Join(s.T().TempDir(), "eduquest.db"))
	s.Require().NoError(err)
	s.db = db
	s.ctx = context.Background()
}

func (s *DatabaseTestSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func (s *DatabaseTestSuite) createUser(name string) *User {
	user := &User{Name: name, PasscodeHash: "hash"}
	s.Require().NoError(s.db.CreateUser(s.ctx, user))
	return user
}

func (s *DatabaseTestSuite) TestUserNameIsUnique() {
	s.createUser("Kid")
	err := s.db.CreateUser(s.ctx, &User{Name: "Kid", PasscodeHash: "other"})
	s.ErrorIs(err, ErrDuplicate)
}

func (s *DatabaseTestSuite) TestGetUserNotFound() {
	_, err := s.db.GetUserByName(s.ctx, "nobody")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.db.GetUserByID(s.ctx, 42)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.db.DeleteUser(s.ctx, 42), ErrNotFound)
}

func (s *DatabaseTestSuite) TestTopicStatus() {
	topic := &Topic{TopicName: "Volcanoes", AgeLevel: "8", LessonLength: "short"}
	s.Require().NoError(s.db.CreateTopic(s.ctx, topic))
	s.Equal(TopicStatusDraft, topic.Status())

	s.Require().NoError(s.db.UpdateTopicContent(s.ctx, topic.ID, "lesson", "Quiz:"))
	got, err := s.db.GetTopicByID(s.ctx, topic.ID)
	s.Require().NoError(err)
	s.Equal(TopicStatusPendingReview, got.Status())

	s.Require().NoError(s.db.ApproveTopic(s.ctx, topic.ID))
	got, err = s.db.GetTopicByID(s.ctx, topic.ID)
	s.Require().NoError(err)
	s.Equal(TopicStatusApproved, got.Status())

	// approved content is frozen
	s.ErrorIs(s.db.UpdateTopicContent(s.ctx, topic.ID, "new", ""), ErrNotFound)

	counts, err := s.db.CountTopicsByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), counts[TopicStatusApproved])
	s.Equal(int64(0), counts[TopicStatusDraft])
}

func (s *DatabaseTestSuite) TestCreateAndDeleteSession() {
	user := s.createUser("Kid")
	session := &Session{
		UserID: user.ID,
		Date:   "2024-05-01",
		Topic:  "Volcanoes",
		Lesson: "Lava is hot.",
		Score:  1,
		Questions: []QuizQuestion{
			{Question: "Question 1: Hot?", Options: []string{"A) yes", "B) no"}, CorrectAnswer: "A", UserAnswer: "A) yes"},
			{Question: "Question 2: Cold?", Options: []string{"A) yes", "B) no"}, CorrectAnswer: "B", UserAnswer: "A) yes"},
		},
	}
	s.Require().NoError(s.db.CreateSession(s.ctx, session))
	s.NotZero(session.ID)

	got, err := s.db.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Questions, 2)
	s.Equal("Question 1: Hot?", got.Questions[0].Question)
	s.Equal([]string{"A) yes", "B) no"}, got.Questions[0].Options)

	s.Require().NoError(s.db.DeleteSession(s.ctx, session.ID))
	_, err = s.db.GetSession(s.ctx, session.ID)
	s.ErrorIs(err, ErrNotFound)

	count, err := s.db.CountQuizQuestions(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	s.ErrorIs(s.db.DeleteSession(s.ctx, session.ID), ErrNotFound)
}

func (s *DatabaseTestSuite) TestCreateSessionIsAtomic() {
	user := s.createUser("Kid")
	s.Require().NoError(s.db.db.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON quiz_questions
		WHEN NEW.question = 'boom'
		BEGIN SELECT RAISE(ABORT, 'boom'); END`).Error)

	session := &Session{
		UserID: user.ID,
		Date:   "2024-05-01",
		Topic:  "Volcanoes",
		Questions: []QuizQuestion{
			{Question: "fine", Options: []string{"A) a"}, CorrectAnswer: "A"},
			{Question: "boom", Options: []string{"A) a"}, CorrectAnswer: "A"},
		},
	}
	s.Error(s.db.CreateSession(s.ctx, session))
	s.Zero(session.ID)

	sessions, err := s.db.CountSessions(s.ctx)
	s.Require().NoError(err)
	s.Zero(sessions)
	questions, err := s.db.CountQuizQuestions(s.ctx)
	s.Require().NoError(err)
	s.Zero(questions)
}

func (s *DatabaseTestSuite) TestListSessionsOrderAndOrphans() {
	kid := s.createUser("Kid")
	other := s.createUser("Other")

	for _, sess := range []*Session{
		{UserID: kid.ID, Date: "2024-05-01", Topic: "Old"},
		{UserID: kid.ID, Date: "2024-05-03", Topic: "New"},
		{UserID: other.ID, Date: "2024-05-02", Topic: "Middle"},
	} {
		s.Require().NoError(s.db.CreateSession(s.ctx, sess))
	}

	all, err := s.db.ListSessions(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"New", "Middle", "Old"}, []string{all[0].Topic, all[1].Topic, all[2].Topic})
	s.Equal("Kid", all[0].UserName)

	mine, err := s.db.ListSessions(s.ctx, &kid.ID)
	s.Require().NoError(err)
	s.Len(mine, 2)

	s.Require().NoError(s.db.DeleteUser(s.ctx, other.ID))
	orphans, err := s.db.CountOrphanedSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), orphans)

	all, err = s.db.ListSessions(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal("", all[1].UserName)
}

func (s *DatabaseTestSuite) TestHistoryPrune() {
	s.Require().NoError(s.db.CreateHistoryEvent(s.ctx, HistoryEvent{
		EventType: HistoryEventTopicCreated,
		Subject:   "old",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}))
	s.Require().NoError(s.db.CreateHistoryEvent(s.ctx, HistoryEvent{
		EventType: HistoryEventTopicApproved,
		Subject:   "new",
	}))

	pruned, err := s.db.PruneHistoryEvents(s.ctx, time.Now().Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), pruned)

	events, err := s.db.ListHistoryEvents(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("new", events[0].Subject)
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func TestNewCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "eduquest.db")
	db, err := New(path)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
	assert.FileExists(t, path)
}

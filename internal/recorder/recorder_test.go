package recorder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jon4hz/eduquest/internal/database"
	"github.com/stretchr/testify/suite"
)

type RecorderTestSuite struct {
	suite.Suite
	db  *database.Client
	rec *Recorder
	ctx context.Context
	kid *database.User
}

func (s *RecorderTestSuite) SetupTest() {
	db, err := database.New(filepath.Join(s.T().TempDir(), "eduquest.db"))
	s.Require().NoError(err)
	s.db = db
	s.rec = New(db)
	s.ctx = context.Background()

	s.kid = &database.User{Name: "Kid", PasscodeHash: "x"}
	s.Require().NoError(db.CreateUser(s.ctx, s.kid))
}

func (s *RecorderTestSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func (s *RecorderTestSuite) session(date, topic string, questions int) *database.Session {
	sess := &database.Session{
		UserID:    s.kid.ID,
		Date:      date,
		Topic:     topic,
		Lesson:    "lesson",
		UserInput: "reflection",
	}
	for i := range questions {
		sess.Questions = append(sess.Questions, database.QuizQuestion{
			Question:      "Question",
			Options:       []string{"A) a", "B) b", "C) c", "D) d"},
			CorrectAnswer: "A",
			UserAnswer:    []string{"A) a", "B) b"}[i%2],
		})
	}
	return sess
}

func (s *RecorderTestSuite) TestSaveAndDetail() {
	id, err := s.rec.Save(s.ctx, s.session("2024-05-01", "Volcanoes", 5))
	s.Require().NoError(err)
	s.NotZero(id)

	detail, err := s.rec.GetDetail(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Volcanoes", detail.Topic)
	s.Len(detail.Questions, 5)
	for _, q := range detail.Questions {
		s.Equal(id, q.SessionID)
		s.Len(q.Options, 4)
	}
}

func (s *RecorderTestSuite) TestSaveRejectsIncomplete() {
	_, err := s.rec.Save(s.ctx, &database.Session{Topic: "x"})
	s.ErrorIs(err, ErrIncompleteSession)
	_, err = s.rec.Save(s.ctx, nil)
	s.ErrorIs(err, ErrIncompleteSession)
}

func (s *RecorderTestSuite) TestListsAreMostRecentFirst() {
	for _, d := range []string{"2024-01-02", "2024-03-01", "2024-02-10"} {
		_, err := s.rec.Save(s.ctx, s.session(d, "T"+d, 1))
		s.Require().NoError(err)
	}
	other := &database.User{Name: "Other", PasscodeHash: "x"}
	s.Require().NoError(s.db.CreateUser(s.ctx, other))
	otherSession := s.session("2024-04-01", "Other topic", 0)
	otherSession.UserID = other.ID
	_, err := s.rec.Save(s.ctx, otherSession)
	s.Require().NoError(err)

	mine, err := s.rec.ListByUser(s.ctx, s.kid.ID)
	s.Require().NoError(err)
	s.Require().Len(mine, 3)
	s.Equal("2024-03-01", mine[0].Date)
	s.Equal("2024-02-10", mine[1].Date)
	s.Equal("2024-01-02", mine[2].Date)
	s.Equal(1, mine[0].QuestionCount)

	all, err := s.rec.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 4)
	s.Equal("Other", all[0].UserName)
}

func (s *RecorderTestSuite) TestDeleteRemovesQuestions() {
	id, err := s.rec.Save(s.ctx, s.session("2024-05-01", "Volcanoes", 5))
	s.Require().NoError(err)
	keep, err := s.rec.Save(s.ctx, s.session("2024-05-02", "Rivers", 2))
	s.Require().NoError(err)

	s.Require().NoError(s.rec.Delete(s.ctx, id))

	_, err = s.rec.GetDetail(s.ctx, id)
	s.ErrorIs(err, database.ErrNotFound)

	total, err := s.db.CountQuizQuestions(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), total, "only the questions of the other session remain")

	kept, err := s.rec.GetDetail(s.ctx, keep)
	s.Require().NoError(err)
	s.Len(kept.Questions, 2)

	s.ErrorIs(s.rec.Delete(s.ctx, id), database.ErrNotFound)
}

func (s *RecorderTestSuite) TestOrphansAfterUserDeletion() {
	_, err := s.rec.Save(s.ctx, s.session("2024-05-01", "Volcanoes", 1))
	s.Require().NoError(err)
	s.Require().NoError(s.db.DeleteUser(s.ctx, s.kid.ID))

	n, err := s.rec.CountOrphans(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	all, err := s.rec.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Empty(all[0].UserName)
}

func TestRecorderTestSuite(t *testing.T) {
	suite.Run(t, new(RecorderTestSuite))
}

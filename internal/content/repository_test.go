package content

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/llm"
	"github.com/jon4hz/eduquest/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const generated = `**Volcanoes**
- Volcanoes are openings in the Earth.

Quiz:
Question 1: What comes out of a volcano?
A) Lava
B) Water
C) Sand
D) Snow
Answer: A
`

type RepositoryTestSuite struct {
	suite.Suite
	db   *database.Client
	mock *llm.MockProvider
	repo *Repository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := database.New(filepath.Join(s.T().TempDir(), "eduquest.db"))
	s.Require().NoError(err)
	s.db = db
	s.mock = llm.NewMockProvider()
	s.repo = NewRepository(db, llm.NewTextGenerator(s.mock, 3500, 0))
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func (s *RepositoryTestSuite) TestWorkflow() {
	topic, err := s.repo.CreateDraft(s.ctx, "Volcanoes", "8", "short")
	s.Require().NoError(err)
	s.Equal(database.TopicStatusDraft, topic.Status())

	s.mock.AddResponse(llm.MockResponse{Content: generated})
	topic, err = s.repo.Populate(s.ctx, topic.ID)
	s.Require().NoError(err)
	s.Equal(database.TopicStatusPendingReview, topic.Status())
	s.Equal("**Volcanoes**\n- Volcanoes are openings in the Earth.", topic.LessonText)
	s.True(strings.HasPrefix(topic.QuizText, "Quiz:"))
	s.Len(quiz.Parse(topic.QuizText).Questions, 1)

	prompt := s.mock.Calls[0].Messages[0].Content
	s.Contains(prompt, "Teach about Volcanoes in an engaging and understandable way suitable for a child of age 8.")
	s.Contains(prompt, "Provide a short lesson")

	approved, err := s.repo.ListApproved(s.ctx)
	s.Require().NoError(err)
	s.Empty(approved)
	_, err = s.repo.GetApproved(s.ctx, topic.ID)
	s.ErrorIs(err, database.ErrNotFound)

	_, err = s.repo.Approve(s.ctx, topic.ID)
	s.Require().NoError(err)

	approved, err = s.repo.ListApproved(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal("Volcanoes", approved[0].TopicName)

	// approved topics are frozen
	_, err = s.repo.Populate(s.ctx, topic.ID)
	s.ErrorIs(err, ErrInvalidState)
	_, err = s.repo.Reject(s.ctx, topic.ID)
	s.ErrorIs(err, ErrInvalidState)
	_, err = s.repo.Approve(s.ctx, topic.ID)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RepositoryTestSuite) TestDuplicateTopic() {
	_, err := s.repo.CreateDraft(s.ctx, "Volcanoes", "8", "short")
	s.Require().NoError(err)
	_, err = s.repo.CreateDraft(s.ctx, "Volcanoes", "10", "long")
	s.ErrorIs(err, ErrDuplicateTopic)
}

func (s *RepositoryTestSuite) TestCreateDraftValidation() {
	_, err := s.repo.CreateDraft(s.ctx, " ", "8", "short")
	s.ErrorIs(err, ErrEmptyInput)
	_, err = s.repo.CreateDraft(s.ctx, "Volcanoes", "8", "epic")
	s.ErrorIs(err, ErrInvalidLength)

	topic, err := s.repo.CreateDraft(s.ctx, "Rivers", "9", "MEDIUM")
	s.Require().NoError(err)
	s.Equal("medium", topic.LessonLength)
}

func (s *RepositoryTestSuite) TestGenerationFailureIsRetryable() {
	s.mock.AddResponse(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("quota")}})

	topic, err := s.repo.CreateAndPopulate(s.ctx, "Volcanoes", "8", "short")
	s.ErrorIs(err, ErrGenerationFailure)
	var rl *llm.ErrRateLimit
	s.True(errors.As(err, &rl))
	s.Require().NotNil(topic)

	stored, err := s.repo.Get(s.ctx, topic.ID)
	s.Require().NoError(err)
	s.Equal(database.TopicStatusDraft, stored.Status())
	s.Empty(stored.LessonText)

	s.mock.AddResponse(llm.MockResponse{Content: generated})
	topic, err = s.repo.Populate(s.ctx, topic.ID)
	s.Require().NoError(err)
	s.Equal(database.TopicStatusPendingReview, topic.Status())
}

func (s *RepositoryTestSuite) TestPopulateWithoutQuizMarker() {
	topic, err := s.repo.CreateDraft(s.ctx, "Clouds", "7", "short")
	s.Require().NoError(err)

	s.mock.AddResponse(llm.MockResponse{Content: "Only a lesson here."})
	topic, err = s.repo.Populate(s.ctx, topic.ID)
	s.Require().NoError(err)
	s.Equal("Only a lesson here.", topic.LessonText)
	s.Empty(topic.QuizText)
}

func (s *RepositoryTestSuite) TestRejectDeletes() {
	s.mock.AddResponse(llm.MockResponse{Content: generated})
	topic, err := s.repo.CreateAndPopulate(s.ctx, "Volcanoes", "8", "short")
	s.Require().NoError(err)

	_, err = s.repo.Reject(s.ctx, topic.ID)
	s.Require().NoError(err)
	_, err = s.repo.Get(s.ctx, topic.ID)
	s.ErrorIs(err, database.ErrNotFound)

	// the name is free again
	_, err = s.repo.CreateDraft(s.ctx, "Volcanoes", "8", "short")
	s.NoError(err)
}

func (s *RepositoryTestSuite) TestApproveDraftFails() {
	topic, err := s.repo.CreateDraft(s.ctx, "Volcanoes", "8", "short")
	s.Require().NoError(err)
	_, err = s.repo.Approve(s.ctx, topic.ID)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RepositoryTestSuite) TestDeleteAnyState() {
	s.mock.AddResponse(llm.MockResponse{Content: generated})
	topic, err := s.repo.CreateAndPopulate(s.ctx, "Volcanoes", "8", "short")
	s.Require().NoError(err)
	_, err = s.repo.Approve(s.ctx, topic.ID)
	s.Require().NoError(err)

	_, err = s.repo.Delete(s.ctx, topic.ID)
	s.Require().NoError(err)
	_, err = s.repo.Delete(s.ctx, topic.ID)
	s.ErrorIs(err, database.ErrNotFound)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestSplitGenerated(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantLesson string
		wantQuiz   string
	}{
		{name: "marker", in: " lesson \nQuiz:\nQ1", wantLesson: "lesson", wantQuiz: "Quiz:\nQ1"},
		{name: "no marker", in: "  just lesson ", wantLesson: "just lesson"},
		{name: "first marker wins", in: "a Quiz: b Quiz: c", wantLesson: "a", wantQuiz: "Quiz: b Quiz: c"},
		{name: "empty", in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson, q := SplitGenerated(tt.in)
			assert.Equal(t, tt.wantLesson, lesson)
			assert.Equal(t, tt.wantQuiz, q)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Volcanoes", "8", LengthLong)
	assert.True(t, strings.HasPrefix(p, "Teach about Volcanoes in an engaging"))
	assert.Contains(t, p, "Provide a long lesson")
	assert.Contains(t, p, "create a 5-question multiple-choice quiz about Volcanoes suitable for a child of age 8.")
	assert.True(t, strings.HasSuffix(p, "Do not include any additional text or explanations."))
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/eduquest/internal/api/auth"
	"github.com/jon4hz/eduquest/internal/api/models"
	"github.com/jon4hz/eduquest/internal/learner"
)

type selectTopicRequest struct {
	TopicID uint `json:"topic_id"`
}

type reflectionRequest struct {
	Text string `json:"text"`
}

type answersRequest struct {
	Answers []string `json:"answers"`
}

func (h *Handler) respondState(c *gin.Context, sc *learner.SessionContext, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "learner": models.ToLearnerState(sc, time.Now())})
}

// Topics lists the approved topics.
func (h *Handler) Topics(c *gin.Context) {
	topics, err := h.engine.ApprovedTopics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "topics": models.ToTopicSummaries(topics)})
}

// LearnerState returns the current step of the learner.
func (h *Handler) LearnerState(c *gin.Context) {
	sc, err := h.engine.LearnerState(c.Request.Context(), auth.CurrentUser(c).ID)
	h.respondState(c, sc, err)
}

// SelectTopic starts a session on a topic.
func (h *Handler) SelectTopic(c *gin.Context) {
	var req selectTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TopicID == 0 {
		badRequest(c, "topic_id is required")
		return
	}
	sc, err := h.engine.SelectTopic(c.Request.Context(), auth.CurrentUser(c).ID, req.TopicID)
	h.respondState(c, sc, err)
}

// Lesson presents the lesson of the selected topic.
func (h *Handler) Lesson(c *gin.Context) {
	sc, err := h.engine.PresentLesson(c.Request.Context(), auth.CurrentUser(c).ID)
	h.respondState(c, sc, err)
}

// Reflection stores what the learner wrote about the lesson.
func (h *Handler) Reflection(c *gin.Context) {
	var req reflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	sc, err := h.engine.SubmitReflection(c.Request.Context(), auth.CurrentUser(c).ID, req.Text)
	h.respondState(c, sc, err)
}

// StartQuiz returns the quiz questions without their answers.
func (h *Handler) StartQuiz(c *gin.Context) {
	questions, err := h.engine.StartQuiz(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "questions": models.ToQuestions(questions)})
}

// SubmitAnswers scores the quiz and saves the session.
func (h *Handler) SubmitAnswers(c *gin.Context) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	outcome, err := h.engine.SubmitAnswers(c.Request.Context(), auth.CurrentUser(c).ID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"score":      outcome.Score,
		"total":      outcome.Total,
		"session_id": outcome.SessionID,
	})
}

// RetrySave saves a scored session after a failed save.
func (h *Handler) RetrySave(c *gin.Context) {
	outcome, err := h.engine.RetrySave(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"score":      outcome.Score,
		"total":      outcome.Total,
		"session_id": outcome.SessionID,
	})
}

// Abandon drops the current session without saving.
func (h *Handler) Abandon(c *gin.Context) {
	sc, err := h.engine.Abandon(c.Request.Context(), auth.CurrentUser(c).ID)
	h.respondState(c, sc, err)
}

// MySessions lists the caller's sessions.
func (h *Handler) MySessions(c *gin.Context) {
	rows, err := h.engine.MySessions(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": models.ToSessionSummaries(rows)})
}

// Session returns one session. Non-admins can only read their own.
func (h *Handler) Session(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	session, err := h.engine.Session(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": models.ToSessionDetail(session)})
}

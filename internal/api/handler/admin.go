package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/eduquest/internal/api/auth"
	"github.com/jon4hz/eduquest/internal/api/models"
	"github.com/jon4hz/eduquest/internal/content"
	"github.com/jon4hz/eduquest/internal/credential"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/samber/lo"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
	Role     string `json:"role"`
}

type createTopicRequest struct {
	Name         string `json:"name"`
	AgeLevel     string `json:"age_level"`
	LessonLength string `json:"lesson_length"`
}

// Users lists all users except the caller.
func (h *Handler) Users(c *gin.Context) {
	me := auth.CurrentUser(c)
	users, err := h.engine.Users(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	others := lo.Filter(users, func(u database.User, _ int) bool { return u.ID != me.ID })
	c.JSON(http.StatusOK, gin.H{"success": true, "users": models.ToUsers(others)})
}

// CreateUser registers a child or parent.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	role, err := credential.ParseRole(req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.engine.RegisterUser(c.Request.Context(), auth.CurrentUser(c), req.Name, req.Passcode, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": models.ToUser(*user)})
}

// DeleteUser removes a user. Their sessions are kept.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.engine.DeleteUser(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AdminTopics lists every topic with its status.
func (h *Handler) AdminTopics(c *gin.Context) {
	topics, err := h.engine.Topics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "topics": models.ToAdminTopics(topics)})
}

// AdminTopic returns a topic with its lesson and quiz for review.
func (h *Handler) AdminTopic(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topic, err := h.engine.Topic(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "topic": models.ToAdminTopic(*topic)})
}

// CreateTopic creates a draft and generates its content. When generation
// fails the draft is kept and returned with a 502.
func (h *Handler) CreateTopic(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	topic, err := h.engine.CreateTopic(c.Request.Context(), auth.CurrentUser(c), req.Name, req.AgeLevel, req.LessonLength)
	h.respondTopic(c, topic, err, http.StatusCreated)
}

// GenerateTopic retries generation for a topic that is not approved.
func (h *Handler) GenerateTopic(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topic, err := h.engine.GenerateTopic(c.Request.Context(), auth.CurrentUser(c), id)
	h.respondTopic(c, topic, err, http.StatusOK)
}

// ApproveTopic releases a topic to learners.
func (h *Handler) ApproveTopic(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topic, err := h.engine.ApproveTopic(c.Request.Context(), auth.CurrentUser(c), id)
	h.respondTopic(c, topic, err, http.StatusOK)
}

// RejectTopic removes a topic that was not approved.
func (h *Handler) RejectTopic(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topic, err := h.engine.RejectTopic(c.Request.Context(), auth.CurrentUser(c), id)
	h.respondTopic(c, topic, err, http.StatusOK)
}

// DeleteTopic removes a topic in any state.
func (h *Handler) DeleteTopic(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topic, err := h.engine.DeleteTopic(c.Request.Context(), auth.CurrentUser(c), id)
	h.respondTopic(c, topic, err, http.StatusOK)
}

func (h *Handler) respondTopic(c *gin.Context, topic *database.Topic, err error, status int) {
	if err != nil {
		if topic != nil && errors.Is(err, content.ErrGenerationFailure) {
			respondError(c, err, gin.H{"topic": models.ToAdminTopic(*topic)})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"success": true, "topic": models.ToAdminTopic(*topic)})
}

// AdminSessions lists all sessions.
func (h *Handler) AdminSessions(c *gin.Context) {
	rows, err := h.engine.Sessions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": models.ToSessionSummaries(rows)})
}

// DeleteSession removes a session and its questions.
func (h *Handler) DeleteSession(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.engine.DeleteSession(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// History returns the audit log, newest first.
func (h *Handler) History(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive number")
			return
		}
		limit = n
	}
	events, err := h.engine.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": models.ToHistoryEvents(events)})
}

// Stats returns database counts.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": models.ToStats(stats)})
}

// Jobs lists the scheduled jobs.
func (h *Handler) Jobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": h.engine.Jobs()})
}

// RunJob runs a scheduled job now.
func (h *Handler) RunJob(c *gin.Context) {
	if err := h.engine.RunJob(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

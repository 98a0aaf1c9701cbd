package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/eduquest/internal/content"
	"github.com/jon4hz/eduquest/internal/credential"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/engine"
	"github.com/jon4hz/eduquest/internal/learner"
	"github.com/jon4hz/eduquest/internal/recorder"
	"github.com/jon4hz/eduquest/internal/scheduler"
)

// Handler serves the JSON API.
type Handler struct {
	engine *engine.Engine
}

// New creates the handler.
func New(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Convert[uint](id)
}

// idParam reads the :id path parameter and answers 400 if it is not a valid id.
func idParam(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid ID",
		})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, credential.ErrInvalidCredential),
		errors.Is(err, learner.ErrNoContext):
		return http.StatusUnauthorized
	case errors.Is(err, credential.ErrDuplicateName),
		errors.Is(err, content.ErrDuplicateTopic):
		return http.StatusConflict
	case errors.Is(err, credential.ErrEmptyInput),
		errors.Is(err, credential.ErrUnknownRole),
		errors.Is(err, content.ErrEmptyInput),
		errors.Is(err, content.ErrInvalidLength),
		errors.Is(err, learner.ErrEmptyInput),
		errors.Is(err, learner.ErrAnswerCountMismatch),
		errors.Is(err, learner.ErrInvalidOption),
		errors.Is(err, recorder.ErrIncompleteSession):
		return http.StatusBadRequest
	case errors.Is(err, learner.ErrInvalidTransition),
		errors.Is(err, content.ErrInvalidState),
		errors.Is(err, learner.ErrNoQuizAvailable),
		errors.Is(err, engine.ErrSelfDelete):
		return http.StatusConflict
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, scheduler.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrGenerationFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError answers with the mapped status. Unexpected errors are logged
// and their details hidden.
func respondError(c *gin.Context, err error, extra ...gin.H) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		if !errors.Is(err, engine.ErrSaveFailed) {
			msg = "internal server error"
		} else {
			msg = engine.ErrSaveFailed.Error()
		}
	}

	body := gin.H{
		"success": false,
		"error":   msg,
	}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	c.JSON(status, body)
}

package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/eduquest/internal/api/auth"
	"github.com/jon4hz/eduquest/internal/api/models"
)

type loginRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

// UserNames lists the names offered on the sign-in screen.
func (h *Handler) UserNames(c *gin.Context) {
	names, err := h.engine.UserNames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "names": names})
}

// Login checks the passcode and starts a session.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.engine.SignIn(c.Request.Context(), req.Name, req.Passcode)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.SignIn(c, user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": models.ToUser(*user)})
}

// Logout ends the session and abandons unsaved progress.
func (h *Handler) Logout(c *gin.Context) {
	userID, ok, err := auth.SignOut(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var seconds float64
	if ok {
		d, err := h.engine.SignOut(c.Request.Context(), userID)
		if err != nil {
			log.Error("failed to drop learner context", "error", err)
		}
		seconds = d.Seconds()
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "seconds_signed_in": seconds})
}

// Me returns the signed-in user.
func (h *Handler) Me(c *gin.Context) {
	user := auth.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": models.ToUser(*user)})
}

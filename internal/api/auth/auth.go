// Package auth keeps the signed-in user in a cookie session.
package auth

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/engine"
)

const (
	sessionUserID = "user_id"
	contextUser   = "user"
)

// Provider authenticates requests against the cookie session.
type Provider struct {
	engine *engine.Engine
}

// New creates a new session auth provider.
func New(e *engine.Engine) *Provider {
	return &Provider{engine: e}
}

// SignIn stores the user id in the session.
func SignIn(c *gin.Context, user *database.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserID, user.ID)
	return session.Save()
}

// SignOut clears the session and returns the user id it held.
func SignOut(c *gin.Context) (uint, bool, error) {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionUserID).(uint)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return userID, ok, session.Save()
}

// RequireAuth rejects requests without a valid session and stores the
// current user in the gin context.
func (p *Provider) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserID).(uint)
		if !ok {
			abortUnauthorized(c, "please sign in")
			return
		}

		user, err := p.engine.User(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// the account was deleted while signed in
				session.Clear()
				if err := session.Save(); err != nil {
					log.Error("failed to clear session", "error", err)
				}
				abortUnauthorized(c, "please sign in")
				return
			}
			log.Error("failed to load session user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
			return
		}

		c.Set(contextUser, user)
		c.Next()
	}
}

// RequireAdmin rejects non-admin users. It must run after RequireAuth.
func (p *Provider) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) *database.User {
	user, _ := c.MustGet(contextUser).(*database.User)
	return user
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

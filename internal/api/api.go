// Package api serves the EduQuest JSON API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/eduquest/internal/api/auth"
	"github.com/jon4hz/eduquest/internal/api/handler"
	"github.com/jon4hz/eduquest/internal/config"
	"github.com/jon4hz/eduquest/internal/engine"
)

const sessionCookieName = "eduquest_session"

type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	engine       *engine.Engine
	authProvider *auth.Provider
}

// New creates the server and registers all routes.
func New(cfg *config.Config, e *engine.Engine, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.SessionKey == "" {
		return nil, fmt.Errorf("session key is required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:          cfg,
		ginEngine:    gin.New(),
		engine:       e,
		authProvider: auth.New(e),
	}
	s.ginEngine.Use(gin.Recovery(), requestLogger(), gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()
	s.setupRoutes()
	s.setupAdminRoutes()
	return s, nil
}

// Handler returns the http handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionCookieName, store))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.engine)

	s.ginEngine.GET("/health", h.Health)
	s.ginEngine.GET("/api/users/names", h.UserNames)
	s.ginEngine.POST("/login", h.Login)
	s.ginEngine.POST("/logout", h.Logout)

	api := s.ginEngine.Group("/api")
	api.Use(s.authProvider.RequireAuth())

	api.GET("/me", h.Me)
	api.GET("/topics", h.Topics)

	learn := api.Group("/learn")
	learn.GET("", h.LearnerState)
	learn.POST("/topic", h.SelectTopic)
	learn.GET("/lesson", h.Lesson)
	learn.POST("/reflection", h.Reflection)
	learn.POST("/quiz", h.StartQuiz)
	learn.POST("/quiz/answers", h.SubmitAnswers)
	learn.POST("/save", h.RetrySave)
	learn.POST("/abandon", h.Abandon)

	api.GET("/sessions", h.MySessions)
	api.GET("/sessions/:id", h.Session)
}

func (s *Server) setupAdminRoutes() {
	h := handler.New(s.engine)

	admin := s.ginEngine.Group("/admin/api")
	admin.Use(s.authProvider.RequireAuth(), s.authProvider.RequireAdmin())

	admin.GET("/users", h.Users)
	admin.POST("/users", h.CreateUser)
	admin.DELETE("/users/:id", h.DeleteUser)

	admin.GET("/topics", h.AdminTopics)
	admin.GET("/topics/:id", h.AdminTopic)
	admin.POST("/topics", h.CreateTopic)
	admin.POST("/topics/:id/generate", h.GenerateTopic)
	admin.POST("/topics/:id/approve", h.ApproveTopic)
	admin.POST("/topics/:id/reject", h.RejectTopic)
	admin.DELETE("/topics/:id", h.DeleteTopic)

	admin.GET("/sessions", h.AdminSessions)
	admin.GET("/sessions/:id", h.Session)
	admin.DELETE("/sessions/:id", h.DeleteSession)

	admin.GET("/history", h.History)
	admin.GET("/stats", h.Stats)
	admin.GET("/scheduler/jobs", h.Jobs)
	admin.POST("/scheduler/jobs/:id/run", h.RunJob)
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "listen", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	logger := log.Default().WithPrefix("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", args...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", args...)
		default:
			logger.Debug("request", args...)
		}
	}
}

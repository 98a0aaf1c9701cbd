package engine

import (
	"context"
	"fmt"

	"github.com/jon4hz/eduquest/internal/database"
)

// MySessions returns the sessions of one user, newest first.
func (e *Engine) MySessions(ctx context.Context, userID uint) ([]database.SessionSummary, error) {
	return e.sessions.ListByUser(ctx, userID)
}

// Sessions returns all sessions for admins, newest first.
func (e *Engine) Sessions(ctx context.Context) ([]database.SessionSummary, error) {
	return e.sessions.ListAll(ctx)
}

// Session returns a session with its questions. Non-admins only see their own.
func (e *Engine) Session(ctx context.Context, viewer *database.User, sessionID uint) (*database.Session, error) {
	session, err := e.sessions.GetDetail(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin && session.UserID != viewer.ID {
		return nil, database.ErrNotFound
	}
	return session, nil
}

// DeleteSession removes a session and its questions.
func (e *Engine) DeleteSession(ctx context.Context, actor *database.User, sessionID uint) error {
	session, err := e.sessions.GetDetail(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.recordEvent(ctx, database.HistoryEventSessionDeleted, session.Topic, actor,
		fmt.Sprintf("session %d from %s", session.ID, session.Date))
	return nil
}

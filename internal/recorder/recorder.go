// Package recorder persists completed learning sessions.
package recorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/jon4hz/eduquest/internal/database"
)

// ErrIncompleteSession is returned when a session lacks its user or topic.
var ErrIncompleteSession = errors.New("session is missing user or topic")

// Recorder saves and reads learning sessions.
type Recorder struct {
	db database.SessionDB
}

// New returns a Recorder backed by db.
func New(db database.SessionDB) *Recorder {
	return &Recorder{db: db}
}

// Save writes the session and its questions atomically and returns the new id.
func (r *Recorder) Save(ctx context.Context, session *database.Session) (uint, error) {
	if session == nil || session.UserID == 0 || session.Topic == "" {
		return 0, ErrIncompleteSession
	}
	if err := r.db.CreateSession(ctx, session); err != nil {
		return 0, fmt.Errorf("failed to save session: %w", err)
	}
	return session.ID, nil
}

// ListByUser returns the sessions of one user, most recent first.
func (r *Recorder) ListByUser(ctx context.Context, userID uint) ([]database.SessionSummary, error) {
	return r.db.ListSessions(ctx, &userID)
}

// ListAll returns the sessions of all users, most recent first.
func (r *Recorder) ListAll(ctx context.Context) ([]database.SessionSummary, error) {
	return r.db.ListSessions(ctx, nil)
}

// GetDetail returns a session with its questions in order.
func (r *Recorder) GetDetail(ctx context.Context, sessionID uint) (*database.Session, error) {
	return r.db.GetSession(ctx, sessionID)
}

// Delete removes a session together with its questions.
func (r *Recorder) Delete(ctx context.Context, sessionID uint) error {
	return r.db.DeleteSession(ctx, sessionID)
}

// CountOrphans returns how many sessions belong to deleted users.
func (r *Recorder) CountOrphans(ctx context.Context) (int64, error) {
	return r.db.CountOrphanedSessions(ctx)
}

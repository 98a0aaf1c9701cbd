package engine

import (
	"context"

	"github.com/jon4hz/eduquest/internal/database"
	"golang.org/x/sync/errgroup"
)

// Stats are row counts across the database.
type Stats struct {
	Users          int64
	Topics         map[database.TopicStatus]int64
	Sessions       int64
	QuizQuestions  int64
	OrphanSessions int64
	HistoryEvents  int64
}

// Stats gathers the counts concurrently.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		s.Users, err = e.db.CountUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Topics, err = e.db.CountTopicsByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Sessions, err = e.db.CountSessions(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.QuizQuestions, err = e.db.CountQuizQuestions(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.OrphanSessions, err = e.sessions.CountOrphans(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.HistoryEvents, err = e.db.CountHistoryEvents(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

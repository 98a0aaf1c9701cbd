package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/notify"
	"github.com/jon4hz/eduquest/internal/scheduler"
	"github.com/samber/lo"
)

const (
	jobReviewDigest = "review_digest"
	jobMaintenance  = "maintenance"
)

// Jobs returns the scheduled jobs.
func (e *Engine) Jobs() []scheduler.JobInfo {
	return e.scheduler.Jobs()
}

// RunJob runs a job now and waits for it.
func (e *Engine) RunJob(ctx context.Context, id string) error {
	return e.scheduler.RunJobNow(ctx, id)
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	if err := e.scheduler.AddSingletonJob(
		jobReviewDigest,
		"Review Digest",
		"Notifies admins about topics waiting for review",
		e.cfg.Schedule.ReviewDigest,
		e.runReviewDigest,
	); err != nil {
		return fmt.Errorf("failed to add review digest job: %w", err)
	}

	if err := e.scheduler.AddSingletonJob(
		jobMaintenance,
		"Maintenance",
		"Reports orphaned sessions and prunes old history",
		e.cfg.Schedule.Maintenance,
		e.runMaintenance,
	); err != nil {
		return fmt.Errorf("failed to add maintenance job: %w", err)
	}

	log.Debug("Scheduled jobs configured")
	return nil
}

func (e *Engine) runReviewDigest(ctx context.Context) error {
	topics, err := e.topics.ListAll(ctx)
	if err != nil {
		return err
	}
	waiting := lo.Filter(topics, func(t database.Topic, _ int) bool {
		return t.Status() != database.TopicStatusApproved
	})
	if len(waiting) == 0 {
		e.log.Debug("No topics waiting for review")
		return nil
	}

	var b strings.Builder
	for _, t := range waiting {
		switch t.Status() {
		case database.TopicStatusDraft:
			fmt.Fprintf(&b, "- **%s** (age %s): generation failed, retry or delete\n", t.TopicName, t.AgeLevel)
		default:
			fmt.Fprintf(&b, "- **%s** (age %s): ready for review\n", t.TopicName, t.AgeLevel)
		}
	}

	return e.notifier.Notify(ctx, notify.Message{
		Title:    fmt.Sprintf("%d topic(s) waiting for review", len(waiting)),
		Body:     b.String(),
		Priority: notify.PriorityDefault,
		Tags:     []string{"memo", "digest"},
		Link:     e.adminLink("topics"),
	})
}

func (e *Engine) runMaintenance(ctx context.Context) error {
	orphans, err := e.sessions.CountOrphans(ctx)
	if err != nil {
		return fmt.Errorf("failed to count orphaned sessions: %w", err)
	}
	if orphans > 0 {
		e.log.Warn("Sessions of deleted users found", "count", orphans)
	}

	var pruned int64
	if retention := e.cfg.History.Retention; retention > 0 {
		pruned, err = e.db.PruneHistoryEvents(ctx, e.now().Add(-retention))
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
	}

	e.recordEvent(ctx, database.HistoryEventMaintenance, "maintenance", nil,
		fmt.Sprintf("orphaned sessions: %d, pruned history events: %d", orphans, pruned))
	return nil
}

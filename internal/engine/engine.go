// Package engine wires the components together and is the single entry
// point used by the HTTP API and the CLI.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/eduquest/internal/cache"
	"github.com/jon4hz/eduquest/internal/config"
	"github.com/jon4hz/eduquest/internal/content"
	"github.com/jon4hz/eduquest/internal/credential"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/learner"
	"github.com/jon4hz/eduquest/internal/llm"
	"github.com/jon4hz/eduquest/internal/notify"
	"github.com/jon4hz/eduquest/internal/notify/email"
	"github.com/jon4hz/eduquest/internal/notify/ntfy"
	"github.com/jon4hz/eduquest/internal/recorder"
	"github.com/jon4hz/eduquest/internal/scheduler"
)

var (
	// ErrSelfDelete is returned when an admin tries to delete their own account.
	ErrSelfDelete = errors.New("you cannot delete your own account")
	// ErrSaveFailed wraps a recorder failure after scoring. The learner stays
	// in the scored state and may retry.
	ErrSaveFailed = errors.New("session could not be saved, please try again")
)

// Engine owns all components of EduQuest.
type Engine struct {
	cfg *config.Config
	db  database.DB
	log *log.Logger

	users    *credential.Store
	topics   *content.Repository
	sessions *recorder.Recorder
	machine  *learner.Machine
	contexts learner.ContextStore

	notifier  notify.Notifier
	scheduler *scheduler.Scheduler

	now func() time.Time
}

type options struct {
	provider llm.Provider
	notifier notify.Notifier
	contexts learner.ContextStore
	now      func() time.Time
}

// Option customizes the engine, mostly for tests.
type Option func(*options)

// WithProvider replaces the configured LLM provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithNotifier replaces the notifiers built from the email and ntfy config.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithContextStore replaces the cache backed learner context store.
func WithContextStore(s learner.ContextStore) Option {
	return func(o *options) { o.contexts = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a new Engine instance.
func New(ctx context.Context, cfg *config.Config, db database.DB, opts ...Option) (*Engine, error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	provider := o.provider
	if provider == nil {
		provider, err = llm.NewProvider(ctx, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm provider: %w", err)
		}
	}
	generator := llm.NewTextGenerator(provider, cfg.LLM.MaxTokens, cfg.LLM.Timeout)

	contexts := o.contexts
	if contexts == nil {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		contexts = learner.NewCacheStore(
			cache.NewPrefixedCache[learner.SessionContext](c, cfg.Cache.Type, cache.LearnerContextPrefix),
			cfg.Learner.ContextTTL,
		)
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = newNotifier(cfg)
	}

	topics := content.NewRepository(db, generator)
	sessions := recorder.New(db)

	e := &Engine{
		cfg:       cfg,
		db:        db,
		log:       log.Default().WithPrefix("engine"),
		users:     credential.NewStore(db),
		topics:    topics,
		sessions:  sessions,
		machine:   learner.NewMachine(topics, sessions, learner.WithClock(o.now)),
		contexts:  contexts,
		notifier:  notifier,
		scheduler: sched,
		now:       o.now,
	}

	if err := e.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}
	return e, nil
}

func newNotifier(cfg *config.Config) notify.Multi {
	var n notify.Multi
	if cfg.Email != nil && cfg.Email.Enabled {
		n = append(n, email.New(cfg.Email))
	}
	if cfg.Ntfy != nil && cfg.Ntfy.Enabled {
		n = append(n, ntfy.New(cfg.Ntfy))
	}
	if len(n) == 0 {
		log.Debug("No notification channels configured")
	}
	return n
}

// Run starts the background jobs and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()
	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

// EnsureBootstrapAdmin creates the configured admin on first start.
func (e *Engine) EnsureBootstrapAdmin(ctx context.Context) error {
	b := e.cfg.Bootstrap
	created, err := e.users.EnsureBootstrapAdmin(ctx, b.AdminName, b.AdminPasscode)
	if err != nil {
		return err
	}
	if created {
		e.recordEvent(ctx, database.HistoryEventUserCreated, b.AdminName, nil, "bootstrap admin")
	}
	return nil
}

// adminLink points notifications at the admin pages when a public URL is known.
func (e *Engine) adminLink(path string) string {
	if e.cfg.ServerURL == "" {
		return ""
	}
	return e.cfg.ServerURL + "/admin/" + strings.TrimPrefix(path, "/")
}

// Package scheduler runs named background jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// ErrJobNotFound is returned for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo is a snapshot of a scheduled job.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
	RunCount    int       `json:"runCount"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`
}

// JobFunc is the work done by a job.
type JobFunc func(ctx context.Context) error

type job struct {
	info  JobInfo
	gjob  gocron.Job
	fn    JobFunc
	runMu sync.Mutex
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	gocron gocron.Scheduler
	log    *log.Logger

	mu   sync.RWMutex
	jobs map[string]*job

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	logger := log.Default().WithPrefix("scheduler")
	gs, err := gocron.NewScheduler(gocron.WithLogger(newGocronLogger(logger)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: gs,
		log:    logger,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.gocron.Start()
	s.log.Info("Job scheduler started")

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if next, err := j.gjob.NextRun(); err == nil {
			j.info.NextRun = next
			s.log.Debug("Next run time for job", "id", id, "nextRun", next)
		}
	}
}

// Stop cancels running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddSingletonJob adds a job on a cron schedule. A run that would overlap
// the previous one is skipped.
func (s *Scheduler) AddSingletonJob(id, name, description, cronExpr string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}

	j := &job{
		info: JobInfo{
			ID:          id,
			Name:        name,
			Description: description,
			Status:      JobStatusScheduled,
			Schedule:    cronExpr,
		},
		fn: fn,
	}

	gjob, err := s.gocron.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { s.run(j) }),
		gocron.WithName(id),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	j.gjob = gjob

	s.jobs[id] = j
	s.log.Info("Added job to scheduler", "id", id, "schedule", cronExpr)
	return nil
}

// RunJobNow runs a job synchronously and returns its error.
func (s *Scheduler) RunJobNow(ctx context.Context, id string) error {
	s.mu.RLock()
	j, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	s.log.Info("Manually triggering job", "id", id)
	return s.execute(ctx, j)
}

// Jobs returns snapshots of all jobs ordered by id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Job returns a snapshot of one job.
func (s *Scheduler) Job(id string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return JobInfo{}, false
	}
	return j.info, true
}

func (s *Scheduler) run(j *job) {
	_ = s.execute(s.ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	s.mu.Lock()
	j.info.Status = JobStatusRunning
	j.info.LastRun = time.Now()
	j.info.RunCount++
	s.mu.Unlock()

	s.log.Info("Starting job", "id", j.info.ID)
	err := j.fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if next, nerr := j.gjob.NextRun(); nerr == nil {
		j.info.NextRun = next
	}
	if err != nil {
		s.log.Error("Job failed", "id", j.info.ID, "error", err)
		j.info.Status = JobStatusFailed
		j.info.ErrorCount++
		j.info.LastError = err.Error()
		return err
	}
	s.log.Info("Job completed", "id", j.info.ID)
	j.info.Status = JobStatusCompleted
	j.info.LastError = ""
	return nil
}

package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tripdesk/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	JobOverdueSweep   = "installments-overdue"
	JobInviteCleanup  = "invites-purge"
	JobAuditRetention = "audit-logs-retention"
)

// Task is a unit of periodic work.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }

// JobScheduler manages background jobs for distributed environment
type JobScheduler struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler. Jobs run in loc, which decides when
// "today" rolls over for due-date checks.
func NewJobScheduler(loc *time.Location) (*JobScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobScheduler{
		scheduler: scheduler,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]gocron.Job),
	}, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	logger.GetLogger().Info("starting background job scheduler", zap.Int("jobs", js.count()))
	js.scheduler.Start()
}

// Stop cancels running tasks and waits for them to return.
func (js *JobScheduler) Stop() error {
	logger.GetLogger().Info("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// RegisterDefaults adds the overdue sweep, hourly and once at startup, plus
// the nightly invite and audit cleanups.
func (js *JobScheduler) RegisterDefaults(overdue, invites, audit Task) error {
	if err := js.AddJob(JobOverdueSweep, gocron.DurationJob(time.Hour), overdue,
		gocron.WithStartAt(gocron.WithStartImmediately())); err != nil {
		return err
	}
	if err := js.AddJob(JobInviteCleanup, gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))), invites); err != nil {
		return err
	}
	return js.AddJob(JobAuditRetention, gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 30, 0))), audit)
}

// AddJob schedules task under name. A run that is still busy when the next
// one is due pushes that one back instead of overlapping.
func (js *JobScheduler) AddJob(name string, def gocron.JobDefinition, task Task, opts ...gocron.JobOption) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if _, exists := js.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	opts = append([]gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, opts...)
	job, err := js.scheduler.NewJob(def, gocron.NewTask(js.wrap(name, task)), opts...)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}
	js.jobs[name] = job
	return nil
}

func (js *JobScheduler) wrap(name string, task Task) func() {
	return func() {
		log := logger.GetLogger().With(zap.String("job", name))
		ctx := logger.WithContext(js.ctx, log)
		defer func() {
			if r := recover(); r != nil {
				log.Error("job panicked", zap.Any("panic", r))
			}
		}()
		if err := task.Run(ctx); err != nil {
			log.Warn("job run failed", zap.Error(err))
		}
	}
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}
	return nil
}

// JobStatus describes one scheduled job.
type JobStatus struct {
	Name    string    `json:"name"`
	LastRun time.Time `json:"last_run,omitempty"`
	NextRun time.Time `json:"next_run,omitempty"`
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		s := JobStatus{Name: name}
		s.LastRun, _ = job.LastRun()
		s.NextRun, _ = job.NextRun()
		status = append(status, s)
	}
	return status
}

func (js *JobScheduler) count() int {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return len(js.jobs)
}

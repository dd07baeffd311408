package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"commentlens/internal/core"
	"commentlens/internal/logger"
)

const (
	// DefaultMaxConcurrent caps simultaneously RUNNING jobs.
	DefaultMaxConcurrent = 3
	// DefaultMaxAttempts caps execution attempts per job.
	DefaultMaxAttempts = 3
	// DefaultTick is the scheduler's polling interval.
	DefaultTick = time.Second
)

// Pipeline executes one analysis run for a job. report is called after each
// completed step with the 1-based step number and a short description; the
// pipeline must respect ctx cancellation between steps.
type Pipeline interface {
	Run(ctx context.Context, job core.AnalysisJob, report func(step int, description string)) (*core.AnalysisResult, error)
}

// JobStore persists job snapshots for cross-process visibility. Persistence
// is best effort; a store failure never affects scheduling.
type JobStore interface {
	SaveJob(job core.AnalysisJob) error
}

// Orchestrator owns the job state machine: a FIFO pending queue, a bounded
// set of running jobs, retry with an attempt cap, and cancellation at any
// non-terminal point.
type Orchestrator struct {
	mu      sync.Mutex
	jobs    map[string]*core.AnalysisJob
	results map[string]*core.AnalysisResult
	pending []string                      // job IDs, FIFO
	active  map[string]context.CancelFunc // RUNNING job IDs

	pipeline      Pipeline
	store         JobStore
	maxConcurrent int
	maxAttempts   int
	tick          time.Duration

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
}

// NewOrchestrator creates an orchestrator; zero values select the defaults.
// store may be nil.
func NewOrchestrator(maxConcurrent, maxAttempts int, tick time.Duration, store JobStore) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Orchestrator{
		jobs:          make(map[string]*core.AnalysisJob),
		results:       make(map[string]*core.AnalysisResult),
		active:        make(map[string]context.CancelFunc),
		store:         store,
		maxConcurrent: maxConcurrent,
		maxAttempts:   maxAttempts,
		tick:          tick,
		wake:          make(chan struct{}, 1),
		quit:          make(chan struct{}),
	}
}

// RegisterPipeline binds the pipeline executed for each job. Must be called
// before Start.
func (o *Orchestrator) RegisterPipeline(p Pipeline) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pipeline = p
}

// Submit enqueues a new analysis job and returns its initial PENDING snapshot.
func (o *Orchestrator) Submit(postID, userID string, commentIDs []string) (*core.AnalysisJob, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: post id is required", core.ErrValidation)
	}

	job := &core.AnalysisJob{
		ID:         uuid.NewString(),
		PostID:     postID,
		UserID:     userID,
		CommentIDs: append([]string(nil), commentIDs...),
		Status:     core.JobPending,
		TotalSteps: core.TotalPipelineSteps,
		CreatedAt:  time.Now().UTC(),
	}

	o.mu.Lock()
	o.jobs[job.ID] = job
	o.pending = append(o.pending, job.ID)
	snapshot := *job
	o.mu.Unlock()

	o.persist(snapshot)
	o.kick()

	logger.Info("job submitted", "job_id", job.ID, "post_id", postID)
	return &snapshot, nil
}

// Status returns a snapshot of the job, or core.ErrNotFound.
func (o *Orchestrator) Status(jobID string) (*core.AnalysisJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return nil, core.ErrNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// Result returns the in-memory result of a COMPLETED job, or nil.
func (o *Orchestrator) Result(jobID string) *core.AnalysisResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r, ok := o.results[jobID]; ok {
		result := *r
		return &result
	}
	return nil
}

// Cancel moves a non-terminal job to CANCELLED. Pending jobs leave the queue;
// running jobs have their context cancelled and their eventual output is
// discarded. Cancelling a terminal job is an error.
func (o *Orchestrator) Cancel(jobID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	job, ok := o.jobs[jobID]
	if !ok {
		return core.ErrNotFound
	}
	if job.Terminal() {
		return fmt.Errorf("%w: job %s already %s", core.ErrValidation, jobID, job.Status)
	}

	if job.Status == core.JobPending {
		o.dequeueLocked(jobID)
	}
	if cancel, ok := o.active[jobID]; ok {
		cancel()
		delete(o.active, jobID)
	}

	job.Status = core.JobCancelled
	job.CompletedAt = time.Now().UTC()
	snapshot := *job
	go o.persist(snapshot)

	logger.Info("job cancelled", "job_id", jobID)
	return nil
}

// Stats summarizes orchestrator state.
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Stats counts jobs by status.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	var stats Stats
	for _, job := range o.jobs {
		switch job.Status {
		case core.JobPending:
			stats.Pending++
		case core.JobRunning:
			stats.Running++
		case core.JobCompleted:
			stats.Completed++
		case core.JobFailed:
			stats.Failed++
		case core.JobCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// Start launches the scheduler loop.
func (o *Orchestrator) Start() {
	o.wg.Add(1)
	go o.schedule()
}

// Stop shuts the scheduler down and waits for in-flight jobs to return. Jobs
// still running are cancelled.
func (o *Orchestrator) Stop() {
	close(o.quit)

	o.mu.Lock()
	for id, cancel := range o.active {
		cancel()
		delete(o.active, id)
	}
	o.mu.Unlock()

	o.wg.Wait()
}

// kick nudges the scheduler without waiting for the next tick.
func (o *Orchestrator) kick() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) schedule() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	for {
		o.dispatch()
		select {
		case <-o.quit:
			return
		case <-o.wake:
		case <-ticker.C:
		}
	}
}

// dispatch starts pending jobs FIFO until the concurrency cap is reached.
func (o *Orchestrator) dispatch() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for len(o.active) < o.maxConcurrent && len(o.pending) > 0 {
		jobID := o.pending[0]
		o.pending = o.pending[1:]

		job, ok := o.jobs[jobID]
		if !ok || job.Status != core.JobPending {
			continue
		}

		job.Status = core.JobRunning
		job.Attempts++
		job.Progress = 0
		job.CurrentStep = 0
		job.StepDescription = ""
		if job.StartedAt.IsZero() {
			job.StartedAt = time.Now().UTC()
		}

		ctx, cancel := context.WithCancel(context.Background())
		o.active[jobID] = cancel

		snapshot := *job
		go o.persist(snapshot)

		o.wg.Add(1)
		go o.run(ctx, jobID, snapshot)
	}
}

// run executes one attempt of a job and applies the outcome to the state
// machine. Panics in the pipeline are converted into attempt failures.
func (o *Orchestrator) run(ctx context.Context, jobID string, snapshot core.AnalysisJob) {
	defer o.wg.Done()

	var result *core.AnalysisResult
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("pipeline panic: %v", r)
				logger.Error("pipeline panicked", err, "job_id", jobID)
			}
		}()
		result, err = o.pipeline.Run(ctx, snapshot, func(step int, description string) {
			o.report(jobID, step, description)
		})
	}()

	o.mu.Lock()
	defer o.mu.Unlock()

	if cancel, ok := o.active[jobID]; ok {
		cancel()
		delete(o.active, jobID)
	}

	job, ok := o.jobs[jobID]
	if !ok {
		return
	}

	// A cancel that raced the pipeline's return wins; the output is dropped.
	if job.Status == core.JobCancelled {
		return
	}

	now := time.Now().UTC()

	switch {
	case err == nil:
		job.Status = core.JobCompleted
		job.Progress = 100
		job.CurrentStep = core.TotalPipelineSteps
		job.CompletedAt = now
		if result != nil {
			r := *result
			o.results[jobID] = &r
		}
		logger.Info("job completed", "job_id", jobID, "attempts", job.Attempts)

	case job.Attempts < o.maxAttempts:
		job.Status = core.JobPending
		o.pending = append(o.pending, jobID)
		logger.Warn("job attempt failed, requeued", "job_id", jobID, "attempt", job.Attempts, "error", err.Error())

	default:
		job.Status = core.JobFailed
		job.Error = err.Error()
		job.CompletedAt = now
		logger.Error("job failed", err, "job_id", jobID, "attempts", job.Attempts)
	}

	persisted := *job
	go o.persist(persisted)
	o.kick()
}

// report applies step progress. Progress is step*20 and never decreases
// within an attempt; 100 is reserved for COMPLETED.
func (o *Orchestrator) report(jobID string, step int, description string) {
	o.mu.Lock()

	job, ok := o.jobs[jobID]
	if !ok || job.Status != core.JobRunning {
		o.mu.Unlock()
		return
	}

	progress := step * 100 / core.TotalPipelineSteps
	if progress > 99 {
		progress = 99
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.CurrentStep = step
	job.StepDescription = description

	snapshot := *job
	o.mu.Unlock()

	o.persist(snapshot)
}

func (o *Orchestrator) dequeueLocked(jobID string) {
	for i, id := range o.pending {
		if id == jobID {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return
		}
	}
}

func (o *Orchestrator) persist(job core.AnalysisJob) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveJob(job); err != nil {
		logger.Warn("failed to persist job snapshot", "job_id", job.ID, "error", err.Error())
	}
}

package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/backoff"
	"github.com/cohereplatform/tempo/id"
	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/schedule"
)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of jobs executed concurrently.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

// WithPollInterval sets how often the pool polls for due jobs.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollInterval = d }
}

// WithCronTickInterval sets how often the pool checks cron entries.
func WithCronTickInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.cronTickInterval = d }
}

// WithPollBackoff sets the backoff applied after consecutive poll errors.
func WithPollBackoff(b backoff.Strategy) PoolOption {
	return func(p *Pool) { p.pollBackoff = b }
}

// WithPoolNowFunc overrides the clock used for cron due checks.
func WithPoolNowFunc(now func() time.Time) PoolOption {
	return func(p *Pool) { p.now = now }
}

// Pool polls the job store for due one-shot jobs and executes them, and
// fires due cron entries by scheduling their kind's job. Jobs run on
// goroutines owned here, bounded by the concurrency limit; job bodies
// never fan out further.
//
// A Pool is one-shot: once stopped it cannot be started again. Create
// a new Pool for a new lifecycle.
type Pool struct {
	store       job.Store
	cronStore   schedule.CronStore
	executor    *Executor
	concurrency int

	pollInterval     time.Duration
	cronTickInterval time.Duration
	pollBackoff      backoff.Strategy
	now              func() time.Time

	workerID id.WorkerID
	logger   *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	jobWg   sync.WaitGroup
	slots   chan struct{}
	mu      sync.Mutex
	running bool

	activeMu   sync.Mutex
	activeJobs map[string]context.CancelFunc
}

// NewPool creates a worker pool. cronStore may be nil when the process
// hosts no recurring jobs.
func NewPool(
	store job.Store,
	cronStore schedule.CronStore,
	executor *Executor,
	logger *slog.Logger,
	opts ...PoolOption,
) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := tempo.DefaultConfig()
	p := &Pool{
		store:            store,
		cronStore:        cronStore,
		executor:         executor,
		concurrency:      cfg.Concurrency,
		pollInterval:     cfg.PollInterval,
		cronTickInterval: cfg.CronTickInterval,
		pollBackoff:      backoff.DefaultPollStrategy(),
		now:              func() time.Time { return time.Now().UTC() },
		workerID:         id.NewWorkerID(),
		logger:           logger,
		stopCh:           make(chan struct{}),
		activeJobs:       make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.slots = make(chan struct{}, p.concurrency)
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Start launches the poll and cron goroutines. It returns immediately.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true

	p.wg.Add(1)
	go p.pollLoop()
	if p.cronStore != nil {
		p.wg.Add(1)
		go p.cronLoop()
	}

	p.logger.Info("worker pool started",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
		slog.Duration("poll_interval", p.pollInterval),
	)
	return nil
}

// Stop signals the pool to stop and waits for loops and in-flight jobs
// to finish. If ctx carries a deadline, jobs still running when it
// expires have their contexts cancelled; Stop then waits for them to
// return. The pool cannot be restarted afterwards.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		p.jobWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown deadline reached, cancelling active jobs")
		p.cancelActiveJobs()
		<-done
		p.logger.Info("worker pool stopped after cancelling active jobs")
	}
	return nil
}

func (p *Pool) trackJob(jobID string, cancel context.CancelFunc) {
	p.activeMu.Lock()
	p.activeJobs[jobID] = cancel
	p.activeMu.Unlock()
}

func (p *Pool) untrackJob(jobID string) {
	p.activeMu.Lock()
	delete(p.activeJobs, jobID)
	p.activeMu.Unlock()
}

func (p *Pool) cancelActiveJobs() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for jobID, cancel := range p.activeJobs {
		p.logger.Warn("cancelling active job", slog.String("job_id", jobID))
		cancel()
	}
}

// pollLoop dequeues due jobs on each tick and hands them to the executor.
func (p *Pool) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.poll(); err != nil {
				failures++
				delay := p.pollBackoff.Delay(failures)
				p.logger.Warn("poll error",
					slog.String("error", err.Error()),
					slog.Int("consecutive_failures", failures),
					slog.Duration("backoff", delay),
				)
				select {
				case <-p.stopCh:
					return
				case <-time.After(delay):
				}
				continue
			}
			failures = 0
		}
	}
}

func (p *Pool) poll() error {
	ctx := context.Background()

	free := p.concurrency - len(p.slots)
	if free <= 0 {
		return nil
	}

	jobs, err := p.store.DequeueDue(ctx, free)
	if err != nil {
		return err
	}

	for _, j := range jobs {
		p.slots <- struct{}{}
		p.jobWg.Add(1)
		go func(j *job.Job) {
			defer func() {
				<-p.slots
				p.jobWg.Done()
			}()

			jobCtx, cancel := context.WithCancel(context.Background())
			p.trackJob(j.ID.String(), cancel)
			p.executor.Execute(jobCtx, j)
			p.untrackJob(j.ID.String())
			cancel()
		}(j)
	}
	return nil
}

// cronLoop fires due cron entries on each tick.
func (p *Pool) cronLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cronTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.cronTick()
		}
	}
}

func (p *Pool) cronTick() {
	ctx := context.Background()

	entries, err := p.cronStore.ListCrons(ctx)
	if err != nil {
		p.logger.Error("list crons error", slog.String("error", err.Error()))
		return
	}

	now := p.now()
	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}
		if entry.NextRunAt == nil || entry.NextRunAt.After(now) {
			continue
		}
		p.fireCron(ctx, entry, now)
	}
}

func (p *Pool) fireCron(ctx context.Context, entry *schedule.Entry, now time.Time) {
	sched, err := schedule.ParseSchedule(entry.Schedule)
	if err != nil {
		p.logger.Error("invalid stored cron schedule",
			slog.String("kind", string(entry.Kind)),
			slog.String("schedule", entry.Schedule),
			slog.String("error", err.Error()),
		)
		return
	}

	j := &job.Job{
		Entity:  tempo.NewEntity(),
		ID:      id.NewJobID(),
		Kind:    entry.Kind,
		Payload: json.RawMessage(`{}`),
		State:   job.StatePending,
		RunAt:   now,
	}
	if err := p.store.ScheduleJob(ctx, j); err != nil {
		p.logger.Error("cron enqueue error",
			slog.String("kind", string(entry.Kind)),
			slog.String("error", err.Error()),
		)
		return
	}

	next := sched.Next(now)
	if err := p.cronStore.MarkCronRun(ctx, entry.ID, now, next); err != nil {
		p.logger.Error("mark cron run error",
			slog.String("kind", string(entry.Kind)),
			slog.String("error", err.Error()),
		)
	}

	p.logger.Debug("cron fired",
		slog.String("kind", string(entry.Kind)),
		slog.Time("next_run_at", next),
	)
}

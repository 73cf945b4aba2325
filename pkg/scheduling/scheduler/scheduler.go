package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/common/validation"
	"github.com/vnykmshr/forkflow/pkg/metrics"
)

var (
	// ErrJobExists is returned when an ID is already registered.
	ErrJobExists = errors.New("job already exists")

	// ErrJobNotFound is returned for an unknown job ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobPanic wraps a panic raised by a job.
	ErrJobPanic = errors.New("job panicked")
)

// Job is a unit of scheduled work, usually one pipeline run.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Info describes a registered job.
type Info struct {
	ID       string
	Spec     string
	Next     time.Time
	Prev     time.Time
	Runs     int64
	Failures int64
	LastErr  error
}

// Config holds scheduler configuration.
type Config struct {
	// Location evaluates cron specs. Default: time.Local
	Location *time.Location

	// Seconds enables an optional leading seconds field in cron specs.
	Seconds bool

	// MaxJobs caps registered jobs. Default: 10000
	MaxJobs int

	// Timeout bounds each run. Zero means no timeout.
	Timeout time.Duration

	// SkipIfStillRunning skips a firing while the previous run of the same
	// job has not returned.
	SkipIfStillRunning bool

	// Logger receives run events. Nil disables logging.
	Logger *zerolog.Logger

	// Metrics records runs, failures and durations per job. Nil disables metrics.
	Metrics *metrics.Registry

	// OnError is called after every failed run.
	OnError func(id string, err error)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Location: time.Local,
		MaxJobs:  10000,
	}
}

type entry struct {
	id      string
	spec    string
	job     Job
	entryID cron.EntryID

	runs     int64
	failures int64
	lastErr  error
}

// Scheduler runs jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	config Config
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*entry
}

// New creates a Scheduler. Jobs only fire after Start.
func New(config Config) (*Scheduler, error) {
	defaults := DefaultConfig()
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if config.MaxJobs == 0 {
		config.MaxJobs = defaults.MaxJobs
	}
	if err := validation.ValidatePositive("scheduler", "MaxJobs", config.MaxJobs); err != nil {
		return nil, err
	}
	if config.Timeout < 0 {
		return nil, fferrors.NewValidationError("scheduler", "Timeout", config.Timeout, "cannot be negative").
			WithHint("use 0 for no timeout")
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "scheduler").Logger()
	}

	fields := cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if config.Seconds {
		fields |= cron.SecondOptional
	}
	parser := cron.NewParser(fields)

	cl := cronLogger{logger: logger}
	chain := []cron.JobWrapper{cron.Recover(cl)}
	if config.SkipIfStillRunning {
		chain = append(chain, cron.SkipIfStillRunning(cl))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(config.Location),
			cron.WithLogger(cl),
			cron.WithChain(chain...),
		),
		parser: parser,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*entry),
	}, nil
}

// Schedule registers job under id to run on a cron spec such as
// "*/5 * * * *", "@hourly" or "@every 30s".
func (s *Scheduler) Schedule(id, spec string, job Job) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("schedule %q: invalid spec %q: %w", id, spec, err)
	}
	return s.add(id, spec, schedule, job)
}

// ScheduleEvery registers job under id to run every interval. Intervals are
// rounded up to whole seconds.
func (s *Scheduler) ScheduleEvery(id string, interval time.Duration, job Job) error {
	if err := validation.ValidatePositiveDuration("scheduler", "interval", interval); err != nil {
		return err
	}
	return s.add(id, "@every "+interval.String(), cron.Every(interval), job)
}

func (s *Scheduler) add(id, spec string, schedule cron.Schedule, job Job) error {
	if id == "" {
		return fferrors.NewValidationError("scheduler", "id", id, "cannot be empty")
	}
	if err := validation.ValidateNotNil("scheduler", "job", job); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("schedule %q: %w", id, ErrJobExists)
	}
	if len(s.jobs) >= s.config.MaxJobs {
		return fferrors.NewValidationError("scheduler", "MaxJobs", s.config.MaxJobs, "limit reached").
			WithHint("cancel unused jobs or raise MaxJobs")
	}

	e := &entry{id: id, spec: spec, job: job}
	e.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() {
		_ = s.run(s.ctx, e)
	}))
	s.jobs[id] = e

	s.logger.Debug().Str("job", id).Str("spec", spec).Msg("job scheduled")
	return nil
}

// RunNow runs the job registered under id synchronously, outside its
// schedule. The run is recorded like a scheduled one.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("run %q: %w", id, ErrJobNotFound)
	}
	return s.run(ctx, e)
}

// Cancel removes the job registered under id. A run in progress is not
// interrupted.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[id]
	if !ok {
		return false
	}
	s.cron.Remove(e.entryID)
	delete(s.jobs, id)
	return true
}

// List returns registered jobs sorted by ID.
func (s *Scheduler) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]Info, 0, len(s.jobs))
	for _, e := range s.jobs {
		ce := s.cron.Entry(e.entryID)
		infos = append(infos, Info{
			ID:       e.id,
			Spec:     e.spec,
			Next:     ce.Next,
			Prev:     ce.Prev,
			Runs:     e.runs,
			Failures: e.failures,
			LastErr:  e.lastErr,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Start begins firing jobs in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop halts scheduling and cancels the context of running jobs. The
// returned channel is closed once every running job has returned.
func (s *Scheduler) Stop() <-chan struct{} {
	done := s.cron.Stop()
	s.cancel()
	s.logger.Info().Msg("scheduler stopped")
	return done.Done()
}

func (s *Scheduler) run(ctx context.Context, e *entry) (err error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	ctx = s.logger.With().Str("job", e.id).Logger().WithContext(ctx)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s: %w: %v\n%s", e.id, ErrJobPanic, r, debug.Stack())
		}
		s.record(e, time.Since(start), err)
	}()

	return e.job.Run(ctx)
}

func (s *Scheduler) record(e *entry, elapsed time.Duration, err error) {
	s.mu.Lock()
	e.runs++
	e.lastErr = err
	if err != nil {
		e.failures++
	}
	s.mu.Unlock()

	if m := s.config.Metrics; m != nil {
		m.JobRuns.WithLabelValues(e.id).Inc()
		m.JobDuration.WithLabelValues(e.id).Observe(elapsed.Seconds())
		if err != nil {
			m.JobFailures.WithLabelValues(e.id).Inc()
		}
	}

	if err != nil {
		s.logger.Warn().Err(err).Str("job", e.id).Dur("elapsed", elapsed).Msg("job failed")
		if s.config.OnError != nil {
			s.config.OnError(e.id, err)
		}
		return
	}
	s.logger.Debug().Str("job", e.id).Dur("elapsed", elapsed).Msg("job finished")
}

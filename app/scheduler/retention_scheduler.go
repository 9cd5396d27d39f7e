// Package scheduler runs background jobs on a cron schedule
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultRunTimeout = 10 * time.Minute

// RetentionScheduler owns the single cron entry that purges expired tracking records.
// State moves unscheduled -> scheduled -> unscheduled.
type RetentionScheduler struct {
	flow       businessflow.RetentionFlow
	schedule   string
	runTimeout time.Duration
	cron       *cron.Cron
	logger     *log.Logger
	logFile    io.Closer

	mu      sync.Mutex
	entryID cron.EntryID
	active  bool
	runCtx  context.Context // parent of scheduled runs, set by Start
}

// LogConfig describes the rotating scheduler log file
type LogConfig struct {
	Path       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

func NewRetentionScheduler(flow businessflow.RetentionFlow, schedule string, logCfg LogConfig) *RetentionScheduler {
	if schedule == "" {
		schedule = "@daily"
	}
	s := &RetentionScheduler{
		flow:       flow,
		schedule:   schedule,
		runTimeout: defaultRunTimeout,
		cron:       cron.New(cron.WithLocation(time.UTC)),
	}

	if err := s.initSchedulerLogger(logCfg); err != nil {
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}
	return s
}

// initSchedulerLogger writes to stdout and a rotating file
func (s *RetentionScheduler) initSchedulerLogger(cfg LogConfig) error {
	if cfg.Path == "" {
		s.logger = log.New(os.Stdout, "retention ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	s.logFile = rotating
	s.logger = log.New(io.MultiWriter(os.Stdout, rotating), "retention ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
	return nil
}

// Activate registers the purge job. Calling it again while scheduled is a no-op.
func (s *RetentionScheduler) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil
	}
	id, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(s.runContext()) })
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}
	s.entryID = id
	s.active = true
	s.logger.Printf("retention purge scheduled (%s)", s.schedule)
	return nil
}

// Deactivate removes the purge job and reports whether one was scheduled
func (s *RetentionScheduler) Deactivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	s.cron.Remove(s.entryID)
	s.entryID = 0
	s.active = false
	s.logger.Println("retention purge unscheduled")
	return true
}

func (s *RetentionScheduler) IsScheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// NextRun returns the next fire time. It is zero until Start has been called.
func (s *RetentionScheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return time.Time{}, false
	}
	return s.cron.Entry(s.entryID).Next, true
}

func (s *RetentionScheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}

// RunOnce performs one purge batch and logs the outcome
func (s *RetentionScheduler) RunOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.runTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.flow.Purge(ctx)
	if err != nil {
		s.logger.Printf("retention purge failed: %v", err)
		return
	}
	if resp.Skipped {
		s.logger.Println("retention purge skipped: another run holds the lock")
		return
	}
	s.logger.Printf("retention purge removed %d records older than %d days in %s", resp.Deleted, resp.RetentionDays, time.Since(start))
}

// Start launches the cron loop and returns a stop function that waits for a running purge
func (s *RetentionScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()
	s.cron.Start()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-s.cron.Stop().Done()
			if s.logFile != nil {
				_ = s.logFile.Close()
			}
		})
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return stop
}

// Package schedule runs named jobs on fixed intervals.
//
// Each job gets its own goroutine, an initial delay before the first pass
// (so a restart does not fire every job at once), and full isolation: a pass
// that returns an error or panics is logged and the next tick still fires,
// and sibling jobs are unaffected.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodically executed pass.
type Job struct {
	Name         string
	Interval     time.Duration
	InitialDelay time.Duration
	Run          func(ctx context.Context) error
}

// PassFunc observes a finished pass. Used to hook metrics in without the
// scheduler knowing about them.
type PassFunc func(job string, elapsed time.Duration, err error)

type Scheduler struct {
	jobs   []Job
	onPass PassFunc

	wg sync.WaitGroup
}

func New(onPass PassFunc) *Scheduler {
	return &Scheduler{onPass: onPass}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start launches every registered job. Jobs stop when ctx is canceled;
// Wait blocks until they are all done.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(j)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	slog.Info("job scheduled", "job", j.Name, "interval", j.Interval, "initial_delay", j.InitialDelay)

	delay := time.NewTimer(j.InitialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		s.runOne(ctx, j)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runOne executes a single pass. Errors and panics are logged with the job
// name and swallowed: one bad pass must never stop the schedule.
func (s *Scheduler) runOne(ctx context.Context, j Job) {
	start := time.Now()

	err := func() (err error) {
		defer func() {
			r := recover()
			if r != nil {
				err = fmt.Errorf("pass panicked: %v", r)
			}
		}()

		return j.Run(ctx)
	}()

	elapsed := time.Since(start)

	if err != nil {
		slog.Error("job pass failed", "job", j.Name, "elapsed", elapsed, "error", err)
	} else {
		slog.Debug("job pass done", "job", j.Name, "elapsed", elapsed)
	}

	if s.onPass != nil {
		s.onPass(j.Name, elapsed, err)
	}
}

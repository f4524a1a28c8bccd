package sim

import (
	"context"
	"sync"
	"time"

	goutils "go.viam.com/utils"
	"go.uber.org/atomic"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/utils"
)

// Loop drives a Stepper at a fixed period in the background.
type Loop struct {
	stepper Stepper
	period  time.Duration
	budget  int64
	logger  logging.Logger

	steps   atomic.Int64
	workers utils.StoppableWorkers
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// NewLoop returns a loop stepping every period. A budget of zero or less steps forever.
func NewLoop(stepper Stepper, period time.Duration, budget int64, logger logging.Logger) *Loop {
	return &Loop{stepper: stepper, period: period, budget: budget, logger: logger, done: make(chan struct{})}
}

// Start begins stepping until ctx is done, Stop is called, the budget is spent or a step fails.
func (l *Loop) Start(ctx context.Context) {
	l.workers = utils.NewStoppableWorkersWithContext(ctx, l.run)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	for {
		if ctx.Err() != nil {
			return
		}
		if l.budget > 0 && l.steps.Load() >= l.budget {
			l.logger.Debugw("step budget exhausted", "steps", l.steps.Load())
			return
		}
		start := time.Now()
		if err := l.stepper.Step(ctx); err != nil {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
			l.logger.Errorw("simulation step failed", "step", l.steps.Load(), "error", err)
			return
		}
		l.steps.Inc()
		if !goutils.SelectContextOrWait(ctx, l.period-time.Since(start)) {
			return
		}
	}
}

// Steps returns the number of completed steps.
func (l *Loop) Steps() int64 {
	return l.steps.Load()
}

// Done is closed once the loop stops stepping.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the loop stops or ctx is done and returns the step error, if any.
func (l *Loop) Wait(ctx context.Context) error {
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Stop halts the loop and waits for the in-flight step to finish.
func (l *Loop) Stop() {
	if l.workers != nil {
		l.workers.Stop()
	}
}

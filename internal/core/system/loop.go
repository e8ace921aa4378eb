package system

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrLoopRunning = errors.New("loop already running")

// Loop drives a Runner from a ticker. Run blocks until Stop is called or the
// context is cancelled; every tick completes before the loop observes either.
// A Stop issued before Run makes Run return at once.
type Loop struct {
	runner *Runner
	rate   time.Duration
	log    *zap.Logger

	mu      sync.Mutex
	running bool
	stopped bool
	stop    chan struct{}
}

func NewLoop(runner *Runner, rate time.Duration, log *zap.Logger) *Loop {
	return &Loop{runner: runner, rate: rate, log: log, stop: make(chan struct{})}
}

func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopRunning
	}
	l.running = true
	stop := l.stop
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	select {
	case <-stop:
		l.log.Info("tick loop stopped before start")
		return nil
	default:
	}

	ticker := time.NewTicker(l.rate)
	defer ticker.Stop()

	l.log.Info("tick loop started", zap.Duration("rate", l.rate))
	for {
		select {
		case <-ticker.C:
			l.runner.Tick(l.rate)
		case <-stop:
			l.log.Info("tick loop stopped", zap.Uint64("ticks", l.runner.Ticks()))
			return nil
		case <-ctx.Done():
			l.log.Info("tick loop cancelled", zap.Uint64("ticks", l.runner.Ticks()))
			return ctx.Err()
		}
	}
}

// Stop ends the loop, whether or not Run has started yet. Safe to call more
// than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.stopped {
		l.stopped = true
		close(l.stop)
	}
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

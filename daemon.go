package cfddns

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the time between cycles when RunDaemon is given a non-positive interval.
const DefaultInterval = 5 * time.Minute

// RunDaemon runs one cycle immediately and then one per interval until ctx is done.
//
// Cycles never overlap: a tick that fires while the previous cycle is still running is skipped.
// Cycle errors are logged and never stop the daemon.
// RunDaemon returns once ctx is done and any in-flight cycle has finished.
//
// A nil logger discards log messages.
func RunDaemon(ctx context.Context, c Cycler, interval time.Duration, logger logrus.FieldLogger) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = discard
	}

	var (
		running atomic.Bool
		wg      sync.WaitGroup
	)
	tick := func() {
		if !running.CompareAndSwap(false, true) {
			logger.Warn("previous cycle still running; skipping this tick")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer running.Store(false)
			if _, err := c.RunCycle(ctx); err != nil {
				logger.WithError(err).Error("cycle failed")
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.WithField("interval", interval).Info("daemon started")
	tick()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			logger.Info("daemon stopped")
			return
		case <-ticker.C:
			tick()
		}
	}
}

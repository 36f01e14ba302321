package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lessonhub/settlement-service/internal/service"
	"github.com/sirupsen/logrus"
)

// HoldExpirer runs the expiry sweep on a fixed interval. A tick arriving
// while a sweep is still in flight is skipped, not queued, so the hold set
// is never scanned twice concurrently. Sweep failures are logged and the
// next tick proceeds regardless.
type HoldExpirer struct {
	svc      service.BookingService
	interval time.Duration
	running  atomic.Bool
}

func NewHoldExpirer(svc service.BookingService, interval time.Duration) *HoldExpirer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &HoldExpirer{svc: svc, interval: interval}
}

func (j *HoldExpirer) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.trigger(ctx)
		}
	}
}

// trigger starts one sweep unless one is already running. Returns whether a
// sweep was started.
func (j *HoldExpirer) trigger(ctx context.Context) bool {
	if !j.running.CompareAndSwap(false, true) {
		logrus.Debug("hold expiry sweep still in flight, skipping tick")
		return false
	}
	go func() {
		defer j.running.Store(false)
		if _, err := j.svc.ExpireHolds(ctx); err != nil {
			logrus.WithError(err).Error("hold expiry sweep failed")
		}
	}()
	return true
}
